package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	warden "github.com/wardenio/warden/internal"
	"github.com/wardenio/warden/internal/telemetry"
)

const (
	eventChanSize   = 1000
	eventBatchSize  = 100
	eventFlushEvery = 5 * time.Second
	eventDrainTime  = 30 * time.Second
)

// EventStore is the persistence interface consumed by EventRecorder.
type EventStore interface {
	InsertBindEvents(ctx context.Context, events []warden.BindEvent) error
}

// EventRecorder buffers lifecycle audit events and batch-flushes them to
// the store. Events are dropped if the channel is full (back-pressure on
// slow DB); bind notifications must never block on the audit trail.
type EventRecorder struct {
	ch      chan warden.BindEvent
	store   EventStore
	metrics *telemetry.Metrics // optional
}

// NewEventRecorder creates an EventRecorder backed by store. metrics may
// be nil.
func NewEventRecorder(store EventStore, metrics *telemetry.Metrics) *EventRecorder {
	return &EventRecorder{
		ch:      make(chan warden.BindEvent, eventChanSize),
		store:   store,
		metrics: metrics,
	}
}

// Name returns the worker identifier.
func (e *EventRecorder) Name() string { return "event_recorder" }

// Record enqueues an audit event. It never blocks; drops on full channel.
func (e *EventRecorder) Record(ev warden.BindEvent) {
	select {
	case e.ch <- ev:
		if e.metrics != nil {
			e.metrics.EventQueueLength.Set(float64(len(e.ch)))
		}
	default:
		slog.Warn("bind event dropped, channel full",
			"category", ev.Category, "type", ev.Type, "action", string(ev.Action))
	}
}

// Run processes events until ctx is cancelled, then drains remaining events.
func (e *EventRecorder) Run(ctx context.Context) error {
	ticker := time.NewTicker(eventFlushEvery)
	defer ticker.Stop()

	buf := make([]warden.BindEvent, 0, eventBatchSize)

	for {
		select {
		case ev := <-e.ch:
			buf = append(buf, ev)
			if len(buf) >= eventBatchSize {
				e.flush(ctx, buf)
				buf = buf[:0]
			}

		case <-ticker.C:
			if len(buf) > 0 {
				e.flush(ctx, buf)
				buf = buf[:0]
			}

		case <-ctx.Done():
			// Drain remaining events with a timeout.
			e.drain(buf)
			return nil
		}
	}
}

func (e *EventRecorder) drain(buf []warden.BindEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), eventDrainTime)
	defer cancel()

	for {
		select {
		case ev := <-e.ch:
			buf = append(buf, ev)
			if len(buf) >= eventBatchSize {
				e.flush(ctx, buf)
				buf = buf[:0]
			}
		default:
			// Channel empty, flush remaining.
			if len(buf) > 0 {
				e.flush(ctx, buf)
			}
			return
		}
	}
}

func (e *EventRecorder) flush(ctx context.Context, buf []warden.BindEvent) {
	// Copy to avoid aliasing the caller's slice.
	batch := make([]warden.BindEvent, len(buf))
	copy(batch, buf)

	// Assign IDs off the hot path; callers leave ID empty.
	for i := range batch {
		if batch[i].ID == "" {
			batch[i].ID = uuid.Must(uuid.NewV7()).String()
		}
	}

	if err := e.store.InsertBindEvents(ctx, batch); err != nil {
		slog.LogAttrs(ctx, slog.LevelError, "bind event flush failed",
			slog.Int("count", len(batch)),
			slog.String("error", err.Error()),
		)
	}
	if e.metrics != nil {
		e.metrics.EventQueueLength.Set(float64(len(e.ch)))
	}
}
