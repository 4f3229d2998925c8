package worker

import (
	"context"
	"log/slog"
	"time"
)

const (
	defaultSweepInterval  = time.Hour
	defaultEventRetention = 30 * 24 * time.Hour
)

// SweepStore is the persistence surface the sweeper cleans up.
type SweepStore interface {
	DeleteBindEventsBefore(ctx context.Context, cutoff time.Time) (int, error)
	DeleteExpiredVectors(ctx context.Context, now time.Time) (int, error)
}

// Sweeper periodically drops audit records past the retention window and
// expired vector entries.
type Sweeper struct {
	store     SweepStore
	interval  time.Duration
	retention time.Duration
}

// NewSweeper creates a Sweeper. interval and retention <= 0 select defaults.
func NewSweeper(store SweepStore, interval, retention time.Duration) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if retention <= 0 {
		retention = defaultEventRetention
	}
	return &Sweeper{store: store, interval: interval, retention: retention}
}

// Name returns the worker identifier.
func (s *Sweeper) Name() string { return "sweeper" }

// Run sweeps on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.retention)
	events, err := s.store.DeleteBindEventsBefore(ctx, cutoff)
	if err != nil {
		slog.LogAttrs(ctx, slog.LevelError, "audit retention sweep failed",
			slog.String("error", err.Error()),
		)
	}

	vectors, err := s.store.DeleteExpiredVectors(ctx, time.Now())
	if err != nil {
		slog.LogAttrs(ctx, slog.LevelError, "vector expiry sweep failed",
			slog.String("error", err.Error()),
		)
	}

	if events > 0 || vectors > 0 {
		slog.LogAttrs(ctx, slog.LevelInfo, "sweep completed",
			slog.Int("events_dropped", events),
			slog.Int("vectors_dropped", vectors),
		)
	}
}
