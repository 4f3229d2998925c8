// Package lifecycle adapts host-runtime provider availability notifications
// into registry mutations. It is the event-driven layer between the plugin
// host ("a provider appeared / disappeared") and the provider registry.
package lifecycle

import (
	"fmt"
	"log/slog"
	"time"

	warden "github.com/wardenio/warden/internal"
	"github.com/wardenio/warden/internal/registry"
	"github.com/wardenio/warden/internal/telemetry"
)

// EventRecorder receives audit records for lifecycle actions. Recording is
// best-effort and must never block; registry state is authoritative either way.
type EventRecorder interface {
	Record(warden.BindEvent)
}

// Manager applies bind/unbind notifications to a Registry under the
// category/type filtering discipline. All methods are safe for concurrent
// use from host notification threads.
type Manager struct {
	reg     *registry.Registry
	rec     EventRecorder      // nil = no audit trail
	metrics *telemetry.Metrics // nil = no metrics
}

// NewManager creates a Manager over reg. rec and metrics may be nil.
func NewManager(reg *registry.Registry, rec EventRecorder, metrics *telemetry.Metrics) *Manager {
	return &Manager{reg: reg, rec: rec, metrics: metrics}
}

// OnProviderAvailable handles a bind notification. A descriptor whose
// category is not part of this deployment is dropped silently -- the host
// may advertise providers this registry was never built to accept. An empty
// type string is a configuration error surfaced to the notifier; it affects
// only this registration attempt.
func (m *Manager) OnProviderAvailable(d warden.Descriptor) error {
	if !m.reg.Has(d.Category) {
		slog.Debug("bind dropped, category not accepted",
			"category", d.Category, "type", d.Type)
		m.countDropped("unknown_category")
		m.record(d, warden.BindActionDropped, "category not accepted")
		return nil
	}
	if d.Handle == nil {
		slog.Debug("bind dropped, nil handle", "category", d.Category, "type", d.Type)
		m.countDropped("nil_handle")
		m.record(d, warden.BindActionDropped, "nil handle")
		return nil
	}

	prev, err := m.reg.Register(d.Category, d.Type, d.Handle)
	if err != nil {
		return fmt.Errorf("bind %s/%s: %w", d.Category, d.Type, err)
	}

	action := warden.BindActionBind
	if prev != nil {
		// The displaced handle is discarded without a teardown call; any
		// resource release is the provider's own responsibility.
		action = warden.BindActionReplace
	}
	slog.Info("provider bound",
		"category", d.Category, "type", d.Type, "replaced", prev != nil)
	if m.metrics != nil {
		m.metrics.BindsTotal.WithLabelValues(string(d.Category)).Inc()
		m.updateGauge(d.Category)
	}
	m.record(d, action, "")
	return nil
}

// OnProviderUnavailable handles an unbind notification. Removal happens only
// when the stored handle is identity-equal to the notified one; a stale or
// unknown unbind is logged as a diagnostic and otherwise ignored.
func (m *Manager) OnProviderUnavailable(d warden.Descriptor) {
	if !m.reg.Has(d.Category) {
		slog.Debug("unbind dropped, category not accepted",
			"category", d.Category, "type", d.Type)
		m.countDropped("unknown_category")
		m.record(d, warden.BindActionDropped, "category not accepted")
		return
	}

	if m.reg.Unregister(d.Category, d.Type, d.Handle) {
		slog.Info("provider unbound", "category", d.Category, "type", d.Type)
		if m.metrics != nil {
			m.metrics.UnbindsTotal.WithLabelValues(string(d.Category)).Inc()
			m.updateGauge(d.Category)
		}
		m.record(d, warden.BindActionUnbind, "")
		return
	}

	slog.Debug("stale unbind ignored", "category", d.Category, "type", d.Type)
	if m.metrics != nil {
		m.metrics.StaleUnbindsTotal.WithLabelValues(string(d.Category)).Inc()
	}
	m.record(d, warden.BindActionStaleUnbind, "handle did not match")
}

func (m *Manager) record(d warden.Descriptor, action warden.BindAction, detail string) {
	if m.rec == nil {
		return
	}
	m.rec.Record(warden.BindEvent{
		Category:  string(d.Category),
		Type:      d.Type,
		Action:    action,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	})
}

func (m *Manager) countDropped(reason string) {
	if m.metrics != nil {
		m.metrics.DroppedNotifications.WithLabelValues(reason).Inc()
	}
}

func (m *Manager) updateGauge(cat warden.Category) {
	m.metrics.RegisteredProviders.WithLabelValues(string(cat)).
		Set(float64(len(m.reg.ListByCategory(cat))))
}
