package worker

import (
	"context"
	"log/slog"
	"time"

	warden "github.com/wardenio/warden/internal"
	"github.com/wardenio/warden/internal/telemetry"
)

const (
	defaultProbeInterval = 30 * time.Second
	defaultProbeTimeout  = 5 * time.Second
)

// ProviderLister reports the currently bound providers.
type ProviderLister interface {
	Descriptors() []warden.Descriptor
}

// HealthProbe periodically health-checks every bound provider and exports
// the result as a gauge. Probe failures never unbind a provider; the host
// owns lifecycle decisions.
type HealthProbe struct {
	registry ProviderLister
	metrics  *telemetry.Metrics
	interval time.Duration
	timeout  time.Duration
}

// NewHealthProbe creates a HealthProbe over the given registry. interval
// and timeout <= 0 select defaults. metrics may be nil.
func NewHealthProbe(registry ProviderLister, metrics *telemetry.Metrics, interval, timeout time.Duration) *HealthProbe {
	if interval <= 0 {
		interval = defaultProbeInterval
	}
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	return &HealthProbe{
		registry: registry,
		metrics:  metrics,
		interval: interval,
		timeout:  timeout,
	}
}

// Name returns the worker identifier.
func (h *HealthProbe) Name() string { return "health_probe" }

// Run probes immediately, then on every tick until ctx is cancelled.
func (h *HealthProbe) Run(ctx context.Context) error {
	h.probeAll(ctx)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.probeAll(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}

func (h *HealthProbe) probeAll(ctx context.Context) {
	if h.metrics != nil {
		// Drop gauge series for providers unbound since the last sweep.
		h.metrics.ProviderHealthy.Reset()
	}

	for _, d := range h.registry.Descriptors() {
		probeCtx, cancel := context.WithTimeout(ctx, h.timeout)
		err := d.Handle.HealthCheck(probeCtx)
		cancel()

		healthy := 0.0
		if err == nil {
			healthy = 1.0
		} else {
			slog.LogAttrs(ctx, slog.LevelWarn, "provider health probe failed",
				slog.String("category", string(d.Category)),
				slog.String("type", d.Type),
				slog.String("error", err.Error()),
			)
		}
		if h.metrics != nil {
			h.metrics.ProviderHealthy.WithLabelValues(string(d.Category), d.Type).Set(healthy)
		}
	}
}
