// Package telemetry provides observability primitives for the Warden registry.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for the registry service.
type Metrics struct {
	RequestsTotal        *prometheus.CounterVec
	RequestDuration      *prometheus.HistogramVec
	ActiveRequests       prometheus.Gauge
	BindsTotal           *prometheus.CounterVec
	UnbindsTotal         *prometheus.CounterVec
	StaleUnbindsTotal    *prometheus.CounterVec
	DroppedNotifications *prometheus.CounterVec
	LookupsTotal         *prometheus.CounterVec
	RegisteredProviders  *prometheus.GaugeVec
	ProviderHealthy      *prometheus.GaugeVec
	VerdictCacheHits     prometheus.Counter
	VerdictCacheMisses   prometheus.Counter
	EventQueueLength     prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warden",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:                       "warden",
			Name:                            "request_duration_seconds",
			Help:                            "HTTP request duration in seconds.",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 0,
		}, []string{"method", "path"}),

		ActiveRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "warden",
			Name:      "active_requests",
			Help:      "Number of currently active requests.",
		}),

		BindsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warden",
			Name:      "provider_binds_total",
			Help:      "Total provider bind notifications accepted.",
		}, []string{"category"}),

		UnbindsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warden",
			Name:      "provider_unbinds_total",
			Help:      "Total provider unbind notifications that removed a binding.",
		}, []string{"category"}),

		StaleUnbindsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warden",
			Name:      "provider_stale_unbinds_total",
			Help:      "Total unbind notifications ignored because the handle no longer matched.",
		}, []string{"category"}),

		DroppedNotifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warden",
			Name:      "provider_notifications_dropped_total",
			Help:      "Total bind/unbind notifications dropped by the category/type filter.",
		}, []string{"reason"}),

		LookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warden",
			Name:      "provider_lookups_total",
			Help:      "Total provider lookups by result.",
		}, []string{"category", "result"}),

		RegisteredProviders: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "warden",
			Name:      "registered_providers",
			Help:      "Providers currently bound, per category.",
		}, []string{"category"}),

		ProviderHealthy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "warden",
			Name:      "provider_healthy",
			Help:      "1 if the provider's last health probe succeeded, 0 otherwise.",
		}, []string{"category", "type"}),

		VerdictCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "warden",
			Name:      "verdict_cache_hits_total",
			Help:      "Total content-safety verdict cache hits.",
		}),

		VerdictCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "warden",
			Name:      "verdict_cache_misses_total",
			Help:      "Total content-safety verdict cache misses.",
		}),

		EventQueueLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "warden",
			Name:      "bind_event_queue_length",
			Help:      "Current number of queued bind-event audit records.",
		}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.ActiveRequests,
		m.BindsTotal,
		m.UnbindsTotal,
		m.StaleUnbindsTotal,
		m.DroppedNotifications,
		m.LookupsTotal,
		m.RegisteredProviders,
		m.ProviderHealthy,
		m.VerdictCacheHits,
		m.VerdictCacheMisses,
		m.EventQueueLength,
	)

	return m
}
