// Package server implements the HTTP admin and introspection API for the
// Warden registry service.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	warden "github.com/wardenio/warden/internal"
	"github.com/wardenio/warden/internal/lifecycle"
	"github.com/wardenio/warden/internal/policy"
	"github.com/wardenio/warden/internal/registry"
	"github.com/wardenio/warden/internal/storage"
	"github.com/wardenio/warden/internal/telemetry"
)

// ReadyChecker reports whether the system is ready to serve traffic.
type ReadyChecker func(ctx context.Context) error

// Deps holds all dependencies for the HTTP server.
type Deps struct {
	Registry  *registry.Registry
	Lifecycle *lifecycle.Manager
	Policies  *policy.Library
	Store     storage.Store

	// Catalog maps provider IDs (warden.ProviderID) to the handles built
	// at startup; bind requests resolve against it.
	Catalog map[string]warden.Handle

	// AdminKeyHash is the SHA-256 hex of the admin bearer token.
	AdminKeyHash string

	Metrics    *telemetry.Metrics  // nil = no metrics endpoint or middleware
	Gatherer   prometheus.Gatherer // gatherer backing /metrics
	ReadyCheck ReadyChecker        // nil = always ready (for tests)
}

// New creates an http.Handler with all routes and middleware wired.
func New(deps Deps) http.Handler {
	s := &server{deps: deps}

	r := chi.NewRouter()

	// Global middleware
	r.Use(s.recovery)
	r.Use(s.requestID)
	r.Use(s.logging)
	if deps.Metrics != nil {
		r.Use(metricsMiddleware(deps.Metrics))
	}

	// System endpoints (no auth)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	if deps.Metrics != nil && deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	// Admin API (bearer auth)
	r.Group(func(r chi.Router) {
		r.Use(s.adminAuth)

		r.Get("/v1/providers", s.handleListProviders)
		r.Post("/v1/providers", s.handleCreateProvider)
		r.Get("/v1/providers/{category}", s.handleListByCategory)
		r.Get("/v1/providers/{category}/{type}", s.handleGetProvider)
		r.Put("/v1/providers/{category}/{type}", s.handleUpdateProvider)
		r.Delete("/v1/providers/{category}/{type}", s.handleDeleteProvider)
		r.Post("/v1/providers/{category}/{type}/bind", s.handleBindProvider)
		r.Post("/v1/providers/{category}/{type}/unbind", s.handleUnbindProvider)
		r.Post("/v1/providers/{category}/{type}/health", s.handleProviderHealth)

		r.Get("/v1/bindings", s.handleListBindings)

		r.Get("/v1/policies", s.handleListPolicies)
		r.Get("/v1/policies/{name}", s.handleGetPolicy)
		r.Post("/v1/policies/{name}/validate", s.handleValidatePolicy)

		r.Get("/v1/events", s.handleListEvents)
	})

	return r
}

type server struct {
	deps Deps
}

// Pre-allocated response body and header value slice: direct map access
// skips the []string{v} alloc Header.Set would make per call.
var (
	okBody       = []byte("ok")
	notReadyBody = []byte("not ready")
	plainCT      = []string{"text/plain"}
)

func (s *server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header()["Content-Type"] = plainCT
	w.WriteHeader(http.StatusOK)
	w.Write(okBody)
}

func (s *server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.deps.ReadyCheck != nil {
		if err := s.deps.ReadyCheck(r.Context()); err != nil {
			w.Header()["Content-Type"] = plainCT
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write(notReadyBody)
			return
		}
	}
	w.Header()["Content-Type"] = plainCT
	w.WriteHeader(http.StatusOK)
	w.Write(okBody)
}
