package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	warden "github.com/wardenio/warden/internal"
)

// healthCheckTimeout bounds on-demand provider health checks.
const healthCheckTimeout = 5 * time.Second

// providerView is a stored provider config annotated with live bind state.
type providerView struct {
	*warden.ProviderConfig
	Bound bool `json:"bound"`
}

func (s *server) providerParams(r *http.Request) (warden.Category, string) {
	return warden.Category(chi.URLParam(r, "category")), chi.URLParam(r, "type")
}

// bound reports whether (category, type) currently has a live binding.
func (s *server) bound(category warden.Category, typ string) bool {
	_, err := s.deps.Registry.Lookup(category, typ)
	return err == nil
}

func (s *server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	configs, err := s.deps.Store.ListProviderConfigs(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]providerView, 0, len(configs))
	for _, c := range configs {
		views = append(views, providerView{
			ProviderConfig: c,
			Bound:          s.bound(c.Category, c.Type),
		})
	}
	writeJSON(w, http.StatusOK, listResponse{
		Data:       views,
		Pagination: pagination{Offset: 0, Limit: len(views), Total: len(views)},
	})
}

// handleListByCategory returns the type strings currently bound under one
// category, in sorted order.
func (s *server) handleListByCategory(w http.ResponseWriter, r *http.Request) {
	category := warden.Category(chi.URLParam(r, "category"))
	if !s.deps.Registry.Has(category) {
		writeJSON(w, http.StatusBadRequest, errorResponse("unknown category"))
		return
	}
	types := s.deps.Registry.ListByCategory(category)
	if types == nil {
		types = []string{}
	}
	writeJSON(w, http.StatusOK, listResponse{
		Data:       types,
		Pagination: pagination{Offset: 0, Limit: len(types), Total: len(types)},
	})
}

func (s *server) handleCreateProvider(w http.ResponseWriter, r *http.Request) {
	var p warden.ProviderConfig
	if !decodeJSON(w, r, &p) {
		return
	}
	if !s.deps.Registry.Has(p.Category) {
		writeJSON(w, http.StatusBadRequest, errorResponse("unknown category"))
		return
	}
	p.Type = warden.NormalizeType(p.Type)
	if p.Type == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse("type is required"))
		return
	}
	p.ID = warden.ProviderID(p.Category, p.Type)

	if _, err := s.deps.Store.GetProviderConfig(r.Context(), p.ID); err == nil {
		writeJSON(w, http.StatusConflict, errorResponse("provider already exists"))
		return
	} else if !errors.Is(err, warden.ErrNotFound) {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Store.CreateProviderConfig(r.Context(), &p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, providerView{ProviderConfig: &p, Bound: s.bound(p.Category, p.Type)})
}

func (s *server) handleGetProvider(w http.ResponseWriter, r *http.Request) {
	category, typ := s.providerParams(r)
	p, err := s.deps.Store.GetProviderConfig(r.Context(), warden.ProviderID(category, typ))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, providerView{ProviderConfig: p, Bound: s.bound(p.Category, p.Type)})
}

func (s *server) handleUpdateProvider(w http.ResponseWriter, r *http.Request) {
	category, typ := s.providerParams(r)
	var p warden.ProviderConfig
	if !decodeJSON(w, r, &p) {
		return
	}
	// Identity fields come from the URL, not the body.
	p.Category = category
	p.Type = warden.NormalizeType(typ)
	p.ID = warden.ProviderID(category, typ)

	if err := s.deps.Store.UpdateProviderConfig(r.Context(), &p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, providerView{ProviderConfig: &p, Bound: s.bound(p.Category, p.Type)})
}

func (s *server) handleDeleteProvider(w http.ResponseWriter, r *http.Request) {
	category, typ := s.providerParams(r)
	if err := s.deps.Store.DeleteProviderConfig(r.Context(), warden.ProviderID(category, typ)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleBindProvider(w http.ResponseWriter, r *http.Request) {
	category, typ := s.providerParams(r)
	id := warden.ProviderID(category, typ)

	handle, ok := s.deps.Catalog[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse("no configured provider for "+id))
		return
	}
	// The enabled flag is persisted so the binding survives a restart.
	cfg, err := s.deps.Store.GetProviderConfig(r.Context(), id)
	if err != nil && !errors.Is(err, warden.ErrNotFound) {
		writeError(w, r, err)
		return
	}
	if cfg != nil && !cfg.Enabled {
		cfg.Enabled = true
		if err := s.deps.Store.UpdateProviderConfig(r.Context(), cfg); err != nil {
			writeError(w, r, err)
			return
		}
	}

	if err := s.deps.Lifecycle.OnProviderAvailable(warden.Descriptor{
		Category: category,
		Type:     typ,
		Handle:   handle,
	}); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "bound": true})
}

func (s *server) handleUnbindProvider(w http.ResponseWriter, r *http.Request) {
	category, typ := s.providerParams(r)
	id := warden.ProviderID(category, typ)

	handle, err := s.deps.Registry.Lookup(category, typ)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cfg, cfgErr := s.deps.Store.GetProviderConfig(r.Context(), id)
	if cfgErr != nil && !errors.Is(cfgErr, warden.ErrNotFound) {
		writeError(w, r, cfgErr)
		return
	}
	if cfg != nil && cfg.Enabled {
		cfg.Enabled = false
		if err := s.deps.Store.UpdateProviderConfig(r.Context(), cfg); err != nil {
			writeError(w, r, err)
			return
		}
	}
	s.deps.Lifecycle.OnProviderUnavailable(warden.Descriptor{
		Category: category,
		Type:     typ,
		Handle:   handle,
	})
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "bound": false})
}

func (s *server) handleProviderHealth(w http.ResponseWriter, r *http.Request) {
	category, typ := s.providerParams(r)

	handle, err := s.deps.Registry.Lookup(category, typ)
	if s.deps.Metrics != nil {
		result := "hit"
		if err != nil {
			result = "miss"
		}
		s.deps.Metrics.LookupsTotal.WithLabelValues(string(category), result).Inc()
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := map[string]any{"healthy": true}
	if herr := handle.HealthCheck(ctx); herr != nil {
		resp["healthy"] = false
		resp["error"] = herr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// bindingView describes one live registry binding.
type bindingView struct {
	Category    warden.Category    `json:"category"`
	Type        string             `json:"type"`
	Cardinality warden.Cardinality `json:"cardinality"`
}

func (s *server) handleListBindings(w http.ResponseWriter, _ *http.Request) {
	descriptors := s.deps.Registry.Descriptors()
	views := make([]bindingView, 0, len(descriptors))
	for _, d := range descriptors {
		card, _ := s.deps.Registry.Cardinality(d.Category)
		views = append(views, bindingView{
			Category:    d.Category,
			Type:        d.Type,
			Cardinality: card,
		})
	}
	writeJSON(w, http.StatusOK, listResponse{
		Data:       views,
		Pagination: pagination{Offset: 0, Limit: len(views), Total: len(views)},
	})
}
