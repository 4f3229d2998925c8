package server

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *server) handleListPolicies(w http.ResponseWriter, _ *http.Request) {
	defs := s.deps.Policies.List()
	writeJSON(w, http.StatusOK, listResponse{
		Data:       defs,
		Pagination: pagination{Offset: 0, Limit: len(defs), Total: len(defs)},
	})
}

func (s *server) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	def, err := s.deps.Policies.Get(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

// handleValidatePolicy checks a policy instance configuration against the
// named schema. The body is the raw configuration document.
func (s *server) handleValidatePolicy(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("failed to read request body"))
		return
	}

	name := chi.URLParam(r, "name")
	if err := s.deps.Policies.Validate(name, raw); err != nil {
		status := errorStatus(err)
		if status == http.StatusBadRequest {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"valid": false,
				"error": err.Error(),
			})
			return
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true})
}
