package server

import (
	"net/http"

	warden "github.com/wardenio/warden/internal"
	"github.com/wardenio/warden/internal/storage"
)

// handleListEvents returns the lifecycle audit trail, newest first, with
// optional category/action/time filters.
func (s *server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	since, until, ok := parseSinceUntil(w, r)
	if !ok {
		return
	}
	offset, limit := parsePagination(r)

	f := storage.BindEventFilter{
		Category: r.URL.Query().Get("category"),
		Action:   r.URL.Query().Get("action"),
		Since:    since,
		Until:    until,
		Limit:    limit,
		Offset:   offset,
	}

	events, err := s.deps.Store.ListBindEvents(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	total, err := s.deps.Store.CountBindEvents(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if events == nil {
		events = []warden.BindEvent{}
	}
	writeJSON(w, http.StatusOK, listResponse{
		Data:       events,
		Pagination: pagination{Offset: offset, Limit: limit, Total: total},
	})
}
