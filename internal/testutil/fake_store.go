package testutil

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	warden "github.com/wardenio/warden/internal"
	"github.com/wardenio/warden/internal/storage"
)

// FakeStore is an in-memory implementation of storage.Store for testing.
type FakeStore struct {
	mu      sync.RWMutex
	configs map[string]*warden.ProviderConfig
	events  []warden.BindEvent
	vectors map[string]map[string]warden.VectorEntry

	PingErr error
}

// NewFakeStore returns a FakeStore with empty collections.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		configs: make(map[string]*warden.ProviderConfig),
		vectors: make(map[string]map[string]warden.VectorEntry),
	}
}

// --- ProviderConfigStore ---

// CreateProviderConfig stores a provider config, failing on duplicate IDs.
func (s *FakeStore) CreateProviderConfig(_ context.Context, p *warden.ProviderConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.configs[p.ID]; ok {
		return warden.ErrConflict
	}
	cp := *p
	s.configs[p.ID] = &cp
	return nil
}

// GetProviderConfig looks up a provider config by ID.
func (s *FakeStore) GetProviderConfig(_ context.Context, id string) (*warden.ProviderConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.configs[id]
	if !ok {
		return nil, warden.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// ListProviderConfigs returns all stored configs sorted by ID.
func (s *FakeStore) ListProviderConfigs(context.Context) ([]*warden.ProviderConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*warden.ProviderConfig, 0, len(s.configs))
	for _, p := range s.configs {
		cp := *p
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *warden.ProviderConfig) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// UpdateProviderConfig replaces a stored config.
func (s *FakeStore) UpdateProviderConfig(_ context.Context, p *warden.ProviderConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.configs[p.ID]; !ok {
		return warden.ErrNotFound
	}
	cp := *p
	s.configs[p.ID] = &cp
	return nil
}

// DeleteProviderConfig removes a config by ID.
func (s *FakeStore) DeleteProviderConfig(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.configs[id]; !ok {
		return warden.ErrNotFound
	}
	delete(s.configs, id)
	return nil
}

// --- BindEventStore ---

// InsertBindEvents appends audit records.
func (s *FakeStore) InsertBindEvents(_ context.Context, events []warden.BindEvent) error {
	s.mu.Lock()
	s.events = append(s.events, events...)
	s.mu.Unlock()
	return nil
}

// ListBindEvents returns matching audit records, newest first.
func (s *FakeStore) ListBindEvents(_ context.Context, f storage.BindEventFilter) ([]warden.BindEvent, error) {
	s.mu.RLock()
	matched := s.filteredEvents(f)
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b warden.BindEvent) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	if f.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[f.Offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// CountBindEvents returns the number of matching audit records.
func (s *FakeStore) CountBindEvents(_ context.Context, f storage.BindEventFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.filteredEvents(f)), nil
}

// DeleteBindEventsBefore removes records older than cutoff.
func (s *FakeStore) DeleteBindEventsBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.events[:0]
	dropped := 0
	for _, e := range s.events {
		if e.CreatedAt.Before(cutoff) {
			dropped++
			continue
		}
		kept = append(kept, e)
	}
	s.events = kept
	return dropped, nil
}

// filteredEvents returns copies of events matching the filter.
// Caller holds at least a read lock.
func (s *FakeStore) filteredEvents(f storage.BindEventFilter) []warden.BindEvent {
	since, _ := time.Parse(time.RFC3339, f.Since)
	until, _ := time.Parse(time.RFC3339, f.Until)

	var out []warden.BindEvent
	for _, e := range s.events {
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		if f.Action != "" && string(e.Action) != f.Action {
			continue
		}
		if f.Since != "" && e.CreatedAt.Before(since) {
			continue
		}
		if f.Until != "" && !e.CreatedAt.Before(until) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// --- VectorStore ---

// UpsertVector stores or replaces an entry keyed by (namespace, id).
func (s *FakeStore) UpsertVector(_ context.Context, e warden.VectorEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.vectors[e.Namespace]
	if !ok {
		ns = make(map[string]warden.VectorEntry)
		s.vectors[e.Namespace] = ns
	}
	ns[e.ID] = e
	return nil
}

// ListVectors returns live entries in a namespace.
func (s *FakeStore) ListVectors(_ context.Context, namespace string) ([]warden.VectorEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := time.Now()
	var out []warden.VectorEntry
	for _, e := range s.vectors[namespace] {
		if e.Expired(now) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// DeleteExpiredVectors removes entries past their expiry.
func (s *FakeStore) DeleteExpiredVectors(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dropped := 0
	for _, ns := range s.vectors {
		for id, e := range ns {
			if e.Expired(now) {
				delete(ns, id)
				dropped++
			}
		}
	}
	return dropped, nil
}

// Ping returns the configured error, or nil.
func (s *FakeStore) Ping(context.Context) error { return s.PingErr }

// Close is a no-op.
func (s *FakeStore) Close() error { return nil }
