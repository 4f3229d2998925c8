// Package memvec implements the warden.VectorStore contract with an
// in-memory index. It is the default vector backend for single-node
// deployments; entries do not survive a restart.
package memvec

import (
	"context"
	"slices"
	"sync"
	"time"

	warden "github.com/wardenio/warden/internal"
	"github.com/wardenio/warden/internal/provider"
)

const (
	providerType      = "memory"
	defaultMaxEntries = 10000
)

var _ warden.VectorStore = (*Store)(nil)

// Store is an in-memory vector store. Entries are kept per namespace and
// scanned linearly on query; this is intended for modest semantic-cache
// working sets, not large corpora.
type Store struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]warden.VectorEntry
	maxEntries int
	count      int
}

// New creates an in-memory vector store holding at most maxEntries entries
// across all namespaces. maxEntries <= 0 selects the default capacity.
func New(maxEntries int) *Store {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &Store{
		namespaces: make(map[string]map[string]warden.VectorEntry),
		maxEntries: maxEntries,
	}
}

// Category returns warden.CategoryVectorStore.
func (s *Store) Category() warden.Category { return warden.CategoryVectorStore }

// Type returns the implementation identifier.
func (s *Store) Type() string { return providerType }

// HealthCheck always reports healthy; the store has no backend.
func (s *Store) HealthCheck(_ context.Context) error { return nil }

// Upsert stores or replaces an entry keyed by (namespace, id). At capacity,
// expired entries are dropped first; if the store is still full an arbitrary
// entry is evicted. The store is a best-effort cache, not durable storage.
func (s *Store) Upsert(_ context.Context, e warden.VectorEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.namespaces[e.Namespace][e.ID]; !exists {
		if s.count >= s.maxEntries {
			s.pruneLocked(time.Now())
		}
		if s.count >= s.maxEntries {
			s.evictOneLocked()
		}
		s.count++
	}

	// Capacity handling may have emptied and removed the target namespace
	// map, so it is resolved only after eviction.
	ns, ok := s.namespaces[e.Namespace]
	if !ok {
		ns = make(map[string]warden.VectorEntry)
		s.namespaces[e.Namespace] = ns
	}
	ns[e.ID] = e
	return nil
}

// Query returns up to limit entries in the namespace ordered by descending
// cosine similarity. Expired entries are skipped.
func (s *Store) Query(_ context.Context, namespace string, embedding []float32, limit int) ([]warden.VectorMatch, error) {
	if limit <= 0 {
		return nil, nil
	}
	now := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ns := s.namespaces[namespace]
	matches := make([]warden.VectorMatch, 0, len(ns))
	for _, e := range ns {
		if e.Expired(now) {
			continue
		}
		matches = append(matches, warden.VectorMatch{
			VectorEntry: e,
			Similarity:  provider.Cosine(embedding, e.Embedding),
		})
	}
	slices.SortFunc(matches, func(a, b warden.VectorMatch) int {
		switch {
		case a.Similarity > b.Similarity:
			return -1
		case a.Similarity < b.Similarity:
			return 1
		default:
			return 0
		}
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Prune removes expired entries and returns how many were dropped.
func (s *Store) Prune(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pruneLocked(time.Now()), nil
}

// Len reports how many entries the store currently holds.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

func (s *Store) pruneLocked(now time.Time) int {
	dropped := 0
	for name, ns := range s.namespaces {
		for id, e := range ns {
			if e.Expired(now) {
				delete(ns, id)
				s.count--
				dropped++
			}
		}
		if len(ns) == 0 {
			delete(s.namespaces, name)
		}
	}
	return dropped
}

func (s *Store) evictOneLocked() {
	for name, ns := range s.namespaces {
		for id := range ns {
			delete(ns, id)
			s.count--
			if len(ns) == 0 {
				delete(s.namespaces, name)
			}
			return
		}
	}
}
