// Package sqlitevec implements the warden.VectorStore contract on top of
// the SQLite storage layer. Entries survive restarts; similarity scoring
// runs in Go over the candidate namespace.
package sqlitevec

import (
	"context"
	"slices"
	"time"

	warden "github.com/wardenio/warden/internal"
	"github.com/wardenio/warden/internal/provider"
	"github.com/wardenio/warden/internal/storage"
)

const providerType = "sqlite"

// DB is the storage surface sqlitevec needs.
type DB interface {
	storage.VectorStore
	Ping(ctx context.Context) error
}

var _ warden.VectorStore = (*Store)(nil)

// Store is a durable vector store backed by SQLite.
type Store struct {
	db DB
}

// New creates a SQLite-backed vector store.
func New(db DB) *Store {
	return &Store{db: db}
}

// Category returns warden.CategoryVectorStore.
func (s *Store) Category() warden.Category { return warden.CategoryVectorStore }

// Type returns the implementation identifier.
func (s *Store) Type() string { return providerType }

// HealthCheck pings the underlying database.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Upsert stores or replaces an entry keyed by (namespace, id).
func (s *Store) Upsert(ctx context.Context, e warden.VectorEntry) error {
	return s.db.UpsertVector(ctx, e)
}

// Query loads the live entries of the namespace and returns up to limit
// matches ordered by descending cosine similarity.
func (s *Store) Query(ctx context.Context, namespace string, embedding []float32, limit int) ([]warden.VectorMatch, error) {
	if limit <= 0 {
		return nil, nil
	}
	entries, err := s.db.ListVectors(ctx, namespace)
	if err != nil {
		return nil, err
	}

	matches := make([]warden.VectorMatch, 0, len(entries))
	for _, e := range entries {
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
func (s *Store) Prune(ctx context.Context) (int, error) {
	return s.db.DeleteExpiredVectors(ctx, time.Now())
}
