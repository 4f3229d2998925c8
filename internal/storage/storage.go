// Package storage defines persistence interfaces for the registry service.
package storage

import (
	"context"
	"time"

	warden "github.com/wardenio/warden/internal"
)

// ProviderConfigStore manages provider configuration persistence.
type ProviderConfigStore interface {
	CreateProviderConfig(ctx context.Context, p *warden.ProviderConfig) error
	GetProviderConfig(ctx context.Context, id string) (*warden.ProviderConfig, error)
	ListProviderConfigs(ctx context.Context) ([]*warden.ProviderConfig, error)
	UpdateProviderConfig(ctx context.Context, p *warden.ProviderConfig) error
	DeleteProviderConfig(ctx context.Context, id string) error
}

// BindEventFilter selects lifecycle audit records. Since/Until are RFC3339
// timestamps; empty fields match everything.
type BindEventFilter struct {
	Category string
	Action   string
	Since    string
	Until    string
	Limit    int
	Offset   int
}

// BindEventStore manages the lifecycle audit trail.
type BindEventStore interface {
	InsertBindEvents(ctx context.Context, events []warden.BindEvent) error
	ListBindEvents(ctx context.Context, f BindEventFilter) ([]warden.BindEvent, error)
	CountBindEvents(ctx context.Context, f BindEventFilter) (int, error)
	// DeleteBindEventsBefore removes audit records older than cutoff and
	// returns how many were dropped.
	DeleteBindEventsBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// VectorStore persists embeddings for the durable vector backend.
type VectorStore interface {
	UpsertVector(ctx context.Context, e warden.VectorEntry) error
	// ListVectors returns all live entries in a namespace. Expired entries
	// are excluded.
	ListVectors(ctx context.Context, namespace string) ([]warden.VectorEntry, error)
	// DeleteExpiredVectors removes entries past their expiry and returns
	// how many were dropped.
	DeleteExpiredVectors(ctx context.Context, now time.Time) (int, error)
}

// Store combines all storage interfaces.
type Store interface {
	ProviderConfigStore
	BindEventStore
	VectorStore
	Ping(ctx context.Context) error
	Close() error
}
