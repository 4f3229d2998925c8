// Package warden defines domain types and interfaces for the Warden
// provider registry. This package has no project imports -- it is the
// dependency root.
package warden

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
)

// --- Provider categories ---

// Category identifies a class of pluggable backend providers. The set of
// categories is fixed per deployment; only cardinality is configurable.
type Category string

const (
	// CategoryContentSafety groups content-moderation backends
	// (e.g. Azure Content Safety, OpenAI moderation).
	CategoryContentSafety Category = "content-safety"
	// CategoryEmbedding groups text-embedding backends.
	CategoryEmbedding Category = "embedding"
	// CategoryVectorStore groups vector-database backends used by
	// semantic caching. Single-slot by default.
	CategoryVectorStore Category = "vector-store"
)

// Categories returns all provider categories known to this deployment.
func Categories() []Category {
	return []Category{CategoryContentSafety, CategoryEmbedding, CategoryVectorStore}
}

// Cardinality controls how many providers a category may hold at once.
type Cardinality string

const (
	// CardinalityMulti allows any number of providers, distinguished by type.
	CardinalityMulti Cardinality = "multi"
	// CardinalitySingle holds exactly one active provider; a new bind
	// replaces the previous one outright.
	CardinalitySingle Cardinality = "single"
)

// DefaultCardinalities is the compiled-in cardinality per category.
var DefaultCardinalities = map[Category]Cardinality{
	CategoryContentSafety: CardinalityMulti,
	CategoryEmbedding:     CardinalityMulti,
	CategoryVectorStore:   CardinalitySingle,
}

// --- Provider handles ---

// Handle is the minimal contract every registered provider implementation
// satisfies. The registry holds handles as non-owning references: it never
// initializes or tears down the provider behind one.
type Handle interface {
	// Category returns the provider category this handle belongs to.
	Category() Category
	// Type returns the implementation identifier within the category
	// (e.g. "azure", "openai-moderation"). Compared case-insensitively.
	Type() string
	// HealthCheck verifies connectivity to the backend.
	HealthCheck(ctx context.Context) error
}

// Descriptor describes a provider implementation in a host bind/unbind
// notification.
type Descriptor struct {
	Category Category
	Type     string
	Handle   Handle
}

// --- Category contracts ---

// ContentSafety is implemented by content-moderation providers.
type ContentSafety interface {
	Handle
	// Analyze classifies text and returns a verdict. Implementations must
	// not mutate shared state; verdicts are safe to cache by input.
	Analyze(ctx context.Context, text string) (*SafetyVerdict, error)
}

// SafetyVerdict is the outcome of a content-safety analysis.
type SafetyVerdict struct {
	Flagged bool `json:"flagged"`
	// Scores holds per-harm-category severities or probabilities as
	// reported by the backend (scale is provider-specific).
	Scores map[string]float64 `json:"scores,omitempty"`
}

// Embedder is implemented by text-embedding providers.
type Embedder interface {
	Handle
	Embed(ctx context.Context, input string) ([]float32, error)
}

// VectorStore is implemented by vector-database providers.
type VectorStore interface {
	Handle
	// Upsert stores or replaces an entry keyed by (namespace, id).
	Upsert(ctx context.Context, e VectorEntry) error
	// Query returns up to limit entries in the namespace ordered by
	// descending cosine similarity to the given embedding. Expired
	// entries are never returned.
	Query(ctx context.Context, namespace string, embedding []float32, limit int) ([]VectorMatch, error)
	// Prune removes expired entries and returns how many were dropped.
	Prune(ctx context.Context) (int, error)
}

// VectorEntry is a stored embedding with an opaque payload.
type VectorEntry struct {
	Namespace string          `json:"namespace"`
	ID        string          `json:"id"`
	Embedding []float32       `json:"embedding"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"` // nil = no expiry
}

// Expired reports whether the entry is past its expiry at the given instant.
func (e *VectorEntry) Expired(now time.Time) bool {
	return e.ExpiresAt != nil && now.After(*e.ExpiresAt)
}

// VectorMatch pairs an entry with its similarity to the query vector.
type VectorMatch struct {
	VectorEntry
	Similarity float64 `json:"similarity"`
}

// --- Lifecycle audit ---

// BindAction labels a lifecycle event for the audit log.
type BindAction string

const (
	BindActionBind        BindAction = "bind"
	BindActionReplace     BindAction = "replace"
	BindActionUnbind      BindAction = "unbind"
	BindActionStaleUnbind BindAction = "stale_unbind"
	BindActionDropped     BindAction = "dropped"
)

// BindEvent records a single lifecycle notification and its outcome.
// Category and Type are plain strings: dropped notifications may carry
// values the registry never accepted.
type BindEvent struct {
	ID        string     `json:"id"`
	Category  string     `json:"category"`
	Type      string     `json:"type"`
	Action    BindAction `json:"action"`
	Detail    string     `json:"detail,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// --- Provider config (stored in DB) ---

// ProviderConfig is a configured provider backend. Credentials are never
// persisted; they stay in memory, resolved from the config file.
type ProviderConfig struct {
	ID        string   `json:"id"` // "<category>/<type>", type lower-cased
	Category  Category `json:"category"`
	Type      string   `json:"type"`
	BaseURL   string   `json:"base_url,omitempty"`
	Enabled   bool     `json:"enabled"`
	TimeoutMs int      `json:"timeout_ms"`
	Hosting   string   `json:"hosting,omitempty"` // "", "azure", "vertex"
	Model     string   `json:"model,omitempty"`   // embedding model / deployment
}

// ProviderID builds the persistent identifier for a (category, type) pair.
func ProviderID(category Category, typ string) string {
	return string(category) + "/" + NormalizeType(typ)
}

// NormalizeType canonicalizes a provider type string for comparison.
// Type matching is case-insensitive throughout the registry.
func NormalizeType(typ string) string {
	return strings.ToLower(strings.TrimSpace(typ))
}

// --- Context keys ---

type contextKey int

const ctxKeyRequestID contextKey = 0

// RequestIDFromContext extracts the request ID from context, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

// ContextWithRequestID returns a context carrying the given request ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

// --- Shared helpers ---

// HashKey returns the hex-encoded SHA-256 hash of a raw secret, used for
// constant-size comparison of admin tokens and cache keys.
func HashKey(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}
