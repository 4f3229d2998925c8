// Package cache provides verdict caching for content-safety providers.
// Guardrail stages frequently re-analyze identical text (retried requests,
// shared system prompts), so verdicts are cached by input hash.
package cache

import (
	"context"
	"time"

	warden "github.com/wardenio/warden/internal"
)

// VerdictCache caches content-safety verdicts keyed by provider type and
// input-text hash.
type VerdictCache interface {
	// Get retrieves a cached verdict by key.
	Get(ctx context.Context, key string) (*warden.SafetyVerdict, bool)
	// Set stores a verdict with the given TTL.
	Set(ctx context.Context, key string, v *warden.SafetyVerdict, ttl time.Duration)
	// Purge removes all cached verdicts.
	Purge(ctx context.Context)
}

// Key derives the cache key for a provider type and input text. The text is
// hashed so keys stay bounded and prompts never sit in cache memory.
func Key(providerType, text string) string {
	return warden.NormalizeType(providerType) + ":" + warden.HashKey(text)
}
