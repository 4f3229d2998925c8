package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/maypok86/otter/v2"

	warden "github.com/wardenio/warden/internal"
)

// entry wraps a cached verdict with its expiration time. Verdicts are
// stored by value so a cached copy can never be mutated by callers.
type entry struct {
	verdict   warden.SafetyVerdict
	expiresAt time.Time
}

// Memory is an in-memory W-TinyLFU verdict cache backed by otter.
type Memory struct {
	cache *otter.Cache[string, entry]
}

// NewMemory creates an in-memory verdict cache with the given max entry
// count and default TTL.
func NewMemory(maxSize int, defaultTTL time.Duration) (*Memory, error) {
	c, err := otter.New[string, entry](&otter.Options[string, entry]{
		MaximumSize:      maxSize,
		ExpiryCalculator: otter.ExpiryWriting[string, entry](defaultTTL),
	})
	if err != nil {
		return nil, fmt.Errorf("create verdict cache: %w", err)
	}
	return &Memory{cache: c}, nil
}

// Get retrieves a verdict from the cache if present and not expired.
func (m *Memory) Get(_ context.Context, key string) (*warden.SafetyVerdict, bool) {
	e, ok := m.cache.GetIfPresent(key)
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		m.cache.Invalidate(key)
		return nil, false
	}
	v := e.verdict
	return &v, true
}

// Set stores a verdict with per-entry TTL.
func (m *Memory) Set(_ context.Context, key string, v *warden.SafetyVerdict, ttl time.Duration) {
	if v == nil {
		return
	}
	m.cache.Set(key, entry{
		verdict:   *v,
		expiresAt: time.Now().Add(ttl),
	})
}

// Purge removes all verdicts from the cache.
func (m *Memory) Purge(_ context.Context) {
	m.cache.InvalidateAll()
}
