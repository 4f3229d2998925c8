package provider

import (
	"context"
	"time"

	warden "github.com/wardenio/warden/internal"
	"github.com/wardenio/warden/internal/cache"
	"github.com/wardenio/warden/internal/telemetry"
)

// CachedContentSafety wraps a content-safety provider with a verdict cache.
// Verdicts are keyed by provider type and input hash, so two providers of
// different types never share entries.
type CachedContentSafety struct {
	warden.ContentSafety

	cache   cache.VerdictCache
	ttl     time.Duration
	metrics *telemetry.Metrics // optional
}

// NewCachedContentSafety wraps inner with the given cache and TTL.
// metrics may be nil.
func NewCachedContentSafety(inner warden.ContentSafety, c cache.VerdictCache, ttl time.Duration, metrics *telemetry.Metrics) *CachedContentSafety {
	return &CachedContentSafety{
		ContentSafety: inner,
		cache:         c,
		ttl:           ttl,
		metrics:       metrics,
	}
}

// Analyze returns the cached verdict when present, otherwise delegates to
// the wrapped provider and caches the result. Errors are never cached.
func (p *CachedContentSafety) Analyze(ctx context.Context, text string) (*warden.SafetyVerdict, error) {
	key := cache.Key(p.Type(), text)
	if v, ok := p.cache.Get(ctx, key); ok {
		if p.metrics != nil {
			p.metrics.VerdictCacheHits.Inc()
		}
		return v, nil
	}
	if p.metrics != nil {
		p.metrics.VerdictCacheMisses.Inc()
	}

	v, err := p.ContentSafety.Analyze(ctx, text)
	if err != nil {
		return nil, err
	}
	p.cache.Set(ctx, key, v, p.ttl)
	return v, nil
}
