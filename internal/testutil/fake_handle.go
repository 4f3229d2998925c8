// Package testutil provides configurable test fakes for warden interfaces.
package testutil

import (
	"context"
	"sync/atomic"

	warden "github.com/wardenio/warden/internal"
)

// FakeHandle is a configurable warden.Handle for registry and lifecycle tests.
// Identity comparisons in the registry rely on pointer equality, so each
// &FakeHandle{} is a distinct provider instance.
type FakeHandle struct {
	Cat      warden.Category
	Typ      string
	HealthFn func(ctx context.Context) error
}

// Category returns the configured category.
func (f *FakeHandle) Category() warden.Category { return f.Cat }

// Type returns the configured type string.
func (f *FakeHandle) Type() string { return f.Typ }

// HealthCheck delegates to HealthFn or reports healthy.
func (f *FakeHandle) HealthCheck(ctx context.Context) error {
	if f.HealthFn != nil {
		return f.HealthFn(ctx)
	}
	return nil
}

// FakeContentSafety is a configurable warden.ContentSafety provider.
type FakeContentSafety struct {
	FakeHandle
	AnalyzeFn func(ctx context.Context, text string) (*warden.SafetyVerdict, error)
	Calls     atomic.Int64
}

// Analyze delegates to AnalyzeFn or returns a clean verdict.
func (f *FakeContentSafety) Analyze(ctx context.Context, text string) (*warden.SafetyVerdict, error) {
	f.Calls.Add(1)
	if f.AnalyzeFn != nil {
		return f.AnalyzeFn(ctx, text)
	}
	return &warden.SafetyVerdict{Flagged: false}, nil
}

// FakeEmbedder is a configurable warden.Embedder provider.
type FakeEmbedder struct {
	FakeHandle
	EmbedFn func(ctx context.Context, input string) ([]float32, error)
}

// Embed delegates to EmbedFn or returns a fixed unit vector.
func (f *FakeEmbedder) Embed(ctx context.Context, input string) ([]float32, error) {
	if f.EmbedFn != nil {
		return f.EmbedFn(ctx, input)
	}
	return []float32{1, 0, 0}, nil
}
