// Package registry implements the provider registry: a process-wide table
// mapping provider categories to bound provider implementations, keyed by
// type string.
package registry

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	warden "github.com/wardenio/warden/internal"
)

// entry pairs a bound handle with the type string it was registered under.
// The key is the normalized form; the original casing is kept for listings.
type entry struct {
	typ    string
	handle warden.Handle
}

// table holds all bindings for one category behind its own lock, so writes
// to different categories never contend.
type table struct {
	mu          sync.RWMutex
	cardinality warden.Cardinality
	entries     map[string]entry
}

// Registry maps (category, type) pairs to provider handles. It is safe for
// concurrent use: readers see either the pre- or post-mutation state of any
// write, never an interleaving. The registry holds non-owning references --
// it never initializes or tears down the providers behind its handles.
type Registry struct {
	// tables is immutable after New; per-category locks live inside.
	tables map[warden.Category]*table
}

// New returns a Registry for the given categories. Categories absent from
// cardinalities get their compiled-in default. The category set is fixed
// for the life of the registry.
func New(cardinalities map[warden.Category]warden.Cardinality) *Registry {
	tables := make(map[warden.Category]*table, len(warden.DefaultCardinalities))
	for cat, card := range warden.DefaultCardinalities {
		if c, ok := cardinalities[cat]; ok {
			card = c
		}
		tables[cat] = &table{
			cardinality: card,
			entries:     make(map[string]entry),
		}
	}
	return &Registry{tables: tables}
}

// Register binds handle under (category, typ), replacing any prior binding
// for the same pair (last write wins). For single-cardinality categories the
// new handle displaces whatever occupied the slot, regardless of type.
// It returns the displaced handle, if any. The only failure modes are an
// empty type string and an unknown category; both reject this registration
// attempt without affecting other entries.
func (r *Registry) Register(category warden.Category, typ string, handle warden.Handle) (warden.Handle, error) {
	key := warden.NormalizeType(typ)
	if key == "" {
		return nil, fmt.Errorf("register %s: %w", category, warden.ErrInvalidProviderType)
	}
	t, ok := r.tables[category]
	if !ok {
		return nil, fmt.Errorf("register %q: %w", category, warden.ErrUnknownCategory)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var prev warden.Handle
	if t.cardinality == warden.CardinalitySingle {
		// Single slot: clear whatever is there, even under a different type.
		for k, e := range t.entries {
			prev = e.handle
			delete(t.entries, k)
		}
	} else if e, ok := t.entries[key]; ok {
		prev = e.handle
	}
	t.entries[key] = entry{typ: typ, handle: handle}
	return prev, nil
}

// Unregister removes the binding for (category, typ) only if the stored
// handle is identity-equal to the supplied one. A stale unbind -- the entry
// is absent, holds a different handle, or the category is unknown -- is a
// silent no-op, since it represents an expected race rather than a fault.
// It reports whether an entry was removed.
func (r *Registry) Unregister(category warden.Category, typ string, handle warden.Handle) bool {
	t, ok := r.tables[category]
	if !ok {
		return false
	}
	key := warden.NormalizeType(typ)

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[key]
	if !ok || e.handle != handle {
		return false
	}
	delete(t.entries, key)
	return true
}

// Lookup returns the handle currently bound under (category, typ).
// A miss is reported as warden.ErrProviderUnavailable; translating that
// into a gateway-level mediation error is the caller's responsibility.
func (r *Registry) Lookup(category warden.Category, typ string) (warden.Handle, error) {
	t, ok := r.tables[category]
	if !ok {
		return nil, fmt.Errorf("lookup %q: %w", category, warden.ErrUnknownCategory)
	}
	key := warden.NormalizeType(typ)

	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.cardinality == warden.CardinalitySingle && key == "" {
		// Single-slot categories may be looked up without a type.
		for _, e := range t.entries {
			return e.handle, nil
		}
		return nil, fmt.Errorf("%s: %w", category, warden.ErrProviderUnavailable)
	}
	e, ok := t.entries[key]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", category, key, warden.ErrProviderUnavailable)
	}
	return e.handle, nil
}

// ListByCategory returns a point-in-time snapshot of the type strings bound
// under category, sorted case-insensitively. Unknown categories yield nil.
func (r *Registry) ListByCategory(category warden.Category) []string {
	t, ok := r.tables[category]
	if !ok {
		return nil
	}

	t.mu.RLock()
	types := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		types = append(types, e.typ)
	}
	t.mu.RUnlock()

	slices.SortFunc(types, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	return types
}

// Snapshot returns the bound type strings for every category.
func (r *Registry) Snapshot() map[warden.Category][]string {
	out := make(map[warden.Category][]string, len(r.tables))
	for cat := range r.tables {
		out[cat] = r.ListByCategory(cat)
	}
	return out
}

// Descriptors returns a snapshot of every bound handle with its registered
// category and type. Used by health probing and metrics.
func (r *Registry) Descriptors() []warden.Descriptor {
	var out []warden.Descriptor
	for cat, t := range r.tables {
		t.mu.RLock()
		for _, e := range t.entries {
			out = append(out, warden.Descriptor{Category: cat, Type: e.typ, Handle: e.handle})
		}
		t.mu.RUnlock()
	}
	slices.SortFunc(out, func(a, b warden.Descriptor) int {
		if c := strings.Compare(string(a.Category), string(b.Category)); c != 0 {
			return c
		}
		return strings.Compare(warden.NormalizeType(a.Type), warden.NormalizeType(b.Type))
	})
	return out
}

// Categories returns the category set this registry was built with, sorted.
func (r *Registry) Categories() []warden.Category {
	cats := make([]warden.Category, 0, len(r.tables))
	for cat := range r.tables {
		cats = append(cats, cat)
	}
	slices.Sort(cats)
	return cats
}

// Cardinality reports the configured cardinality for category.
func (r *Registry) Cardinality(category warden.Category) (warden.Cardinality, bool) {
	t, ok := r.tables[category]
	if !ok {
		return "", false
	}
	return t.cardinality, true
}

// Has reports whether category exists in this registry.
func (r *Registry) Has(category warden.Category) bool {
	_, ok := r.tables[category]
	return ok
}
