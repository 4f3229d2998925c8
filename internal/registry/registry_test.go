package registry

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	warden "github.com/wardenio/warden/internal"
	"github.com/wardenio/warden/internal/testutil"
)

func newTestRegistry() *Registry {
	return New(nil) // compiled-in defaults
}

func fakeHandle(cat warden.Category, typ string) *testutil.FakeHandle {
	return &testutil.FakeHandle{Cat: cat, Typ: typ}
}

func TestRegisterAndLookup(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry()
	h := fakeHandle(warden.CategoryContentSafety, "azure")

	if _, err := reg.Register(warden.CategoryContentSafety, "azure", h); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := reg.Lookup(warden.CategoryContentSafety, "azure")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got != warden.Handle(h) {
		t.Error("Lookup returned a different handle")
	}

	_, err = reg.Lookup(warden.CategoryContentSafety, "nonexistent")
	if !errors.Is(err, warden.ErrProviderUnavailable) {
		t.Errorf("miss error = %v, want ErrProviderUnavailable", err)
	}
}

func TestRegisterEmptyType(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry()
	h := fakeHandle(warden.CategoryContentSafety, "")

	for _, typ := range []string{"", "   "} {
		if _, err := reg.Register(warden.CategoryContentSafety, typ, h); !errors.Is(err, warden.ErrInvalidProviderType) {
			t.Errorf("Register(%q) error = %v, want ErrInvalidProviderType", typ, err)
		}
	}
	if got := reg.ListByCategory(warden.CategoryContentSafety); len(got) != 0 {
		t.Errorf("registry not empty after rejected registrations: %v", got)
	}
}

func TestRegisterUnknownCategory(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry()
	h := fakeHandle("bogus", "x")
	if _, err := reg.Register("bogus", "x", h); !errors.Is(err, warden.ErrUnknownCategory) {
		t.Errorf("error = %v, want ErrUnknownCategory", err)
	}
	if _, err := reg.Lookup("bogus", "x"); !errors.Is(err, warden.ErrUnknownCategory) {
		t.Errorf("lookup error = %v, want ErrUnknownCategory", err)
	}
}

func TestCaseInsensitiveTypeMatching(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry()
	h := fakeHandle(warden.CategoryContentSafety, "Azure")
	if _, err := reg.Register(warden.CategoryContentSafety, "Azure", h); err != nil {
		t.Fatal(err)
	}

	got, err := reg.Lookup(warden.CategoryContentSafety, "azure")
	if err != nil {
		t.Fatalf("lower-case lookup: %v", err)
	}
	if got != warden.Handle(h) {
		t.Error("lower-case lookup returned a different handle")
	}
	if _, err := reg.Lookup(warden.CategoryContentSafety, "AZURE"); err != nil {
		t.Errorf("upper-case lookup: %v", err)
	}
}

func TestLastWriteWins(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry()
	h1 := fakeHandle(warden.CategoryContentSafety, "azure")
	h2 := fakeHandle(warden.CategoryContentSafety, "azure")

	if _, err := reg.Register(warden.CategoryContentSafety, "azure", h1); err != nil {
		t.Fatal(err)
	}
	prev, err := reg.Register(warden.CategoryContentSafety, "Azure", h2)
	if err != nil {
		t.Fatal(err)
	}
	if prev != warden.Handle(h1) {
		t.Error("second Register did not report the displaced handle")
	}

	got, err := reg.Lookup(warden.CategoryContentSafety, "azure")
	if err != nil {
		t.Fatal(err)
	}
	if got != warden.Handle(h2) {
		t.Error("Lookup did not return the most recent handle")
	}
	if n := len(reg.ListByCategory(warden.CategoryContentSafety)); n != 1 {
		t.Errorf("entry count = %d, want 1", n)
	}
}

func TestUnregisterIdentityGuard(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry()
	h1 := fakeHandle(warden.CategoryContentSafety, "azure")
	h2 := fakeHandle(warden.CategoryContentSafety, "azure")

	reg.Register(warden.CategoryContentSafety, "azure", h1)
	reg.Register(warden.CategoryContentSafety, "azure", h2)

	// Stale unbind for the displaced handle must not evict the newer bind.
	if removed := reg.Unregister(warden.CategoryContentSafety, "azure", h1); removed {
		t.Error("stale unbind removed a newer binding")
	}
	if _, err := reg.Lookup(warden.CategoryContentSafety, "azure"); err != nil {
		t.Fatalf("handle evicted by stale unbind: %v", err)
	}

	if removed := reg.Unregister(warden.CategoryContentSafety, "azure", h2); !removed {
		t.Error("matching unbind did not remove the binding")
	}
	if _, err := reg.Lookup(warden.CategoryContentSafety, "azure"); !errors.Is(err, warden.ErrProviderUnavailable) {
		t.Errorf("post-unbind lookup error = %v, want ErrProviderUnavailable", err)
	}
}

func TestUnregisterUnknownIsNoop(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry()
	h := fakeHandle(warden.CategoryContentSafety, "azure")
	reg.Register(warden.CategoryContentSafety, "azure", h)

	before := reg.Snapshot()
	if removed := reg.Unregister(warden.CategoryContentSafety, "never-bound", h); removed {
		t.Error("unbind for unknown type reported removal")
	}
	if removed := reg.Unregister("bogus", "azure", h); removed {
		t.Error("unbind for unknown category reported removal")
	}
	after := reg.Snapshot()

	if fmt.Sprint(before) != fmt.Sprint(after) {
		t.Errorf("registry changed by no-op unbind: before=%v after=%v", before, after)
	}
}

func TestSingleCardinalityReplacement(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry()
	a := fakeHandle(warden.CategoryVectorStore, "memory")
	b := fakeHandle(warden.CategoryVectorStore, "sqlite")

	if _, err := reg.Register(warden.CategoryVectorStore, "memory", a); err != nil {
		t.Fatal(err)
	}
	// New bind replaces the slot outright, no type discrimination.
	prev, err := reg.Register(warden.CategoryVectorStore, "sqlite", b)
	if err != nil {
		t.Fatal(err)
	}
	if prev != warden.Handle(a) {
		t.Error("replacement bind did not report the displaced handle")
	}

	types := reg.ListByCategory(warden.CategoryVectorStore)
	if len(types) != 1 || types[0] != "sqlite" {
		t.Errorf("types = %v, want [sqlite]", types)
	}

	// Typeless lookup returns the single occupant.
	got, err := reg.Lookup(warden.CategoryVectorStore, "")
	if err != nil {
		t.Fatal(err)
	}
	if got != warden.Handle(b) {
		t.Error("typeless lookup did not return the active handle")
	}

	// The displaced handle is never observable.
	if _, err := reg.Lookup(warden.CategoryVectorStore, "memory"); !errors.Is(err, warden.ErrProviderUnavailable) {
		t.Errorf("displaced handle still observable: %v", err)
	}
}

func TestListByCategorySorted(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry()
	for _, typ := range []string{"Zeta", "alpha", "Mid"} {
		reg.Register(warden.CategoryContentSafety, typ, fakeHandle(warden.CategoryContentSafety, typ))
	}
	got := reg.ListByCategory(warden.CategoryContentSafety)
	want := []string{"alpha", "Mid", "Zeta"}
	if len(got) != len(want) {
		t.Fatalf("types = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("types = %v, want %v", got, want)
		}
	}
}

func TestConcurrentBindsDistinctTypes(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry()
	var wg sync.WaitGroup
	for _, typ := range []string{"x", "y"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg.Register(warden.CategoryContentSafety, typ, fakeHandle(warden.CategoryContentSafety, typ))
		}()
	}
	wg.Wait()

	got := reg.ListByCategory(warden.CategoryContentSafety)
	if len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Errorf("types = %v, want [x y]", got)
	}
}

// TestConcurrentChurnPerKey hammers distinct keys with register/unregister
// pairs; the final state must equal a per-key serialization: every key ends
// with its last-registered handle still bound.
func TestConcurrentChurnPerKey(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry()
	const keys = 8
	const rounds = 50

	var wg sync.WaitGroup
	finals := make([]*testutil.FakeHandle, keys)
	for i := range keys {
		wg.Add(1)
		go func() {
			defer wg.Done()
			typ := fmt.Sprintf("type-%d", i)
			for range rounds {
				h := fakeHandle(warden.CategoryContentSafety, typ)
				reg.Register(warden.CategoryContentSafety, typ, h)
				reg.Unregister(warden.CategoryContentSafety, typ, h)
			}
			finals[i] = fakeHandle(warden.CategoryContentSafety, typ)
			reg.Register(warden.CategoryContentSafety, typ, finals[i])
		}()
	}
	wg.Wait()

	for i := range keys {
		typ := fmt.Sprintf("type-%d", i)
		got, err := reg.Lookup(warden.CategoryContentSafety, typ)
		if err != nil {
			t.Fatalf("Lookup(%s): %v", typ, err)
		}
		if got != warden.Handle(finals[i]) {
			t.Errorf("key %s holds a non-final handle", typ)
		}
	}
	if n := len(reg.ListByCategory(warden.CategoryContentSafety)); n != keys {
		t.Errorf("entry count = %d, want %d", n, keys)
	}
}

func TestConcurrentReadersDuringWrites(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry()
	h := fakeHandle(warden.CategoryContentSafety, "azure")
	reg.Register(warden.CategoryContentSafety, "azure", h)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 200 {
			next := fakeHandle(warden.CategoryContentSafety, "azure")
			reg.Register(warden.CategoryContentSafety, "azure", next)
		}
	}()

	// Readers must always observe some complete binding, never a torn one.
	for range 200 {
		got, err := reg.Lookup(warden.CategoryContentSafety, "azure")
		if err != nil {
			t.Fatalf("Lookup during writes: %v", err)
		}
		if got == nil {
			t.Fatal("Lookup returned nil handle without error")
		}
	}
	<-done
}

func TestCategoriesAndCardinality(t *testing.T) {
	t.Parallel()

	reg := New(map[warden.Category]warden.Cardinality{
		warden.CategoryVectorStore: warden.CardinalityMulti, // override default
	})

	card, ok := reg.Cardinality(warden.CategoryVectorStore)
	if !ok || card != warden.CardinalityMulti {
		t.Errorf("cardinality = %v/%v, want multi/true", card, ok)
	}
	if !reg.Has(warden.CategoryEmbedding) {
		t.Error("embedding category missing")
	}
	if reg.Has("bogus") {
		t.Error("unknown category reported present")
	}
	if got := len(reg.Categories()); got != len(warden.Categories()) {
		t.Errorf("category count = %d, want %d", got, len(warden.Categories()))
	}
}

func TestDescriptorsSnapshot(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry()
	reg.Register(warden.CategoryContentSafety, "azure", fakeHandle(warden.CategoryContentSafety, "azure"))
	reg.Register(warden.CategoryEmbedding, "openai", fakeHandle(warden.CategoryEmbedding, "openai"))

	descs := reg.Descriptors()
	if len(descs) != 2 {
		t.Fatalf("descriptor count = %d, want 2", len(descs))
	}
	if descs[0].Category != warden.CategoryContentSafety || descs[1].Category != warden.CategoryEmbedding {
		t.Errorf("descriptors not sorted by category: %v", descs)
	}
}
