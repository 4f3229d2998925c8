package cache

import (
	"context"
	"testing"
	"time"

	warden "github.com/wardenio/warden/internal"
)

func TestMemoryGetSet(t *testing.T) {
	t.Parallel()

	m, err := NewMemory(100, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	key := Key("azure", "some prompt text")
	if _, ok := m.Get(ctx, key); ok {
		t.Fatal("unexpected hit on empty cache")
	}

	verdict := &warden.SafetyVerdict{Flagged: true, Scores: map[string]float64{"Hate": 4}}
	m.Set(ctx, key, verdict, time.Minute)

	got, ok := m.Get(ctx, key)
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if !got.Flagged || got.Scores["Hate"] != 4 {
		t.Errorf("verdict = %+v, want flagged with Hate=4", got)
	}

	// Cached copies are independent of caller mutation.
	got.Scores["Hate"] = 0
	again, _ := m.Get(ctx, key)
	if again.Flagged != true {
		t.Error("cached verdict mutated through returned copy")
	}
}

func TestMemoryExpiry(t *testing.T) {
	t.Parallel()

	m, err := NewMemory(100, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	m.Set(ctx, "k", &warden.SafetyVerdict{}, -time.Second)
	if _, ok := m.Get(ctx, "k"); ok {
		t.Error("expired entry returned")
	}
}

func TestMemoryPurge(t *testing.T) {
	t.Parallel()

	m, err := NewMemory(100, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	m.Set(ctx, "a", &warden.SafetyVerdict{}, time.Minute)
	m.Set(ctx, "b", &warden.SafetyVerdict{}, time.Minute)
	m.Purge(ctx)

	if _, ok := m.Get(ctx, "a"); ok {
		t.Error("entry survived purge")
	}
}

func TestKeyIsCaseInsensitiveOnType(t *testing.T) {
	t.Parallel()

	if Key("Azure", "text") != Key("azure", "text") {
		t.Error("cache key should normalize provider type casing")
	}
	if Key("azure", "a") == Key("azure", "b") {
		t.Error("different inputs must produce different keys")
	}
}
