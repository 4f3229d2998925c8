package config

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	warden "github.com/wardenio/warden/internal"
	"github.com/wardenio/warden/internal/storage/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(filepath.Join(t.TempDir(), "warden.db"))
	if err != nil {
		t.Fatalf("sqlite.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBootstrapSeedsProviders(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	cfg := &Config{
		Providers: []ProviderEntry{
			{Category: "content-safety", Type: "Azure", BaseURL: "https://example.com", APIKey: "secret"},
			{Category: "vector-store", Type: "memory"},
		},
	}
	if err := Bootstrap(ctx, cfg, store); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	configs, err := store.ListProviderConfigs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(configs) != 2 {
		t.Fatalf("got %d configs, want 2", len(configs))
	}

	got, err := store.GetProviderConfig(ctx, "content-safety/azure")
	if err != nil {
		t.Fatalf("GetProviderConfig: %v", err)
	}
	if got.Type != "azure" {
		t.Errorf("Type = %q, want normalized azure", got.Type)
	}
	if got.TimeoutMs < 5000 {
		t.Errorf("TimeoutMs = %d, want default floor 5000", got.TimeoutMs)
	}
	if !got.Enabled {
		t.Error("provider should default to enabled")
	}
}

func TestBootstrapSkipsExisting(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	existing := &warden.ProviderConfig{
		ID:       "embedding/openai",
		Category: warden.CategoryEmbedding,
		Type:     "openai",
		BaseURL:  "https://edited-by-admin.example.com",
		Enabled:  false,
	}
	if err := store.CreateProviderConfig(ctx, existing); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{
		Providers: []ProviderEntry{
			{Category: "embedding", Type: "openai", BaseURL: "https://from-config.example.com"},
		},
	}
	if err := Bootstrap(ctx, cfg, store); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	got, err := store.GetProviderConfig(ctx, "embedding/openai")
	if err != nil {
		t.Fatal(err)
	}
	// Admin edits win over config file seeds.
	if got.BaseURL != "https://edited-by-admin.example.com" || got.Enabled {
		t.Errorf("existing row overwritten: %+v", got)
	}
}

// brokenStore fails every lookup with a non-not-found error.
type brokenStore struct {
	err error
}

func (b *brokenStore) CreateProviderConfig(context.Context, *warden.ProviderConfig) error {
	return nil
}

func (b *brokenStore) GetProviderConfig(context.Context, string) (*warden.ProviderConfig, error) {
	return nil, b.err
}

func (b *brokenStore) ListProviderConfigs(context.Context) ([]*warden.ProviderConfig, error) {
	return nil, b.err
}

func (b *brokenStore) UpdateProviderConfig(context.Context, *warden.ProviderConfig) error {
	return b.err
}

func (b *brokenStore) DeleteProviderConfig(context.Context, string) error { return b.err }

func TestBootstrapPropagatesStorageErrors(t *testing.T) {
	t.Parallel()

	// A lookup failure that is not "row absent" must abort the seed, not
	// fall through to a duplicate insert.
	dbErr := errors.New("database is locked")
	cfg := &Config{
		Providers: []ProviderEntry{
			{Category: "embedding", Type: "openai"},
		},
	}

	err := Bootstrap(context.Background(), cfg, &brokenStore{err: dbErr})
	if !errors.Is(err, dbErr) {
		t.Fatalf("Bootstrap error = %v, want %v", err, dbErr)
	}
}

func TestGenerateAdminKey(t *testing.T) {
	t.Parallel()

	k1 := GenerateAdminKey()
	k2 := GenerateAdminKey()
	if !strings.HasPrefix(k1, adminKeyPrefix) {
		t.Errorf("key %q missing prefix %q", k1, adminKeyPrefix)
	}
	if k1 == k2 {
		t.Error("generated keys should be unique")
	}
}
