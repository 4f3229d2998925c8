package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	warden "github.com/wardenio/warden/internal"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "warden.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, "{}"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Database.DSN != "warden.db" {
		t.Errorf("DSN = %q, want warden.db", cfg.Database.DSN)
	}
	if !cfg.Cache.Enabled || cfg.Cache.MaxSize != 10_000 || cfg.Cache.DefaultTTL != 5*time.Minute {
		t.Errorf("cache defaults = %+v", cfg.Cache)
	}
	if cfg.Workers.ProbeInterval != 30*time.Second || cfg.Workers.EventRetention != 30*24*time.Hour {
		t.Errorf("worker defaults = %+v", cfg.Workers)
	}
}

func TestLoadProviders(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, `
server:
  addr: ":9090"
providers:
  - category: content-safety
    type: azure
    base_url: https://example.cognitiveservices.azure.com
    api_key: secret
    threshold: 4
  - category: embedding
    type: openai
    model: text-embedding-3-small
    enabled: false
  - category: vector-store
    type: memory
    max_size: 500
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Addr = %q, want :9090", cfg.Server.Addr)
	}
	if len(cfg.Providers) != 3 {
		t.Fatalf("got %d providers, want 3", len(cfg.Providers))
	}
	if cfg.Providers[0].Threshold != 4 {
		t.Errorf("threshold = %v, want 4", cfg.Providers[0].Threshold)
	}
	if !cfg.Providers[0].IsEnabled() {
		t.Error("provider without enabled field should default to enabled")
	}
	if cfg.Providers[1].IsEnabled() {
		t.Error("enabled: false should disable the provider")
	}
	if cfg.Providers[2].MaxSize != 500 {
		t.Errorf("max_size = %d, want 500", cfg.Providers[2].MaxSize)
	}
}

func TestLoadEnvExpansion(t *testing.T) {
	t.Setenv("WARDEN_TEST_KEY", "expanded-secret")

	cfg, err := Load(writeConfig(t, `
providers:
  - category: embedding
    type: openai
    api_key: ${WARDEN_TEST_KEY}
  - category: content-safety
    type: azure
    api_key: ${WARDEN_TEST_MISSING}
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Providers[0].APIKey; got != "expanded-secret" {
		t.Errorf("api_key = %q, want expanded-secret", got)
	}
	// Unset variables are left as-is.
	if got := cfg.Providers[1].APIKey; got != "${WARDEN_TEST_MISSING}" {
		t.Errorf("api_key = %q, want unexpanded placeholder", got)
	}
}

func TestResolvedAuthType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		entry ProviderEntry
		want  string
	}{
		{"default", ProviderEntry{}, "api_key"},
		{"vertex hosting", ProviderEntry{Hosting: "vertex"}, "gcp_oauth"},
		{"bedrock hosting", ProviderEntry{Hosting: "bedrock"}, "aws_sigv4"},
		{"explicit overrides hosting", ProviderEntry{Hosting: "vertex", Auth: &AuthEntry{Type: "api_key"}}, "api_key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.entry.ResolvedAuthType(); got != tt.want {
				t.Errorf("ResolvedAuthType = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolvedAPIKey(t *testing.T) {
	t.Parallel()

	p := ProviderEntry{APIKey: "top", Auth: &AuthEntry{APIKey: "nested"}}
	if got := p.ResolvedAPIKey(); got != "nested" {
		t.Errorf("ResolvedAPIKey = %q, want nested", got)
	}
	p.Auth = nil
	if got := p.ResolvedAPIKey(); got != "top" {
		t.Errorf("ResolvedAPIKey = %q, want top", got)
	}
}

func TestParsedCardinalities(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, `
registry:
  cardinalities:
    embedding: single
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := cfg.Registry.ParsedCardinalities()
	if got[warden.CategoryEmbedding] != warden.CardinalitySingle {
		t.Errorf("embedding cardinality = %q, want single", got[warden.CategoryEmbedding])
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
