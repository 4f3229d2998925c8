// Package config handles YAML configuration loading with environment variable expansion.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"go.yaml.in/yaml/v3"

	warden "github.com/wardenio/warden/internal"
)

// Config is the top-level registry service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Cache     CacheConfig     `yaml:"cache"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Registry  RegistryConfig  `yaml:"registry"`
	Workers   WorkersConfig   `yaml:"workers"`
	Providers []ProviderEntry `yaml:"providers"`
}

// TelemetryConfig holds observability settings.
type TelemetryConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// TracingConfig controls OpenTelemetry tracing.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Endpoint   string  `yaml:"endpoint"`    // OTLP gRPC endpoint
	SampleRate float64 `yaml:"sample_rate"` // 0.0 to 1.0
}

// CacheConfig holds verdict cache settings.
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	MaxSize    int           `yaml:"max_size"`
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"` // file path or ":memory:"
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	AdminKey string `yaml:"admin_key"` // admin API key (hashed on load)
}

// RegistryConfig holds registry tuning.
type RegistryConfig struct {
	// Cardinalities overrides the compiled-in per-category cardinality
	// ("multi" or "single").
	Cardinalities map[string]string `yaml:"cardinalities"`
}

// ParsedCardinalities converts the override map to domain types.
func (r RegistryConfig) ParsedCardinalities() map[warden.Category]warden.Cardinality {
	if len(r.Cardinalities) == 0 {
		return nil
	}
	out := make(map[warden.Category]warden.Cardinality, len(r.Cardinalities))
	for cat, card := range r.Cardinalities {
		out[warden.Category(cat)] = warden.Cardinality(card)
	}
	return out
}

// WorkersConfig holds background worker intervals.
type WorkersConfig struct {
	ProbeInterval  time.Duration `yaml:"probe_interval"`
	ProbeTimeout   time.Duration `yaml:"probe_timeout"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
	EventRetention time.Duration `yaml:"event_retention"`
}

// ProviderEntry is a provider definition in the config file.
type ProviderEntry struct {
	Category  string     `yaml:"category"` // "content-safety", "embedding", "vector-store"
	Type      string     `yaml:"type"`
	BaseURL   string     `yaml:"base_url"`
	APIKey    string     `yaml:"api_key"`
	Enabled   *bool      `yaml:"enabled"`
	TimeoutMs int        `yaml:"timeout_ms"`
	Hosting   string     `yaml:"hosting"`   // "", "azure", "vertex", "bedrock"
	Model     string     `yaml:"model"`     // embedding model / moderation model
	Threshold float64    `yaml:"threshold"` // content-safety severity threshold
	MaxSize   int        `yaml:"max_size"`  // memory vector store capacity
	Auth      *AuthEntry `yaml:"auth"`      // explicit auth; inferred from hosting when absent
}

// AuthEntry configures provider authentication.
type AuthEntry struct {
	Type    string `yaml:"type"`    // "api_key", "gcp_oauth", "aws_sigv4"
	APIKey  string `yaml:"api_key"` // explicit key (overrides top-level api_key)
	Header  string `yaml:"header"`  // header name for api_key auth
	Prefix  string `yaml:"prefix"`  // value prefix for api_key auth (e.g. "Bearer ")
	Region  string `yaml:"region"`  // AWS region for aws_sigv4
	Service string `yaml:"service"` // AWS service for aws_sigv4
}

// IsEnabled reports whether the provider is enabled (defaults to true when nil).
func (p ProviderEntry) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// ResolvedAuthType returns the auth type, inferring from hosting when Auth
// is nil: "gcp_oauth" for Vertex, "aws_sigv4" for Bedrock, "api_key"
// otherwise.
func (p ProviderEntry) ResolvedAuthType() string {
	if p.Auth != nil && p.Auth.Type != "" {
		return p.Auth.Type
	}
	switch p.Hosting {
	case "vertex":
		return "gcp_oauth"
	case "bedrock":
		return "aws_sigv4"
	default:
		return "api_key"
	}
}

// ResolvedAPIKey returns the API key, preferring Auth.APIKey over the
// top-level APIKey.
func (p ProviderEntry) ResolvedAPIKey() string {
	if p.Auth != nil && p.Auth.APIKey != "" {
		return p.Auth.APIKey
	}
	return p.APIKey
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnv replaces ${VAR} patterns with environment variable values.
func expandEnv(data []byte) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		varName := string(match[2 : len(match)-1])
		if val, ok := os.LookupEnv(varName); ok {
			return []byte(val)
		}
		return match
	})
}

// Load reads and parses a YAML config file, expanding environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	data = expandEnv(data)

	cfg := &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			DSN: "warden.db",
		},
		Cache: CacheConfig{
			Enabled:    true,
			MaxSize:    10_000,
			DefaultTTL: 5 * time.Minute,
		},
		Workers: WorkersConfig{
			ProbeInterval:  30 * time.Second,
			ProbeTimeout:   5 * time.Second,
			SweepInterval:  time.Hour,
			EventRetention: 30 * 24 * time.Hour,
		},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
