// Package config provides configuration loading and database bootstrapping.
package config

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"

	warden "github.com/wardenio/warden/internal"
	"github.com/wardenio/warden/internal/storage"
)

const adminKeyPrefix = "wdn_"

// Bootstrap seeds provider configurations from the config file on first
// run. Existing rows are left untouched so admin API edits survive
// restarts. Credentials are never persisted.
func Bootstrap(ctx context.Context, cfg *Config, store storage.ProviderConfigStore) error {
	for _, p := range cfg.Providers {
		category := warden.Category(p.Category)
		pc := &warden.ProviderConfig{
			ID:        warden.ProviderID(category, p.Type),
			Category:  category,
			Type:      warden.NormalizeType(p.Type),
			BaseURL:   p.BaseURL,
			Enabled:   p.IsEnabled(),
			TimeoutMs: max(5000, p.TimeoutMs),
			Hosting:   p.Hosting,
			Model:     p.Model,
		}
		_, err := store.GetProviderConfig(ctx, pc.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, warden.ErrNotFound) {
			return err
		}
		if err := store.CreateProviderConfig(ctx, pc); err != nil {
			return err
		}
		slog.Info("bootstrapped provider config", "id", pc.ID)
	}
	return nil
}

// GenerateAdminKey creates a random admin key and returns the plaintext.
func GenerateAdminKey() string {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		panic("crypto/rand: " + err.Error())
	}
	return adminKeyPrefix + base64.RawURLEncoding.EncodeToString(raw)
}
