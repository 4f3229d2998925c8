package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	warden "github.com/wardenio/warden/internal"
)

// CreateProviderConfig inserts a new provider configuration.
func (s *Store) CreateProviderConfig(ctx context.Context, p *warden.ProviderConfig) error {
	_, err := s.write.ExecContext(ctx,
		`INSERT INTO provider_configs (id, category, type, base_url, enabled, timeout_ms, hosting, model, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, string(p.Category), warden.NormalizeType(p.Type), p.BaseURL,
		boolToInt(p.Enabled), p.TimeoutMs, p.Hosting, p.Model,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetProviderConfig retrieves a provider configuration by ID.
func (s *Store) GetProviderConfig(ctx context.Context, id string) (*warden.ProviderConfig, error) {
	row := s.read.QueryRowContext(ctx,
		`SELECT id, category, type, base_url, enabled, timeout_ms, hosting, model
		 FROM provider_configs WHERE id=?`, id,
	)
	return scanProviderConfig(row)
}

// ListProviderConfigs returns all provider configurations ordered by ID.
func (s *Store) ListProviderConfigs(ctx context.Context) ([]*warden.ProviderConfig, error) {
	rows, err := s.read.QueryContext(ctx,
		`SELECT id, category, type, base_url, enabled, timeout_ms, hosting, model
		 FROM provider_configs ORDER BY id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []*warden.ProviderConfig
	for rows.Next() {
		p, err := scanProviderConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, p)
	}
	return configs, rows.Err()
}

// UpdateProviderConfig updates a provider configuration.
func (s *Store) UpdateProviderConfig(ctx context.Context, p *warden.ProviderConfig) error {
	result, err := s.write.ExecContext(ctx,
		`UPDATE provider_configs SET base_url=?, enabled=?, timeout_ms=?, hosting=?, model=? WHERE id=?`,
		p.BaseURL, boolToInt(p.Enabled), p.TimeoutMs, p.Hosting, p.Model, p.ID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(result, "provider config")
}

// DeleteProviderConfig removes a provider configuration.
func (s *Store) DeleteProviderConfig(ctx context.Context, id string) error {
	result, err := s.write.ExecContext(ctx, `DELETE FROM provider_configs WHERE id=?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(result, "provider config")
}

func scanProviderConfig(sc scanner) (*warden.ProviderConfig, error) {
	var p warden.ProviderConfig
	var category string
	var enabled int

	err := sc.Scan(&p.ID, &category, &p.Type, &p.BaseURL, &enabled, &p.TimeoutMs, &p.Hosting, &p.Model)
	if err != nil {
		return nil, notFoundErr(err)
	}
	p.Category = warden.Category(category)
	p.Enabled = enabled != 0
	return &p, nil
}

// helpers

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// notFoundErr translates sql.ErrNoRows to warden.ErrNotFound.
func notFoundErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return warden.ErrNotFound
	}
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func checkRowsAffected(result sql.Result, entity string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", entity, warden.ErrNotFound)
	}
	return nil
}
