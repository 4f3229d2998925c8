package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	warden "github.com/wardenio/warden/internal"
)

// UpsertVector inserts or replaces a vector entry keyed by (namespace, id).
// Embeddings are stored as JSON arrays; similarity scoring happens in the
// vector-store provider, not in SQL.
func (s *Store) UpsertVector(ctx context.Context, e warden.VectorEntry) error {
	embedding, err := json.Marshal(e.Embedding)
	if err != nil {
		return fmt.Errorf("marshal embedding: %w", err)
	}

	var expiresAt sql.NullString
	if e.ExpiresAt != nil {
		expiresAt = sql.NullString{String: e.ExpiresAt.UTC().Format(time.RFC3339), Valid: true}
	}
	var payload sql.NullString
	if len(e.Payload) > 0 {
		payload = sql.NullString{String: string(e.Payload), Valid: true}
	}

	_, err = s.write.ExecContext(ctx,
		`INSERT INTO vectors (namespace, id, embedding, payload, expires_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(namespace, id) DO UPDATE SET
		 embedding = excluded.embedding,
		 payload = excluded.payload,
		 expires_at = excluded.expires_at`,
		e.Namespace, e.ID, string(embedding), payload, expiresAt,
	)
	return err
}

// ListVectors returns all live entries in a namespace. Entries past their
// expiry are excluded.
func (s *Store) ListVectors(ctx context.Context, namespace string) ([]warden.VectorEntry, error) {
	rows, err := s.read.QueryContext(ctx,
		`SELECT namespace, id, embedding, payload, expires_at
		 FROM vectors
		 WHERE namespace = ? AND (expires_at IS NULL OR expires_at > ?)`,
		namespace, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []warden.VectorEntry
	for rows.Next() {
		var e warden.VectorEntry
		var embedding string
		var payload, expiresAt sql.NullString
		if err := rows.Scan(&e.Namespace, &e.ID, &embedding, &payload, &expiresAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(embedding), &e.Embedding); err != nil {
			return nil, fmt.Errorf("unmarshal embedding: %w", err)
		}
		if payload.Valid {
			e.Payload = json.RawMessage(payload.String)
		}
		if expiresAt.Valid {
			if t, perr := time.Parse(time.RFC3339, expiresAt.String); perr == nil {
				e.ExpiresAt = &t
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteExpiredVectors removes entries past their expiry.
func (s *Store) DeleteExpiredVectors(ctx context.Context, now time.Time) (int, error) {
	result, err := s.write.ExecContext(ctx,
		`DELETE FROM vectors WHERE expires_at IS NOT NULL AND expires_at <= ?`,
		now.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}
