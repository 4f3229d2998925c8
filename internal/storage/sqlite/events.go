package sqlite

import (
	"context"
	"strings"
	"time"

	warden "github.com/wardenio/warden/internal"
	"github.com/wardenio/warden/internal/storage"
)

// InsertBindEvents batch-inserts lifecycle audit records.
func (s *Store) InsertBindEvents(ctx context.Context, events []warden.BindEvent) error {
	if len(events) == 0 {
		return nil
	}

	// Single multi-row INSERT avoids N round-trips for large batches.
	placeholders := make([]string, len(events))
	args := make([]any, 0, len(events)*6)

	for i, e := range events {
		placeholders[i] = "(?, ?, ?, ?, ?, ?)"
		args = append(args,
			e.ID, e.Category, e.Type, string(e.Action), e.Detail,
			e.CreatedAt.UTC().Format(time.RFC3339),
		)
	}

	query := `INSERT INTO bind_events (id, category, type, action, detail, created_at)
		VALUES ` + strings.Join(placeholders, ", ")

	_, err := s.write.ExecContext(ctx, query, args...)
	return err
}

// ListBindEvents returns audit records matching the filter, newest first.
func (s *Store) ListBindEvents(ctx context.Context, f storage.BindEventFilter) ([]warden.BindEvent, error) {
	where, args := bindEventWhere(f)
	query := `SELECT id, category, type, action, detail, created_at
		FROM bind_events` + where + ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, f.Offset)

	rows, err := s.read.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []warden.BindEvent
	for rows.Next() {
		var e warden.BindEvent
		var action, createdAt string
		if err := rows.Scan(&e.ID, &e.Category, &e.Type, &action, &e.Detail, &createdAt); err != nil {
			return nil, err
		}
		e.Action = warden.BindAction(action)
		if t, perr := time.Parse(time.RFC3339, createdAt); perr == nil {
			e.CreatedAt = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountBindEvents returns the count of audit records matching the filter.
func (s *Store) CountBindEvents(ctx context.Context, f storage.BindEventFilter) (int, error) {
	where, args := bindEventWhere(f)
	var n int
	err := s.read.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bind_events`+where, args...,
	).Scan(&n)
	return n, err
}

// DeleteBindEventsBefore removes audit records older than cutoff.
func (s *Store) DeleteBindEventsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := s.write.ExecContext(ctx,
		`DELETE FROM bind_events WHERE created_at < ?`,
		cutoff.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}

func bindEventWhere(f storage.BindEventFilter) (string, []any) {
	var clauses []string
	var args []any
	if f.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, f.Category)
	}
	if f.Action != "" {
		clauses = append(clauses, "action = ?")
		args = append(args, f.Action)
	}
	if f.Since != "" {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, f.Since)
	}
	if f.Until != "" {
		clauses = append(clauses, "created_at < ?")
		args = append(args, f.Until)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
