package state

import (
	"context"
	"fmt"
	"time"

	"cardsync/internal/existing"
	"cardsync/internal/ident"
	"cardsync/internal/keys"
	"cardsync/internal/registry"
)

// Artifact is one landed object recorded in the ledger.
type Artifact struct {
	Target      ident.TargetID `json:"target_id"`
	Source      string         `json:"source"`
	Key         string         `json:"key"`
	ContentType string         `json:"content_type"`
	Bytes       int64          `json:"bytes"`
	SourceID    int64          `json:"source_id"`
	GroupID     int64          `json:"group_id"`
	CardNumber  string         `json:"card_number"`
	Language    string         `json:"language,omitempty"`
	RunID       string         `json:"run_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ListOptions filters List.
type ListOptions struct {
	Source string
	Limit  int
}

const upsertArtifactSQL = `INSERT INTO artifacts (
    target_id, source, object_key, content_type, bytes, source_id, group_id,
    card_number, language, run_id, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(target_id) DO UPDATE SET
    source = excluded.source,
    object_key = excluded.object_key,
    content_type = excluded.content_type,
    bytes = excluded.bytes,
    source_id = excluded.source_id,
    group_id = excluded.group_id,
    card_number = excluded.card_number,
    language = excluded.language,
    run_id = excluded.run_id,
    updated_at = excluded.updated_at`

// Upsert records a landed artifact. It implements registry.Registrar.
func (s *Store) Upsert(ctx context.Context, rec registry.Record) error {
	now := s.timestamp()
	err := s.execWithRetry(ctx, upsertArtifactSQL,
		int64(rec.Target), rec.Source, rec.Key, rec.ContentType, rec.Bytes,
		rec.SourceID, rec.GroupID, rec.CardNumber, rec.Language, rec.RunID,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("record artifact %d: %w", rec.Target, err)
	}
	return nil
}

// ListExisting pages recorded object keys matching the query pattern. It
// implements existing.Index.
func (s *Store) ListExisting(ctx context.Context, q existing.Query) ([]string, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT object_key FROM artifacts WHERE object_key LIKE ? ORDER BY object_key LIMIT ? OFFSET ?",
		keys.LikePattern(q.Pattern), limit, q.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return names, fmt.Errorf("scan artifact key: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return names, fmt.Errorf("iterate artifacts: %w", err)
	}
	return names, nil
}

// List returns recorded artifacts, most recently updated first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Artifact, error) {
	query := `SELECT target_id, source, object_key, content_type, bytes, source_id, group_id,
    card_number, language, run_id, created_at, updated_at FROM artifacts`
	var args []any
	if opts.Source != "" {
		query += " WHERE source = ?"
		args = append(args, opts.Source)
	}
	query += " ORDER BY updated_at DESC, target_id DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var out []Artifact
	for rows.Next() {
		var (
			a       Artifact
			target  int64
			created string
			updated string
		)
		if err := rows.Scan(&target, &a.Source, &a.Key, &a.ContentType, &a.Bytes, &a.SourceID,
			&a.GroupID, &a.CardNumber, &a.Language, &a.RunID, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		a.Target = ident.TargetID(target)
		a.CreatedAt = parseTime(created)
		a.UpdatedAt = parseTime(updated)
		out = append(out, a)
	}
	return out, rows.Err()
}

// Count returns the number of recorded artifacts for source, or all when
// source is empty.
func (s *Store) Count(ctx context.Context, source string) (int, error) {
	query := "SELECT COUNT(1) FROM artifacts"
	var args []any
	if source != "" {
		query += " WHERE source = ?"
		args = append(args, source)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count artifacts: %w", err)
	}
	return n, nil
}
