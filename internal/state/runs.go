package state

import (
	"context"
	"fmt"
	"time"
)

// Run is a persisted run summary.
type Run struct {
	RunID            string    `json:"run_id"`
	Source           string    `json:"source"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
	DryRun           bool      `json:"dry_run"`
	Candidates       int       `json:"candidates"`
	Written          int       `json:"written"`
	Skipped          int       `json:"skipped"`
	Partial          int       `json:"partial"`
	Failed           int       `json:"failed"`
	Bytes            int64     `json:"bytes"`
	CatalogDegraded  bool      `json:"catalog_degraded"`
	ExistingDegraded bool      `json:"existing_degraded"`
}

// RecordRun stores a finished run.
func (s *Store) RecordRun(ctx context.Context, r Run) error {
	err := s.execWithRetry(ctx, `INSERT OR REPLACE INTO runs (
    run_id, source, started_at, finished_at, dry_run, candidates, written, skipped,
    partial, failed, bytes, catalog_degraded, existing_degraded
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Source,
		r.StartedAt.UTC().Format(time.RFC3339Nano), r.FinishedAt.UTC().Format(time.RFC3339Nano),
		boolToInt(r.DryRun), r.Candidates, r.Written, r.Skipped, r.Partial, r.Failed, r.Bytes,
		boolToInt(r.CatalogDegraded), boolToInt(r.ExistingDegraded),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", r.RunID, err)
	}
	return nil
}

// Runs returns recent runs, newest first. An empty source lists all sources.
func (s *Store) Runs(ctx context.Context, source string, limit int) ([]Run, error) {
	query := `SELECT run_id, source, started_at, finished_at, dry_run, candidates, written,
    skipped, partial, failed, bytes, catalog_degraded, existing_degraded FROM runs`
	var args []any
	if source != "" {
		query += " WHERE source = ?"
		args = append(args, source)
	}
	query += " ORDER BY started_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r                       Run
			started, finished       string
			dry, catDegr, existDegr int
		)
		if err := rows.Scan(&r.RunID, &r.Source, &started, &finished, &dry, &r.Candidates,
			&r.Written, &r.Skipped, &r.Partial, &r.Failed, &r.Bytes, &catDegr, &existDegr); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		r.DryRun = dry != 0
		r.CatalogDegraded = catDegr != 0
		r.ExistingDegraded = existDegr != 0
		out = append(out, r)
	}
	return out, rows.Err()
}
