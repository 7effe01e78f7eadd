package store

import (
	"context"
	"fmt"

	"researchpub/internal/core"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// RecordRun appends a pipeline run to the history
func (s *Store) RecordRun(ctx context.Context, r *core.Run) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	_, err := s.sb.Insert("runs").
		Columns("id", "kind", "started_at", "finished_at", "processed", "succeeded", "failed", "notes").
		Values(r.ID, r.Kind, r.StartedAt.UTC(), r.FinishedAt.UTC(), r.Processed, r.Succeeded, r.Failed, r.Notes).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, optionally of one kind
func (s *Store) ListRuns(ctx context.Context, kind string, limit int) ([]*core.Run, error) {
	q := s.sb.Select("id", "kind", "started_at", "finished_at", "processed", "succeeded", "failed", "notes").
		From("runs").
		OrderBy("started_at DESC")
	if kind != "" {
		q = q.Where(sq.Eq{"kind": kind})
	}
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*core.Run
	for rows.Next() {
		var r core.Run
		if err := rows.Scan(&r.ID, &r.Kind, &r.StartedAt, &r.FinishedAt, &r.Processed, &r.Succeeded, &r.Failed, &r.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}
