package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"researchpub/internal/core"

	sq "github.com/Masterminds/squirrel"
)

// GetLLMResponse returns a cached completion for key
func (s *Store) GetLLMResponse(ctx context.Context, key string) (string, bool, error) {
	var response string
	err := s.sb.Select("response").From("llm_cache").Where(sq.Eq{"key": key}).
		QueryRowContext(ctx).Scan(&response)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read llm cache: %w", err)
	}
	return response, true, nil
}

// PutLLMResponse caches a completion under key
func (s *Store) PutLLMResponse(ctx context.Context, key, model, response string) error {
	_, err := s.sb.Insert("llm_cache").
		Columns("key", "model", "response", "created_at").
		Values(key, model, response, s.now().UTC()).
		Suffix(`ON CONFLICT(key) DO UPDATE SET
			model = excluded.model,
			response = excluded.response,
			created_at = excluded.created_at`).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to write llm cache: %w", err)
	}
	return nil
}

// CacheStats summarizes the LLM response cache
func (s *Store) CacheStats(ctx context.Context) (core.CacheStats, error) {
	var (
		stats          core.CacheStats
		size           sql.NullInt64
		oldest, newest sql.NullString
	)
	err := s.sb.Select("COUNT(*)", "SUM(LENGTH(response))", "MIN(created_at)", "MAX(created_at)").
		From("llm_cache").
		QueryRowContext(ctx).
		Scan(&stats.Entries, &size, &oldest, &newest)
	if err != nil {
		return stats, fmt.Errorf("failed to read cache stats: %w", err)
	}
	stats.SizeBytes = size.Int64
	stats.Oldest = parseTimestamp(oldest)
	stats.Newest = parseTimestamp(newest)
	return stats, nil
}

// ClearCache removes cache entries older than the given age. Zero clears everything.
func (s *Store) ClearCache(ctx context.Context, olderThan time.Duration) (int64, error) {
	q := s.sb.Delete("llm_cache")
	if olderThan > 0 {
		q = q.Where(sq.Lt{"created_at": s.now().UTC().Add(-olderThan)})
	}
	res, err := q.ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", err)
	}
	n, _ := res.RowsAffected()
	s.log.Info().Int64("removed", n).Msg("Cleared LLM cache")
	return n, nil
}

// Aggregates bypass the DATETIME column type, so MIN/MAX arrive as text.
func parseTimestamp(v sql.NullString) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999",
		time.RFC3339Nano,
	} {
		if t, err := time.Parse(layout, v.String); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
