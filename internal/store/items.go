package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"researchpub/internal/core"

	sq "github.com/Masterminds/squirrel"
)

// ListOptions filters and pages item and draft listings
type ListOptions struct {
	Status string
	Source string
	Format string
	Limit  int
	Offset int
}

// SaveItems upserts ranked items. Existing items keep their status.
func (s *Store) SaveItems(ctx context.Context, items []*core.ContentItem) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now().UTC()
	for _, item := range items {
		payload, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to encode item %s: %w", item.ID, err)
		}
		_, err = sq.Insert("items").
			Columns("id", "source", "title", "url", "score", "status", "payload", "fetched_at", "updated_at").
			Values(item.ID, item.Source, item.Title, item.URL, item.Score, core.ItemStatusRanked, string(payload), item.FetchedAt, now).
			Suffix(`ON CONFLICT(id) DO UPDATE SET
				source = excluded.source,
				title = excluded.title,
				url = excluded.url,
				score = excluded.score,
				payload = excluded.payload,
				fetched_at = excluded.fetched_at,
				updated_at = excluded.updated_at`).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to save item %s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit items: %w", err)
	}
	s.log.Debug().Int("items", len(items)).Msg("Saved items")
	return nil
}

// StoredItem is an item together with its pipeline status
type StoredItem struct {
	Item   *core.ContentItem `json:"item"`
	Status string            `json:"status"`
}

// ListItems returns items ordered by score, highest first
func (s *Store) ListItems(ctx context.Context, opts ListOptions) ([]StoredItem, error) {
	q := s.sb.Select("payload", "status").From("items").OrderBy("score DESC", "id")
	if opts.Status != "" {
		q = q.Where(sq.Eq{"status": opts.Status})
	}
	if opts.Source != "" {
		q = q.Where(sq.Eq{"source": opts.Source})
	}
	q = page(q, opts)

	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []StoredItem
	for rows.Next() {
		var payload, status string
		if err := rows.Scan(&payload, &status); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		var item core.ContentItem
		if err := json.Unmarshal([]byte(payload), &item); err != nil {
			return nil, fmt.Errorf("failed to decode item: %w", err)
		}
		out = append(out, StoredItem{Item: &item, Status: status})
	}
	return out, rows.Err()
}

// GetItem loads one item by ID
func (s *Store) GetItem(ctx context.Context, id string) (StoredItem, error) {
	var payload, status string
	err := s.sb.Select("payload", "status").From("items").Where(sq.Eq{"id": id}).
		QueryRowContext(ctx).Scan(&payload, &status)
	if err != nil {
		return StoredItem{}, notFound(err, "item", id)
	}
	var item core.ContentItem
	if err := json.Unmarshal([]byte(payload), &item); err != nil {
		return StoredItem{}, fmt.Errorf("failed to decode item %s: %w", id, err)
	}
	return StoredItem{Item: &item, Status: status}, nil
}

// SetItemStatus moves an item through ranked, analyzed and skipped
func (s *Store) SetItemStatus(ctx context.Context, id, status string) error {
	res, err := s.sb.Update("items").
		Set("status", status).
		Set("updated_at", s.now().UTC()).
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to update item %s: %w", id, err)
	}
	return requireRow(res, "item", id)
}

// SaveAnalysis stores the latest analysis for an item
func (s *Store) SaveAnalysis(ctx context.Context, result *core.AnalysisResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}
	analyzedAt := result.AnalyzedAt
	if analyzedAt.IsZero() {
		analyzedAt = s.now().UTC()
	}
	_, err = s.sb.Insert("analyses").
		Columns("item_id", "success", "payload", "analyzed_at").
		Values(result.ItemID, result.Success, string(payload), analyzedAt).
		Suffix(`ON CONFLICT(item_id) DO UPDATE SET
			success = excluded.success,
			payload = excluded.payload,
			analyzed_at = excluded.analyzed_at`).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to save analysis for %s: %w", result.ItemID, err)
	}
	return nil
}

// GetAnalysis loads the analysis of an item
func (s *Store) GetAnalysis(ctx context.Context, itemID string) (*core.AnalysisResult, error) {
	var payload string
	err := s.sb.Select("payload").From("analyses").Where(sq.Eq{"item_id": itemID}).
		QueryRowContext(ctx).Scan(&payload)
	if err != nil {
		return nil, notFound(err, "analysis", itemID)
	}
	var result core.AnalysisResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("failed to decode analysis %s: %w", itemID, err)
	}
	return &result, nil
}

func page(q sq.SelectBuilder, opts ListOptions) sq.SelectBuilder {
	if opts.Limit > 0 {
		q = q.Limit(uint64(opts.Limit))
	}
	if opts.Offset > 0 {
		if opts.Limit <= 0 {
			q = q.Limit(1 << 62)
		}
		q = q.Offset(uint64(opts.Offset))
	}
	return q
}

func requireRow(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", what, id, ErrNotFound)
	}
	return nil
}
