package store

import (
	"context"
	"database/sql"
	"fmt"

	"researchpub/internal/core"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

var draftColumns = []string{
	"id", "item_id", "format", "title", "path", "content", "status",
	"platform", "published_url", "error", "created_at", "published_at",
}

// SaveDraft inserts or replaces a draft. Missing IDs and timestamps are filled in.
func (s *Store) SaveDraft(ctx context.Context, d *core.Draft) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = s.now().UTC()
	}
	if d.Status == "" {
		d.Status = core.DraftStatusDraft
	}

	var publishedAt sql.NullTime
	if d.PublishedAt != nil {
		publishedAt = sql.NullTime{Time: *d.PublishedAt, Valid: true}
	}

	_, err := s.sb.Insert("drafts").
		Columns(draftColumns...).
		Values(d.ID, d.ItemID, d.Format, d.Title, d.Path, d.Content, d.Status,
			d.Platform, d.PublishedURL, d.Error, d.CreatedAt, publishedAt).
		Suffix(`ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			path = excluded.path,
			content = excluded.content,
			status = excluded.status,
			platform = excluded.platform,
			published_url = excluded.published_url,
			error = excluded.error,
			published_at = excluded.published_at`).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to save draft %s: %w", d.ID, err)
	}
	return nil
}

// GetDraft loads one draft by ID
func (s *Store) GetDraft(ctx context.Context, id string) (*core.Draft, error) {
	row := s.sb.Select(draftColumns...).From("drafts").Where(sq.Eq{"id": id}).QueryRowContext(ctx)
	d, err := scanDraft(row)
	if err != nil {
		return nil, notFound(err, "draft", id)
	}
	return d, nil
}

// ListDrafts returns drafts newest first, filtered by status and format
func (s *Store) ListDrafts(ctx context.Context, opts ListOptions) ([]*core.Draft, error) {
	q := s.sb.Select(draftColumns...).From("drafts").OrderBy("created_at DESC", "id")
	if opts.Status != "" {
		q = q.Where(sq.Eq{"status": opts.Status})
	}
	if opts.Format != "" {
		q = q.Where(sq.Eq{"format": opts.Format})
	}
	q = page(q, opts)

	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*core.Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draft: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DraftUpdate carries the fields changed by a status transition
type DraftUpdate struct {
	Status       string
	Platform     string
	PublishedURL string
	Error        string
}

// UpdateDraftStatus records approval or a publish outcome
func (s *Store) UpdateDraftStatus(ctx context.Context, id string, u DraftUpdate) error {
	q := s.sb.Update("drafts").
		Set("status", u.Status).
		Set("error", u.Error).
		Where(sq.Eq{"id": id})
	if u.Platform != "" {
		q = q.Set("platform", u.Platform)
	}
	if u.PublishedURL != "" {
		q = q.Set("published_url", u.PublishedURL)
	}
	if u.Status == core.DraftStatusPublished {
		q = q.Set("published_at", s.now().UTC())
	}

	res, err := q.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to update draft %s: %w", id, err)
	}
	return requireRow(res, "draft", id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDraft(r scanner) (*core.Draft, error) {
	var (
		d           core.Draft
		publishedAt sql.NullTime
	)
	if err := r.Scan(&d.ID, &d.ItemID, &d.Format, &d.Title, &d.Path, &d.Content, &d.Status,
		&d.Platform, &d.PublishedURL, &d.Error, &d.CreatedAt, &publishedAt); err != nil {
		return nil, err
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		d.PublishedAt = &t
	}
	return &d, nil
}
