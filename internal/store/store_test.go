package store

import (
	"context"
	"testing"
	"time"

	"researchpub/internal/core"
	"researchpub/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ llm.Cache = (*Store)(nil)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func item(id string, score float64) *core.ContentItem {
	return &core.ContentItem{
		ID:        id,
		Title:     "Title " + id,
		URL:       "https://example.com/" + id,
		Source:    core.SourceArxiv,
		Score:     score,
		Topics:    []string{"llm"},
		FetchedAt: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSaveAndListItems(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SaveItems(ctx, []*core.ContentItem{item("a", 3), item("b", 7.5), item("c", 5)}))

	items, err := s.ListItems(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "b", items[0].Item.ID)
	assert.Equal(t, "c", items[1].Item.ID)
	assert.Equal(t, "a", items[2].Item.ID)
	assert.Equal(t, core.ItemStatusRanked, items[0].Status)
	assert.Equal(t, []string{"llm"}, items[0].Item.Topics)

	paged, err := s.ListItems(ctx, ListOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "c", paged[0].Item.ID)
}

func TestSaveItemsKeepsStatus(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SaveItems(ctx, []*core.ContentItem{item("a", 3)}))
	require.NoError(t, s.SetItemStatus(ctx, "a", core.ItemStatusAnalyzed))

	updated := item("a", 9)
	updated.Title = "Renamed"
	require.NoError(t, s.SaveItems(ctx, []*core.ContentItem{updated}))

	got, err := s.GetItem(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, core.ItemStatusAnalyzed, got.Status)
	assert.Equal(t, "Renamed", got.Item.Title)
	assert.InDelta(t, 9.0, got.Item.Score, 1e-9)

	ranked, err := s.ListItems(ctx, ListOptions{Status: core.ItemStatusRanked})
	require.NoError(t, err)
	assert.Empty(t, ranked)
}

func TestNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.GetItem(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetAnalysis(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetDraft(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.SetItemStatus(ctx, "missing", core.ItemStatusSkipped), ErrNotFound)
	assert.ErrorIs(t, s.UpdateDraftStatus(ctx, "missing", DraftUpdate{Status: core.DraftStatusApproved}), ErrNotFound)
}

func TestAnalysisRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	result := core.NewAnalysisResult(item("a", 1))
	result.Stages["fact_extraction"] = "facts"
	result.Stages["engineer_summary"] = core.ErrorPrefix + "boom"
	result.CompletedStages = []string{"fact_extraction"}
	result.FailedStages = []string{"engineer_summary"}
	result.Success = true
	require.NoError(t, s.SaveAnalysis(ctx, result))

	got, err := s.GetAnalysis(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "facts", got.Get("fact_extraction"))
	assert.Equal(t, "", got.Get("engineer_summary"))
	assert.Equal(t, []string{"engineer_summary"}, got.FailedStages)

	result.Stages["engineer_summary"] = "summary"
	require.NoError(t, s.SaveAnalysis(ctx, result))
	got, err = s.GetAnalysis(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "summary", got.Get("engineer_summary"))
}

func TestDraftLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	d := &core.Draft{ItemID: "a", Format: core.FormatBlog, Title: "Post", Content: "body"}
	require.NoError(t, s.SaveDraft(ctx, d))
	require.NotEmpty(t, d.ID)
	assert.Equal(t, core.DraftStatusDraft, d.Status)

	other := &core.Draft{ItemID: "b", Format: core.FormatLinkedIn, Title: "Short", Content: "post"}
	require.NoError(t, s.SaveDraft(ctx, other))

	blogs, err := s.ListDrafts(ctx, ListOptions{Format: core.FormatBlog})
	require.NoError(t, err)
	require.Len(t, blogs, 1)
	assert.Equal(t, d.ID, blogs[0].ID)
	assert.Nil(t, blogs[0].PublishedAt)

	require.NoError(t, s.UpdateDraftStatus(ctx, d.ID, DraftUpdate{Status: core.DraftStatusApproved}))
	require.NoError(t, s.UpdateDraftStatus(ctx, d.ID, DraftUpdate{
		Status:       core.DraftStatusPublished,
		Platform:     "github_pages",
		PublishedURL: "https://example.github.io/post",
	}))

	got, err := s.GetDraft(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, core.DraftStatusPublished, got.Status)
	assert.Equal(t, "github_pages", got.Platform)
	assert.Equal(t, "https://example.github.io/post", got.PublishedURL)
	require.NotNil(t, got.PublishedAt)

	published, err := s.ListDrafts(ctx, ListOptions{Status: core.DraftStatusPublished})
	require.NoError(t, err)
	assert.Len(t, published, 1)
}

func TestLLMCache(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, ok, err := s.GetLLMResponse(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.PutLLMResponse(ctx, "k1", "sonar", "hello"))
	require.NoError(t, s.PutLLMResponse(ctx, "k2", "sonar", "world!"))
	require.NoError(t, s.PutLLMResponse(ctx, "k1", "sonar", "hello again"))

	resp, ok, err := s.GetLLMResponse(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello again", resp)

	stats, err := s.CacheStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, int64(len("hello again")+len("world!")), stats.SizeBytes)
	assert.False(t, stats.Newest.IsZero())

	removed, err := s.ClearCache(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)

	removed, err = s.ClearCache(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	stats, err = s.CacheStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Entries)
	assert.True(t, stats.Oldest.IsZero())
}

func TestRuns(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	base := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	for i, kind := range []string{core.RunKindCollect, core.RunKindGenerate, core.RunKindCollect} {
		start := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, s.RecordRun(ctx, &core.Run{
			Kind:       kind,
			StartedAt:  start,
			FinishedAt: start.Add(time.Minute),
			Processed:  10 + i,
			Succeeded:  8,
			Failed:     2 + i,
		}))
	}

	runs, err := s.ListRuns(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, 12, runs[0].Processed)
	assert.True(t, runs[0].StartedAt.Equal(base.Add(2*time.Hour)))

	collects, err := s.ListRuns(ctx, core.RunKindCollect, 1)
	require.NoError(t, err)
	require.Len(t, collects, 1)
	assert.Equal(t, core.RunKindCollect, collects[0].Kind)
}
