package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"researchpub/internal/core"
	"researchpub/internal/pipeline"
	"researchpub/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	dir     string
	config  string
	dataDir string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	env := testEnv{dir: dir, config: filepath.Join(dir, "researchpub.yaml"), dataDir: filepath.Join(dir, "data")}
	body := "app:\n  data_dir: " + env.dataDir + "\n  output_dir: " + filepath.Join(dir, "drafts") + "\n" +
		"formatting:\n  linkedin:\n    profanity_list: [heck]\n"
	require.NoError(t, os.WriteFile(env.config, []byte(body), 0o644))
	return env
}

func (e testEnv) store(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.NewStore(e.dataDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func run(t *testing.T, env testEnv, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", env.config}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestValidateHeuristic(t *testing.T) {
	env := newTestEnv(t)

	clean := filepath.Join(env.dir, "clean.txt")
	require.NoError(t, os.WriteFile(clean, []byte("A new paper shows sparse attention halves memory use.\n\n#AI #MachineLearning"), 0o644))
	out, err := run(t, env, "", "validate", clean, "--heuristic")
	require.NoError(t, err)
	assert.Contains(t, out, "approved")
	assert.Contains(t, out, "heuristic")

	rude := filepath.Join(env.dir, "rude.txt")
	require.NoError(t, os.WriteFile(rude, []byte("What the heck is this model doing"), 0o644))
	out, err = run(t, env, "", "validate", rude, "--heuristic")
	assert.ErrorIs(t, err, errNotApproved)
	assert.Contains(t, out, "rejected")
	assert.Contains(t, out, "inappropriate language")
}

func TestValidateMissingFile(t *testing.T) {
	env := newTestEnv(t)
	_, err := run(t, env, "", "validate", filepath.Join(env.dir, "nope.txt"), "--heuristic")
	assert.Error(t, err)
}

func TestDraftsAndApprove(t *testing.T) {
	env := newTestEnv(t)
	st := env.store(t)
	ctx := context.Background()

	d := &core.Draft{ItemID: "arxiv_1", Format: core.FormatBlog, Title: "Sparse attention", Content: "# Sparse attention"}
	require.NoError(t, st.SaveDraft(ctx, d))

	out, err := run(t, env, "", "drafts", "--format", "blog")
	require.NoError(t, err)
	assert.Contains(t, out, "Sparse attention")
	assert.Contains(t, out, d.ID)

	out, err = run(t, env, "", "drafts", "--format", "medium")
	require.NoError(t, err)
	assert.Contains(t, out, "No drafts found")

	out, err = run(t, env, "", "approve", d.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "approved")

	got, err := st.GetDraft(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, core.DraftStatusApproved, got.Status)
}

func TestPublishCancelled(t *testing.T) {
	env := newTestEnv(t)
	st := env.store(t)
	ctx := context.Background()

	d := &core.Draft{ItemID: "arxiv_1", Format: core.FormatLinkedIn, Title: "Post", Content: "Hello"}
	require.NoError(t, st.SaveDraft(ctx, d))

	out, err := run(t, env, "n\n", "publish", d.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "to linkedin?")
	assert.Contains(t, out, "Publish cancelled")

	got, err := st.GetDraft(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, core.DraftStatusDraft, got.Status)
}

func TestPublishUnconfiguredPlatform(t *testing.T) {
	env := newTestEnv(t)
	st := env.store(t)
	ctx := context.Background()

	d := &core.Draft{ItemID: "arxiv_1", Format: core.FormatMedium, Title: "Post", Content: "# Post"}
	require.NoError(t, st.SaveDraft(ctx, d))

	_, err := run(t, env, "", "publish", d.ID, "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestCacheAndRuns(t *testing.T) {
	env := newTestEnv(t)
	st := env.store(t)
	ctx := context.Background()

	out, err := run(t, env, "", "runs")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded yet")

	require.NoError(t, st.PutLLMResponse(ctx, "k1", "sonar-pro", "cached"))
	out, err = run(t, env, "", "cache", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Responses cached: 1")

	out, err = run(t, env, "no\n", "cache", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Cache clear cancelled")

	out, err = run(t, env, "", "cache", "clear", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 cached responses")

	require.NoError(t, st.RecordRun(ctx, &core.Run{Kind: core.RunKindCollect, Processed: 4, Succeeded: 3, Failed: 1}))
	out, err = run(t, env, "", "runs", "--kind", "collect")
	require.NoError(t, err)
	assert.Contains(t, out, "collect")
}

func TestRunsDaysSummary(t *testing.T) {
	env := newTestEnv(t)
	st := env.store(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, st.RecordRun(ctx, &core.Run{Kind: core.RunKindCollect, StartedAt: now.Add(-time.Hour), FinishedAt: now, Processed: 40, Succeeded: 12}))
	require.NoError(t, st.RecordRun(ctx, &core.Run{Kind: core.RunKindGenerate, StartedAt: now.Add(-30 * time.Minute), FinishedAt: now, Processed: 5, Succeeded: 3, Failed: 2}))
	require.NoError(t, st.RecordRun(ctx, &core.Run{Kind: core.RunKindPublish, StartedAt: now.Add(-10 * time.Minute), FinishedAt: now, Processed: 1, Succeeded: 1}))
	require.NoError(t, st.RecordRun(ctx, &core.Run{Kind: core.RunKindCollect, StartedAt: now.AddDate(0, 0, -30), FinishedAt: now.AddDate(0, 0, -30), Processed: 500}))

	out, err := run(t, env, "", "runs", "--days", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "Totals (last 7 days)")
	assert.Contains(t, out, "Items fetched: 40")
	assert.Contains(t, out, "Content generated: 3")
	assert.Contains(t, out, "Content published: 1")
	assert.Contains(t, out, "Conversion rate: 2.5%")
}

func TestSummarizeRunsWithoutFetches(t *testing.T) {
	s := summarizeRuns([]*core.Run{{Kind: core.RunKindPublish, StartedAt: time.Now(), Succeeded: 2}}, time.Now().Add(-time.Hour))
	assert.Equal(t, 2, s.Published)
	_, ok := s.ConversionRate()
	assert.False(t, ok)
}

func TestTrendsDiscoverAndSave(t *testing.T) {
	env := newTestEnv(t)
	st := env.store(t)
	ctx := context.Background()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		answer := `{"trends": [
			{"topic": "Agent memory", "category": "agentic-ai", "novelty": 60, "impact": 70, "timeliness": 80, "engagement_potential": 90, "why_now": "Frameworks shipped memory layers"},
			{"topic": "Speculative decoding", "category": "production-ai", "novelty": 90, "impact": 90, "timeliness": 90, "engagement_potential": 90}
		], "recommendation": "Start with speculative decoding."}`
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": answer}}},
		})
	}))
	defer srv.Close()

	body, err := os.ReadFile(env.config)
	require.NoError(t, err)
	body = append(body, []byte("llm:\n  base_url: "+srv.URL+"\n  rate_limiting:\n    requests_per_minute: 0\n")...)
	require.NoError(t, os.WriteFile(env.config, body, 0o644))
	t.Setenv("PERPLEXITY_API_KEY", "pplx-test")

	out, err := run(t, env, "", "trends")
	require.NoError(t, err)
	assert.Contains(t, out, "No ranked items to analyze")

	require.NoError(t, st.SaveItems(ctx, []*core.ContentItem{
		{ID: "arxiv_1", Title: "Long-term memory for agents", Source: core.SourceArxiv, URL: "https://arxiv.org/abs/1", Score: 8},
		{ID: "hn_2", Title: "Speculative decoding in vLLM", Source: core.SourceHackerNews, URL: "https://news.ycombinator.com/item?id=2", Score: 6},
	}))

	out, err = run(t, env, "", "trends", "--save")
	require.NoError(t, err)
	assert.Contains(t, out, "Trends from 2 recent items")
	assert.Contains(t, out, "Speculative decoding")
	assert.Contains(t, out, "Start with speculative decoding.")
	assert.Contains(t, out, "Saved trend_")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	saved, err := st.ListItems(ctx, store.ListOptions{Source: core.SourceTrends})
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, core.ItemStatusRanked, saved[0].Status)
	assert.Equal(t, "Speculative decoding - Production Ai", saved[0].Item.Title)

	out, err = run(t, env, "", "trends")
	require.NoError(t, err)
	assert.Contains(t, out, "Skipping trend discovery")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	runs, err := st.ListRuns(ctx, core.RunKindTrends, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].Succeeded)
}

func TestGenerateRejectsUnknownFormat(t *testing.T) {
	env := newTestEnv(t)
	_, err := run(t, env, "", "generate", "--format", "tiktok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tiktok")
}

func TestPrintGenerate(t *testing.T) {
	var out bytes.Buffer
	printGenerate(&out, &pipeline.GenerateResult{
		Items: []pipeline.ItemOutcome{
			{ItemID: "a", Title: "Good paper", Drafts: []*core.Draft{{ID: "d1", Format: core.FormatBlog}}},
			{ItemID: "b", Title: "Off topic", Skipped: "relevancy 2.0 below threshold"},
		},
		Succeeded: 1,
		Skipped:   1,
		Drafts:    1,
		Flagged:   1,
	})
	s := out.String()
	assert.Contains(t, s, "blog: d1")
	assert.Contains(t, s, "relevancy 2.0 below threshold")
	assert.Contains(t, s, "1 flagged")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a b", truncate("a\n  b", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

func TestGenerateEstimate(t *testing.T) {
	env := newTestEnv(t)
	st := env.store(t)
	ctx := context.Background()

	out, err := run(t, env, "", "generate", "--estimate")
	require.NoError(t, err)
	assert.Contains(t, out, "No ranked items")

	require.NoError(t, st.SaveItems(ctx, []*core.ContentItem{
		{ID: "hn_1", Title: "Agents in production", URL: "https://example.com/1", Source: core.SourceHackerNews, Score: 7},
		{ID: "hn_2", Title: "Small models", URL: "https://example.com/2", Source: core.SourceHackerNews, Score: 5},
	}))

	out, err = run(t, env, "", "generate", "--estimate", "--count", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Cost Estimation for sonar-pro")
	assert.Contains(t, out, "Items to process: 1")
	assert.Contains(t, out, "Agents in production")
	assert.NotContains(t, out, "Small models")

	drafts, err := st.ListDrafts(ctx, store.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, drafts)
}
