package trends

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"researchpub/internal/config"
	"researchpub/internal/core"
	"researchpub/internal/llm"
	"researchpub/internal/prompts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = "```json\n" + `{
  "trends": [
    {
      "topic": "Agent memory",
      "category": "agentic-ai",
      "trend_score": 80,
      "novelty": 60,
      "impact": 70,
      "timeliness": 80,
      "engagement_potential": 90,
      "description": "Agents that keep long-term memory across sessions.",
      "why_now": "Three frameworks shipped memory layers this week.",
      "content_angle": "What changes when agents remember",
      "sources": ["arXiv", "https://example.com/agent-memory"]
    },
    {
      "topic": "Speculative decoding in production",
      "category": "production-ai",
      "novelty": 90,
      "impact": 90,
      "timeliness": 90,
      "engagement_potential": 90
    },
    {
      "topic": "Eval harnesses",
      "category": "research"
    }
  ],
  "recommendation": "Cover speculative decoding first."
}` + "\n```"

type fakeGen struct {
	reply  string
	err    error
	system string
	user   string
	opts   llm.Options
	calls  int
}

func (f *fakeGen) Generate(_ context.Context, system, user string, opts llm.Options) (string, error) {
	f.calls++
	f.system, f.user, f.opts = system, user, opts
	return f.reply, f.err
}

func recentItems() []*core.ContentItem {
	return []*core.ContentItem{
		{ID: "a", Title: "Long-term memory for LLM agents", Summary: "A memory layer for agent frameworks.", Source: core.SourceArxiv, Category: "cs.AI", Published: "2024-03-01"},
		{ID: "b", Title: "Speculative decoding at scale", Summary: "Serving with draft models in production.", Source: core.SourceHackerNews, FetchedAt: time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)},
		{ID: "c", Title: "agent-memory", Summary: "Persistent memory store for agents.", Source: core.SourceGitHub, Topics: []string{"agents", "memory"}},
	}
}

func TestParseResponse(t *testing.T) {
	found, rec, err := ParseResponse(sampleResponse)
	require.NoError(t, err)
	require.Len(t, found, 3)
	assert.Equal(t, "Cover speculative decoding first.", rec)

	assert.Equal(t, "Agent memory", found[0].Topic)
	assert.InDelta(t, 80, found[0].TrendScore, 1e-9)
	assert.Equal(t, []string{"arXiv", "https://example.com/agent-memory"}, found[0].Sources)

	assert.InDelta(t, 50, found[1].TrendScore, 1e-9, "missing sub-scores are neutral")
	assert.InDelta(t, 50, found[2].Novelty, 1e-9)
	assert.InDelta(t, 50, found[2].EngagementPotential, 1e-9)
}

func TestParseResponseToleratesProse(t *testing.T) {
	found, _, err := ParseResponse(`Here is my analysis: {"trends": [{"topic": "RAG evals"}]} Hope it helps!`)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "RAG evals", found[0].Topic)
}

func TestParseResponseRejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no json", "I could not find any trends."},
		{"missing trends key", `{"recommendation": "none"}`},
		{"malformed", `{"trends": [{"topic": "x",}]}`},
		{"score out of range", `{"trends": [{"topic": "x", "impact": 150}]}`},
		{"empty topic", `{"trends": [{"topic": ""}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseResponse(tt.raw)
			assert.ErrorIs(t, err, ErrInvalidResponse)
		})
	}
}

func TestCompositeScore(t *testing.T) {
	score := CompositeScore(Trend{Novelty: 60, Impact: 70, Timeliness: 80, EngagementPotential: 90})
	assert.InDelta(t, 15+21+20+18, score, 1e-9)

	assert.InDelta(t, 50, CompositeScore(Trend{Novelty: 50, Impact: 50, Timeliness: 50, EngagementPotential: 50}), 1e-9)
}

func TestRank(t *testing.T) {
	found, _, err := ParseResponse(sampleResponse)
	require.NoError(t, err)
	now := time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC)

	ranked := Rank(found, recentItems(), now)
	require.Len(t, ranked, 3)
	assert.Equal(t, "Speculative decoding in production", ranked[0].Topic)
	assert.InDelta(t, 90, ranked[0].CompositeScore, 1e-9)
	assert.Equal(t, "Agent memory", ranked[1].Topic)
	assert.InDelta(t, 74, ranked[1].CompositeScore, 1e-9)
	assert.Equal(t, "Eval harnesses", ranked[2].Topic)

	assert.Equal(t, 2, ranked[1].Mentions, "two items talk about agent memory")
	assert.Equal(t, 1, ranked[0].Mentions)
	assert.Equal(t, now, ranked[0].DiscoveredAt)

	assert.Zero(t, found[0].CompositeScore, "input slice is not modified")
}

func TestRankBreaksTiesByMentions(t *testing.T) {
	found := []Trend{
		{Topic: "Quantum widgets", Novelty: 50, Impact: 50, Timeliness: 50, EngagementPotential: 50},
		{Topic: "Agent memory", Novelty: 50, Impact: 50, Timeliness: 50, EngagementPotential: 50},
	}
	ranked := Rank(found, recentItems(), time.Now())
	assert.Equal(t, "Agent memory", ranked[0].Topic)
	assert.Equal(t, "Quantum widgets", ranked[1].Topic)
}

func TestSummarizeContent(t *testing.T) {
	items := recentItems()
	items[0].Summary = strings.Repeat("é", 250)

	doc, n, err := SummarizeContent(items, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte(doc), &got))
	require.Len(t, got, 2)
	assert.Equal(t, strings.Repeat("é", 200)+"...", got[0]["snippet"])
	assert.Equal(t, "2024-03-01", got[0]["date"])
	assert.Equal(t, "2024-03-02T08:00:00Z", got[1]["date"])
	assert.Equal(t, []any{}, got[1]["topics"])
}

func TestDiscover(t *testing.T) {
	gen := &fakeGen{reply: sampleResponse}
	d := NewDiscoverer(gen, Options{MaxTrends: 2, MaxItems: 10, Temperature: 0.4})
	d.now = func() time.Time { return time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC) }

	report, err := d.Discover(context.Background(), recentItems())
	require.NoError(t, err)
	require.Len(t, report.Trends, 2)
	assert.Equal(t, "Speculative decoding in production", report.Trends[0].Topic)
	assert.Equal(t, 3, report.Analyzed)
	assert.Equal(t, "Cover speculative decoding first.", report.Recommendation)

	assert.Equal(t, prompts.TrendSystemPrompt, gen.system)
	assert.Contains(t, gen.user, "Current date: 2024-03-03")
	assert.Contains(t, gen.user, "Long-term memory for LLM agents")
	require.NotNil(t, gen.opts.Temperature)
	assert.InDelta(t, 0.4, *gen.opts.Temperature, 1e-6)
	assert.Equal(t, int32(2000), gen.opts.MaxTokens)
}

func TestDiscoverErrors(t *testing.T) {
	d := NewDiscoverer(&fakeGen{err: errors.New("upstream 503")}, DefaultOptions())
	_, err := d.Discover(context.Background(), recentItems())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream 503")

	d = NewDiscoverer(&fakeGen{reply: "no idea"}, DefaultOptions())
	_, err = d.Discover(context.Background(), recentItems())
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestToContentItem(t *testing.T) {
	now := time.Date(2024, 3, 3, 12, 30, 45, 0, time.UTC)
	trend := Trend{
		Topic:          "Agent memory (v2)!",
		Category:       "agentic-ai",
		TrendScore:     80.4,
		Description:    "Agents that remember.",
		WhyNow:         "Frameworks shipped it.",
		ContentAngle:   "What changes when agents remember",
		Sources:        []string{"arXiv", "https://example.com/agent-memory"},
		CompositeScore: 74,
	}

	item := ToContentItem(trend, now)
	assert.Equal(t, "trend_20240303_123045_Agent_memory__v2__", item.ID)
	assert.Equal(t, "Agent memory (v2)!: What changes when agents remember", item.Title)
	assert.Equal(t, "https://example.com/agent-memory", item.URL)
	assert.Equal(t, core.SourceTrends, item.Source)
	assert.Equal(t, core.PriorityHigh, item.SourcePriority)
	assert.Equal(t, "agentic-ai", item.Category)
	assert.Equal(t, []string{"Agent memory (v2)!"}, item.Topics)
	assert.Equal(t, 80, item.EngagementScore)
	assert.InDelta(t, 7.4, item.Score, 1e-9)
	assert.Equal(t, "2024-03-03T12:30:45Z", item.Published)
	assert.Equal(t, "Agents that remember.\n\nWhy now: Frameworks shipped it.\n\nContent angle: What changes when agents remember", item.Summary)
}

func TestToContentItemDefaults(t *testing.T) {
	item := ToContentItem(Trend{Topic: strings.Repeat("x", 80)}, time.Now())
	assert.Equal(t, "#", item.URL)
	assert.Equal(t, "ai-trends", item.Category)
	assert.Len(t, item.ID[len("trend_20060102_150405_"):], 50)
}

func TestTrendTitle(t *testing.T) {
	assert.Equal(t, "RAG - Production Ai", TrendTitle(Trend{Topic: "RAG", Category: "production-ai"}))
	assert.Equal(t, "RAG", TrendTitle(Trend{Topic: "RAG"}))
	assert.Equal(t, "Emerging AI Trend - Research", TrendTitle(Trend{Category: "research"}))
	long := strings.Repeat("a", 120)
	assert.Equal(t, "RAG - Research", TrendTitle(Trend{Topic: "RAG", Category: "research", ContentAngle: long}))
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(config.Trends{MaxTrends: 3})
	assert.Equal(t, 3, opts.MaxTrends)
	assert.Equal(t, 20, opts.MaxItems)
}
