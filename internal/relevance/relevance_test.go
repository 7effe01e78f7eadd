package relevance

import (
	"testing"
	"time"

	"researchpub/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func newTestFilter(c Criteria) *Filter {
	return NewFilter(c).WithClock(func() time.Time { return fixedNow })
}

func TestParsePublished(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-01-08T10:00:00Z", time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC), true},
		{"2024-01-08T10:00:00+02:00", time.Date(2024, 1, 8, 8, 0, 0, 0, time.UTC), true},
		{"2024-01-08T10:00:00+0000", time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC), true},
		{"Mon, 08 Jan 2024 10:00:00 +0000", time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC), true},
		{"Mon, 08 Jan 2024 10:00:00 GMT", time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC), true},
		{"Mon, 8 Jan 2024 10:00:00 -0500", time.Date(2024, 1, 8, 15, 0, 0, 0, time.UTC), true},
		{"2024-01-08", time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"last tuesday", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParsePublished(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
			}
		})
	}
}

func TestAgeDays(t *testing.T) {
	assert.Equal(t, 0, AgeDays(fixedNow.Add(-23*time.Hour), fixedNow))
	assert.Equal(t, 1, AgeDays(fixedNow.Add(-25*time.Hour), fixedNow))
	assert.Equal(t, 9, AgeDays(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), fixedNow))
	assert.Equal(t, -1, AgeDays(fixedNow.Add(time.Hour), fixedNow))
}

func TestFilterRecency(t *testing.T) {
	f := newTestFilter(DefaultCriteria())
	items := []*core.ContentItem{
		{ID: "fresh", Title: "fresh", Published: "2024-01-09"},
		{ID: "edge", Title: "edge", Published: "2024-01-03"},
		{ID: "stale", Title: "stale", Published: "2023-12-01"},
	}
	kept := f.Filter(items)
	require.Len(t, kept, 2)
	assert.Equal(t, "fresh", kept[0].ID)
	assert.Equal(t, "edge", kept[1].ID)
}

func TestFilterFailsOpenOnBadDates(t *testing.T) {
	f := newTestFilter(DefaultCriteria())
	for _, published := range []string{"", "not a date", "2024/01/01", "13-13-13"} {
		d := f.Decide(&core.ContentItem{Title: "x", Published: published})
		assert.True(t, d.Keep, "published %q should be treated as recent", published)
	}
}

func TestFilterExcludeWins(t *testing.T) {
	c := DefaultCriteria()
	c.HighPriorityKeywords = []string{"LLM"}
	c.ExcludeKeywords = []string{"crypto"}
	f := newTestFilter(c)

	item := &core.ContentItem{
		Title:           "LLM trading bots",
		Summary:         "Agents that follow the Crypto markets",
		Published:       "2024-01-10",
		EngagementScore: 10000,
	}
	kept := f.Filter([]*core.ContentItem{item})
	assert.Empty(t, kept)
	assert.Contains(t, f.Decide(item).Reason, "crypto")
}

func TestFilterInclusion(t *testing.T) {
	c := DefaultCriteria()
	c.HighPriorityKeywords = []string{"Transformer"}
	c.MediumPriorityKeywords = []string{"dataset"}
	f := newTestFilter(c)

	tests := []struct {
		name string
		item core.ContentItem
		keep bool
	}{
		{"high keyword", core.ContentItem{Title: "A new TRANSFORMER"}, true},
		{"medium keyword", core.ContentItem{Summary: "we release a dataset"}, true},
		{"no match", core.ContentItem{Title: "gardening tips"}, false},
		{"points bypass", core.ContentItem{Title: "gardening tips", Points: 100}, true},
		{"stars below", core.ContentItem{Title: "gardening tips", Stars: 99}, false},
		{"engagement score first", core.ContentItem{Title: "gardening", EngagementScore: 5, Points: 500}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := tt.item
			assert.Equal(t, tt.keep, f.Decide(&item).Keep)
		})
	}
}

func TestFilterNoKeywordListsAcceptsEverything(t *testing.T) {
	f := newTestFilter(DefaultCriteria())
	kept := f.Filter([]*core.ContentItem{{Title: "anything"}, {Title: "at all"}})
	assert.Len(t, kept, 2)
}

func TestKeywordScore(t *testing.T) {
	c := DefaultCriteria()
	c.HighPriorityKeywords = []string{"llm", "agent"}
	c.MediumPriorityKeywords = []string{"benchmark", "rust"}
	f := newTestFilter(c)

	kept := f.Filter([]*core.ContentItem{{
		Title:   "LLM Agent benchmark",
		Summary: "written in python",
	}})
	require.Len(t, kept, 1)
	assert.InDelta(t, 5.0, kept[0].KeywordScore, 1e-9)
}

func TestLanguageFilterDisabled(t *testing.T) {
	f, err := NewLanguageFilter(nil)
	require.NoError(t, err)
	assert.Nil(t, f)
	items := []*core.ContentItem{{Title: "Bonjour tout le monde"}}
	assert.Equal(t, items, f.Filter(items))
}

func TestLanguageFilterUnknownCode(t *testing.T) {
	_, err := NewLanguageFilter([]string{"en", "tlh"})
	assert.Error(t, err)
}

func TestLanguageFilter(t *testing.T) {
	f, err := NewLanguageFilter([]string{"en"})
	require.NoError(t, err)

	items := []*core.ContentItem{
		{ID: "en", Title: "Scaling laws for language models", Summary: "We study how the performance of neural language models depends on the size of the training data and the number of parameters."},
		{ID: "de", Title: "Skalierungsgesetze für Sprachmodelle", Summary: "Wir untersuchen, wie die Leistung neuronaler Sprachmodelle von der Größe der Trainingsdaten und der Anzahl der Parameter abhängt."},
		{ID: "empty"},
	}
	kept := f.Filter(items)
	ids := make([]string, 0, len(kept))
	for _, item := range kept {
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []string{"en", "empty"}, ids)
}
