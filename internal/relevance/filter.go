// Package relevance decides which fetched items are worth analyzing.
package relevance

import (
	"strings"
	"time"

	"researchpub/internal/config"
	"researchpub/internal/core"
	"researchpub/internal/logger"

	"github.com/rs/zerolog"
)

const (
	highKeywordWeight   = 2.0
	mediumKeywordWeight = 1.0
)

// Criteria are the filter thresholds and keyword lists.
type Criteria struct {
	MaxAgeDays             int
	HighPriorityKeywords   []string
	MediumPriorityKeywords []string
	ExcludeKeywords        []string
	MinEngagementThreshold int
}

// DefaultCriteria returns a week-long window with a 100 engagement bypass and no keywords.
func DefaultCriteria() Criteria {
	return Criteria{MaxAgeDays: 7, MinEngagementThreshold: 100}
}

// CriteriaFromConfig maps the filters config section onto Criteria.
func CriteriaFromConfig(cfg config.Filters) Criteria {
	return Criteria{
		MaxAgeDays:             cfg.MaxAgeDays,
		HighPriorityKeywords:   cfg.Keywords.HighPriority,
		MediumPriorityKeywords: cfg.Keywords.MediumPriority,
		ExcludeKeywords:        cfg.ExcludeKeywords,
		MinEngagementThreshold: cfg.MinEngagementThreshold,
	}
}

// Decision explains why an item was kept or dropped.
type Decision struct {
	Keep   bool
	Reason string
}

// Filter applies the recency, exclusion and inclusion checks in that order.
type Filter struct {
	maxAgeDays    int
	high          []string
	medium        []string
	exclude       []string
	minEngagement int
	now           func() time.Time
	log           zerolog.Logger
}

// NewFilter case-folds the keyword lists once.
func NewFilter(c Criteria) *Filter {
	return &Filter{
		maxAgeDays:    c.MaxAgeDays,
		high:          fold(c.HighPriorityKeywords),
		medium:        fold(c.MediumPriorityKeywords),
		exclude:       fold(c.ExcludeKeywords),
		minEngagement: c.MinEngagementThreshold,
		now:           time.Now,
		log:           logger.Component("relevance"),
	}
}

// WithClock replaces the time source used for recency checks.
func (f *Filter) WithClock(now func() time.Time) *Filter {
	f.now = now
	return f
}

func fold(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			out = append(out, w)
		}
	}
	return out
}

// Filter returns the items that pass, in input order. Every kept item has its
// KeywordScore set.
func (f *Filter) Filter(items []*core.ContentItem) []*core.ContentItem {
	kept := make([]*core.ContentItem, 0, len(items))
	for _, item := range items {
		d := f.Decide(item)
		if !d.Keep {
			f.log.Debug().Str("title", item.Title).Str("reason", d.Reason).Msg("Dropped item")
			continue
		}
		item.KeywordScore = f.KeywordScore(item)
		kept = append(kept, item)
	}
	f.log.Info().Int("input", len(items)).Int("kept", len(kept)).Msg("Relevance filter complete")
	return kept
}

// Decide runs the checks for a single item without mutating it.
func (f *Filter) Decide(item *core.ContentItem) Decision {
	if !f.isRecent(item) {
		return Decision{Reason: "too old"}
	}

	text := strings.ToLower(item.Title + " " + item.Summary)

	for _, kw := range f.exclude {
		if strings.Contains(text, kw) {
			return Decision{Reason: "excluded keyword: " + kw}
		}
	}

	if len(f.high) == 0 && len(f.medium) == 0 {
		return Decision{Keep: true, Reason: "no keyword lists configured"}
	}
	if kw, ok := firstMatch(text, f.high); ok {
		return Decision{Keep: true, Reason: "high priority keyword: " + kw}
	}
	if kw, ok := firstMatch(text, f.medium); ok {
		return Decision{Keep: true, Reason: "medium priority keyword: " + kw}
	}
	if item.Engagement() >= f.minEngagement {
		return Decision{Keep: true, Reason: "engagement bypass"}
	}
	return Decision{Reason: "no keyword match"}
}

// isRecent treats missing or unparseable dates as recent.
func (f *Filter) isRecent(item *core.ContentItem) bool {
	published, ok := ParsePublished(item.Published)
	if !ok {
		return true
	}
	return AgeDays(published, f.now().UTC()) <= f.maxAgeDays
}

// KeywordScore is 2 per matching high-priority keyword plus 1 per matching medium one.
func (f *Filter) KeywordScore(item *core.ContentItem) float64 {
	text := strings.ToLower(item.Title + " " + item.Summary)
	score := 0.0
	for _, kw := range f.high {
		if strings.Contains(text, kw) {
			score += highKeywordWeight
		}
	}
	for _, kw := range f.medium {
		if strings.Contains(text, kw) {
			score += mediumKeywordWeight
		}
	}
	return score
}

func firstMatch(text string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return kw, true
		}
	}
	return "", false
}
