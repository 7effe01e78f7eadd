// Package ranking orders items by a weighted composite of recency, source
// priority, keyword match and engagement.
package ranking

import (
	"math"
	"sort"
	"strings"
	"time"

	"researchpub/internal/config"
	"researchpub/internal/core"
	"researchpub/internal/logger"
	"researchpub/internal/relevance"

	"github.com/rs/zerolog"
)

const (
	maxSubScore     = 10.0
	neutralSubScore = 5.0
)

var priorityScores = map[string]float64{
	core.PriorityHigh:   10.0,
	core.PriorityMedium: 6.0,
	core.PriorityLow:    3.0,
}

// Weights scale each sub-score in the composite.
type Weights struct {
	Recency        float64
	SourcePriority float64
	KeywordMatch   float64
	Engagement     float64
}

// DefaultWeights are 0.3 / 0.3 / 0.2 / 0.2.
func DefaultWeights() Weights {
	return Weights{Recency: 0.3, SourcePriority: 0.3, KeywordMatch: 0.2, Engagement: 0.2}
}

// Breakdown holds the 0-10 sub-scores of one item.
type Breakdown struct {
	Recency        float64 `json:"recency"`
	SourcePriority float64 `json:"source_priority"`
	KeywordMatch   float64 `json:"keyword_match"`
	Engagement     float64 `json:"engagement"`
}

// Ranker produces a total order over items.
type Ranker struct {
	weights Weights
	now     func() time.Time
	log     zerolog.Logger
}

// New returns a Ranker using w.
func New(w Weights) *Ranker {
	return &Ranker{weights: w, now: time.Now, log: logger.Component("ranking")}
}

// FromConfig builds a Ranker from the ranking weights config.
func FromConfig(cfg config.Weights) *Ranker {
	return New(Weights{
		Recency:        cfg.Recency,
		SourcePriority: cfg.SourcePriority,
		KeywordMatch:   cfg.KeywordMatch,
		Engagement:     cfg.Engagement,
	})
}

// WithClock replaces the time source used for recency scores.
func (r *Ranker) WithClock(now func() time.Time) *Ranker {
	r.now = now
	return r
}

// Rank writes Score onto every item and returns them sorted descending by
// score. Equal scores keep their input order. The input slice is not reordered.
func (r *Ranker) Rank(items []*core.ContentItem) []*core.ContentItem {
	ranked := make([]*core.ContentItem, len(items))
	copy(ranked, items)

	for _, item := range ranked {
		item.Score = r.Score(item)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > 0 {
		r.log.Info().Int("items", len(ranked)).Float64("top_score", ranked[0].Score).Msg("Ranking complete")
	}
	return ranked
}

// Score is the weighted composite rounded to two decimals.
func (r *Ranker) Score(item *core.ContentItem) float64 {
	b := r.Breakdown(item)
	w := r.weights
	composite := b.Recency*w.Recency +
		b.SourcePriority*w.SourcePriority +
		b.KeywordMatch*w.KeywordMatch +
		b.Engagement*w.Engagement
	return math.Round(composite*100) / 100
}

// Breakdown computes the four sub-scores of item.
func (r *Ranker) Breakdown(item *core.ContentItem) Breakdown {
	return Breakdown{
		Recency:        r.recency(item),
		SourcePriority: sourcePriority(item),
		KeywordMatch:   math.Min(item.KeywordScore*2, maxSubScore),
		Engagement:     engagement(item),
	}
}

func (r *Ranker) recency(item *core.ContentItem) float64 {
	published, ok := relevance.ParsePublished(item.Published)
	if !ok {
		return neutralSubScore
	}
	age := relevance.AgeDays(published, r.now().UTC())
	return math.Min(math.Max(0, maxSubScore-float64(age)), maxSubScore)
}

// sourcePriority treats a missing priority as medium.
func sourcePriority(item *core.ContentItem) float64 {
	p := strings.ToLower(strings.TrimSpace(item.SourcePriority))
	if p == "" {
		p = core.PriorityMedium
	}
	if score, ok := priorityScores[p]; ok {
		return score
	}
	return neutralSubScore
}

func engagement(item *core.ContentItem) float64 {
	switch item.Source {
	case core.SourceHackerNews:
		return math.Min(float64(item.Points)/50, maxSubScore)
	case core.SourceGitHub:
		return math.Min(float64(item.Stars)/100, maxSubScore)
	case core.SourceArxiv:
		// arXiv has no engagement metric; an AI category is the proxy.
		if strings.Contains(item.Category, "AI") {
			return 8.0
		}
		return 6.0
	default:
		return neutralSubScore
	}
}
