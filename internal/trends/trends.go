// Package trends asks the model which topics in recently collected content are
// worth covering, ranks the answers and turns a chosen trend into a content item.
package trends

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"researchpub/internal/analyzer"
	"researchpub/internal/config"
	"researchpub/internal/core"
	"researchpub/internal/llm"
	"researchpub/internal/logger"
	"researchpub/internal/prompts"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"
)

// Composite score weights. Missing sub-scores count as neutralScore.
const (
	noveltyWeight    = 0.25
	impactWeight     = 0.30
	timelinessWeight = 0.25
	engagementWeight = 0.20
	neutralScore     = 50.0
)

const (
	defaultCategory = "ai-trends"
	snippetChars    = 200
	maxTopicIDChars = 50
	maxAngleChars   = 100
)

// ErrInvalidResponse is returned when the model answer holds no usable trend list.
var ErrInvalidResponse = errors.New("invalid trend discovery response")

var unsafeIDChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// Trend is one topic the model considers worth covering.
type Trend struct {
	Topic               string    `json:"topic"`
	Category            string    `json:"category"`
	TrendScore          float64   `json:"trend_score"`
	Novelty             float64   `json:"novelty"`
	Impact              float64   `json:"impact"`
	Timeliness          float64   `json:"timeliness"`
	EngagementPotential float64   `json:"engagement_potential"`
	Description         string    `json:"description"`
	WhyNow              string    `json:"why_now"`
	ContentAngle        string    `json:"content_angle"`
	Sources             []string  `json:"sources"`
	CompositeScore      float64   `json:"composite_score"`
	Mentions            int       `json:"mentions"` // Recent items that mention the topic
	DiscoveredAt        time.Time `json:"discovered_at"`
}

// Report is the outcome of one discovery call.
type Report struct {
	Trends         []Trend   `json:"trends"`
	Recommendation string    `json:"recommendation,omitempty"`
	Analyzed       int       `json:"analyzed"` // Items summarised into the prompt
	GeneratedAt    time.Time `json:"generated_at"`
}

// Options tune a Discoverer.
type Options struct {
	MaxTrends   int
	MaxItems    int
	Temperature float32
	MaxTokens   int32
}

// DefaultOptions returns five trends from at most twenty recent items.
func DefaultOptions() Options {
	return Options{MaxTrends: 5, MaxItems: 20, Temperature: 0.4, MaxTokens: 2000}
}

// OptionsFromConfig maps the trend_discovery config section onto Options.
func OptionsFromConfig(cfg config.Trends) Options {
	opts := DefaultOptions()
	if cfg.MaxTrends > 0 {
		opts.MaxTrends = cfg.MaxTrends
	}
	if cfg.MaxItems > 0 {
		opts.MaxItems = cfg.MaxItems
	}
	return opts
}

// Discoverer runs trend discovery against a Generator.
type Discoverer struct {
	gen  llm.Generator
	opts Options
	now  func() time.Time
	log  zerolog.Logger
}

// NewDiscoverer creates a discoverer. Non-positive limits fall back to DefaultOptions.
func NewDiscoverer(gen llm.Generator, opts Options) *Discoverer {
	def := DefaultOptions()
	if opts.MaxTrends <= 0 {
		opts.MaxTrends = def.MaxTrends
	}
	if opts.MaxItems <= 0 {
		opts.MaxItems = def.MaxItems
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = def.MaxTokens
	}
	return &Discoverer{gen: gen, opts: opts, now: time.Now, log: logger.Component("trends")}
}

// Discover summarises recent items, asks the model for trends and returns the
// top MaxTrends ranked by composite score.
func (d *Discoverer) Discover(ctx context.Context, recent []*core.ContentItem) (*Report, error) {
	now := d.now()
	d.log.Info().Int("items", len(recent)).Msg("Discovering trends")

	summary, analyzed, err := SummarizeContent(recent, d.opts.MaxItems)
	if err != nil {
		return nil, err
	}

	raw, err := d.gen.Generate(ctx, prompts.TrendSystemPrompt,
		prompts.TrendDiscovery(now.Format("2006-01-02"), summary),
		llm.Options{Temperature: llm.Temp(d.opts.Temperature), MaxTokens: d.opts.MaxTokens})
	if err != nil {
		return nil, fmt.Errorf("trend discovery call failed: %w", err)
	}

	found, recommendation, err := ParseResponse(raw)
	if err != nil {
		return nil, err
	}

	ranked := Rank(found, recent, now.UTC())
	if len(ranked) > d.opts.MaxTrends {
		ranked = ranked[:d.opts.MaxTrends]
	}

	d.log.Info().Int("trends", len(ranked)).Msg("Discovered trends")
	return &Report{
		Trends:         ranked,
		Recommendation: recommendation,
		Analyzed:       analyzed,
		GeneratedAt:    now.UTC(),
	}, nil
}

type itemSummary struct {
	Title    string   `json:"title"`
	Source   string   `json:"source"`
	Category string   `json:"category"`
	Date     string   `json:"date"`
	Topics   []string `json:"topics"`
	Snippet  string   `json:"snippet,omitempty"`
}

// SummarizeContent renders the first limit items as the JSON list embedded in
// the discovery prompt. It also returns how many items were included.
func SummarizeContent(items []*core.ContentItem, limit int) (string, int, error) {
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	out := make([]itemSummary, 0, len(items))
	for _, item := range items {
		s := itemSummary{
			Title:    item.Title,
			Source:   item.Source,
			Category: item.Category,
			Date:     item.Published,
			Topics:   item.Topics,
		}
		if s.Date == "" && !item.FetchedAt.IsZero() {
			s.Date = item.FetchedAt.UTC().Format(time.RFC3339)
		}
		if s.Topics == nil {
			s.Topics = []string{}
		}
		if text := strings.TrimSpace(item.Summary); text != "" {
			s.Snippet = firstRunes(text, snippetChars) + "..."
		}
		out = append(out, s)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", 0, fmt.Errorf("encode content summary: %w", err)
	}
	return string(data), len(out), nil
}

const responseSchema = `{
  "type": "object",
  "required": ["trends"],
  "properties": {
    "recommendation": {"type": "string"},
    "trends": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["topic"],
        "properties": {
          "topic": {"type": "string", "minLength": 1},
          "category": {"type": "string"},
          "trend_score": {"type": "number", "minimum": 0, "maximum": 100},
          "novelty": {"type": "number", "minimum": 0, "maximum": 100},
          "impact": {"type": "number", "minimum": 0, "maximum": 100},
          "timeliness": {"type": "number", "minimum": 0, "maximum": 100},
          "engagement_potential": {"type": "number", "minimum": 0, "maximum": 100},
          "description": {"type": "string"},
          "why_now": {"type": "string"},
          "content_angle": {"type": "string"},
          "sources": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

func trendSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(responseSchema))
	})
	return compiledSchema, schemaErr
}

type wireTrend struct {
	Topic               string   `json:"topic"`
	Category            string   `json:"category"`
	TrendScore          *float64 `json:"trend_score"`
	Novelty             *float64 `json:"novelty"`
	Impact              *float64 `json:"impact"`
	Timeliness          *float64 `json:"timeliness"`
	EngagementPotential *float64 `json:"engagement_potential"`
	Description         string   `json:"description"`
	WhyNow              string   `json:"why_now"`
	ContentAngle        string   `json:"content_angle"`
	Sources             []string `json:"sources"`
}

// ParseResponse extracts the {"trends": [...]} document from a model answer,
// tolerating code fences and prose around the JSON object. Missing sub-scores
// are set to the neutral 50.
func ParseResponse(raw string) ([]Trend, string, error) {
	doc := extractObject(analyzer.CleanJSONBlock(raw))
	if doc == "" {
		return nil, "", fmt.Errorf("%w: no JSON object found", ErrInvalidResponse)
	}

	schema, err := trendSchema()
	if err != nil {
		return nil, "", fmt.Errorf("compile trend schema: %w", err)
	}
	res, err := schema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, "", fmt.Errorf("%w: %s", ErrInvalidResponse, strings.Join(msgs, "; "))
	}

	var wire struct {
		Trends         []wireTrend `json:"trends"`
		Recommendation string      `json:"recommendation"`
	}
	if err := json.Unmarshal([]byte(doc), &wire); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	out := make([]Trend, 0, len(wire.Trends))
	for _, w := range wire.Trends {
		out = append(out, Trend{
			Topic:               strings.TrimSpace(w.Topic),
			Category:            w.Category,
			TrendScore:          orNeutral(w.TrendScore),
			Novelty:             orNeutral(w.Novelty),
			Impact:              orNeutral(w.Impact),
			Timeliness:          orNeutral(w.Timeliness),
			EngagementPotential: orNeutral(w.EngagementPotential),
			Description:         w.Description,
			WhyNow:              w.WhyNow,
			ContentAngle:        w.ContentAngle,
			Sources:             w.Sources,
		})
	}
	return out, wire.Recommendation, nil
}

func extractObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

func orNeutral(v *float64) float64 {
	if v == nil {
		return neutralScore
	}
	return *v
}

// CompositeScore weighs novelty, impact, timeliness and engagement potential.
func CompositeScore(t Trend) float64 {
	score := t.Novelty*noveltyWeight +
		t.Impact*impactWeight +
		t.Timeliness*timelinessWeight +
		t.EngagementPotential*engagementWeight
	return math.Round(score*100) / 100
}

// Rank scores every trend, counts how many recent items mention its topic and
// sorts by composite score, then mentions. Ties keep the model's order.
func Rank(found []Trend, recent []*core.ContentItem, now time.Time) []Trend {
	texts := make([]string, len(recent))
	for i, item := range recent {
		texts[i] = strings.ToLower(item.Title + " " + item.Summary + " " + strings.Join(item.Topics, " "))
	}

	ranked := make([]Trend, len(found))
	copy(ranked, found)
	for i := range ranked {
		ranked[i].CompositeScore = CompositeScore(ranked[i])
		ranked[i].Mentions = countMentions(ranked[i].Topic, texts)
		ranked[i].DiscoveredAt = now
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].CompositeScore != ranked[j].CompositeScore {
			return ranked[i].CompositeScore > ranked[j].CompositeScore
		}
		return ranked[i].Mentions > ranked[j].Mentions
	})
	return ranked
}

// countMentions counts texts holding at least half of the topic's keywords.
// Keywords are the topic words of four or more letters.
func countMentions(topic string, texts []string) int {
	var keywords []string
	for _, w := range strings.FieldsFunc(strings.ToLower(topic), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	}) {
		if utf8.RuneCountInString(w) >= 4 {
			keywords = append(keywords, w)
		}
	}
	if len(keywords) == 0 {
		return 0
	}

	n := 0
	for _, text := range texts {
		hits := 0
		for _, k := range keywords {
			if strings.Contains(text, k) {
				hits++
			}
		}
		if hits*2 >= len(keywords) {
			n++
		}
	}
	return n
}

// ToContentItem turns a trend into an item the generate workflow can analyze.
// Its score is the composite rescaled onto the ranker's 0-10 range.
func ToContentItem(t Trend, now time.Time) *core.ContentItem {
	now = now.UTC()
	topic := t.Topic
	if topic == "" {
		topic = "unknown"
	}
	safe := unsafeIDChars.ReplaceAllString(topic, "_")
	if len(safe) > maxTopicIDChars {
		safe = safe[:maxTopicIDChars]
	}

	category := t.Category
	if category == "" {
		category = defaultCategory
	}

	url := "#"
	for _, src := range t.Sources {
		if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
			url = src
			break
		}
	}

	summary := strings.TrimSpace(t.Description)
	if t.WhyNow != "" {
		summary += "\n\nWhy now: " + strings.TrimSpace(t.WhyNow)
	}
	if t.ContentAngle != "" {
		summary += "\n\nContent angle: " + strings.TrimSpace(t.ContentAngle)
	}

	composite := t.CompositeScore
	if composite == 0 {
		composite = CompositeScore(t)
	}

	return &core.ContentItem{
		ID:              fmt.Sprintf("trend_%s_%s", now.Format("20060102_150405"), safe),
		Title:           TrendTitle(t),
		URL:             url,
		Summary:         strings.TrimSpace(summary),
		Source:          core.SourceTrends,
		SourceName:      "Trend Discovery",
		SourcePriority:  core.PriorityHigh,
		Published:       now.Format(time.RFC3339),
		Category:        category,
		Topics:          []string{t.Topic},
		EngagementScore: int(math.Round(t.TrendScore)),
		Score:           math.Round(composite*10) / 100,
		FetchedAt:       now,
	}
}

// TrendTitle is "<topic>: <angle>" when a short content angle exists,
// otherwise "<topic> - <Category Words>".
func TrendTitle(t Trend) string {
	topic := t.Topic
	if topic == "" {
		topic = "Emerging AI Trend"
	}
	if angle := strings.TrimSpace(t.ContentAngle); angle != "" && len(angle) < maxAngleChars {
		return topic + ": " + angle
	}
	words := strings.Fields(strings.ReplaceAll(t.Category, "-", " "))
	if len(words) == 0 {
		return topic
	}
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return topic + " - " + strings.Join(words, " ")
}

func firstRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
