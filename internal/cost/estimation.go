// Package cost estimates the token usage and price of a generate run without
// calling a provider.
package cost

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"unicode/utf8"

	"researchpub/internal/analyzer"
	"researchpub/internal/core"
	"researchpub/internal/llm"
	"researchpub/internal/prompts"
)

// Pricing is the list price of a model in USD
type Pricing struct {
	Model             string
	InputPer1M        float64 // Cost per 1M input tokens
	OutputPer1M       float64 // Cost per 1M output tokens
	RequestsPerMinute int     // Provider rate limit
}

// PricingTable holds list prices for the models the providers default to
var PricingTable = map[string]Pricing{
	"sonar":            {Model: "sonar", InputPer1M: 1.00, OutputPer1M: 1.00, RequestsPerMinute: 50},
	"sonar-pro":        {Model: "sonar-pro", InputPer1M: 3.00, OutputPer1M: 15.00, RequestsPerMinute: 50},
	"gpt-4o-mini":      {Model: "gpt-4o-mini", InputPer1M: 0.15, OutputPer1M: 0.60, RequestsPerMinute: 500},
	"gpt-4o":           {Model: "gpt-4o", InputPer1M: 2.50, OutputPer1M: 10.00, RequestsPerMinute: 500},
	"gemini-2.0-flash": {Model: "gemini-2.0-flash", InputPer1M: 0.10, OutputPer1M: 0.40, RequestsPerMinute: 1000},
	"gemini-1.5-pro":   {Model: "gemini-1.5-pro", InputPer1M: 1.25, OutputPer1M: 5.00, RequestsPerMinute: 360},
}

// LookupPricing returns the pricing for model and whether it is known
func LookupPricing(model string) (Pricing, bool) {
	p, ok := PricingTable[strings.ToLower(strings.TrimSpace(model))]
	if !ok {
		return Pricing{Model: model}, false
	}
	return p, true
}

// EstimateTokenCount approximates tokens as one per 3.5 characters.
func EstimateTokenCount(text string) int {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "\n", " ")
	return int(math.Ceil(float64(utf8.RuneCountInString(text)) / 3.5))
}

// Call is one recorded generation request
type Call struct {
	InputTokens  int
	OutputTokens int
}

// Recorder is an llm.Generator that answers every prompt with filler of the
// full output budget and records what each call would have cost.
type Recorder struct {
	mu            sync.Mutex
	defaultOutput int32
	calls         []Call
}

// NewRecorder creates a recorder. defaultOutput is used when a call sets no MaxTokens.
func NewRecorder(defaultOutput int32) *Recorder {
	if defaultOutput <= 0 {
		defaultOutput = 2000
	}
	return &Recorder{defaultOutput: defaultOutput}
}

var _ llm.Generator = (*Recorder)(nil)

// Generate records the call and returns filler text
func (r *Recorder) Generate(ctx context.Context, systemPrompt, userPrompt string, opts llm.Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	out := opts.MaxTokens
	if out <= 0 {
		out = r.defaultOutput
	}
	r.mu.Lock()
	r.calls = append(r.calls, Call{
		InputTokens:  EstimateTokenCount(systemPrompt) + EstimateTokenCount(userPrompt),
		OutputTokens: int(out),
	})
	r.mu.Unlock()
	return filler(int(out)), nil
}

// Drain returns the calls recorded since the last drain
func (r *Recorder) Drain() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	calls := r.calls
	r.calls = nil
	return calls
}

// filler returns text that EstimateTokenCount counts as n tokens
func filler(tokens int) string {
	chars := int(float64(tokens) * 3.5)
	return strings.Repeat("word ", chars/5+1)[:chars]
}

// Plan describes what a generate run would do per item
type Plan struct {
	Stages           []prompts.Stage
	Formats          []string
	Analyzer         analyzer.Options
	ValidateSafety   bool
	ArxivEnhancement bool
	StageTokens      int32 // Output budget of calls without their own limit
}

// ItemEstimate is the estimate for one item
type ItemEstimate struct {
	ItemID       string
	Title        string
	Calls        int
	InputTokens  int
	OutputTokens int
	Cost         float64
}

// RunEstimate is the estimate for a whole run. Output tokens are the full
// budget of each call, so costs are an upper bound.
type RunEstimate struct {
	Model            string
	KnownModel       bool
	Items            []ItemEstimate
	Calls            int
	InputTokens      int
	OutputTokens     int
	TotalCost        float64
	Minutes          float64
	RateLimitWarning string
}

// Estimate replays the generate flow for items against a Recorder
func Estimate(ctx context.Context, items []*core.ContentItem, plan Plan, model string, requestsPerMinute int) (*RunEstimate, error) {
	pricing, known := LookupPricing(model)
	rec := NewRecorder(plan.StageTokens)
	a := analyzer.New(rec, plan.Stages, plan.Analyzer)
	enhancer := analyzer.NewArxivEnhancer(rec, 0)

	medium := contains(plan.Formats, core.FormatMedium)
	est := &RunEstimate{Model: model, KnownModel: known, Items: make([]ItemEstimate, 0, len(items))}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if plan.ArxivEnhancement && item.Source == core.SourceArxiv {
			enhancer.Enhance(ctx, item)
		}

		var result *core.AnalysisResult
		if medium {
			result = a.AnalyzeForMedium(ctx, item)
		} else {
			result = a.Analyze(ctx, item)
		}
		if contains(plan.Formats, core.FormatBlog) {
			if _, err := a.GenerateBlog(ctx, result); err != nil {
				return nil, err
			}
		}
		if contains(plan.Formats, core.FormatLinkedIn) {
			post, err := a.GenerateLinkedIn(ctx, result)
			if err != nil {
				return nil, err
			}
			if plan.ValidateSafety {
				a.ValidateLinkedInSafety(ctx, post)
			}
		}

		ie := ItemEstimate{ItemID: item.ID, Title: item.Title}
		for _, c := range rec.Drain() {
			ie.Calls++
			ie.InputTokens += c.InputTokens
			ie.OutputTokens += c.OutputTokens
		}
		ie.Cost = price(pricing, ie.InputTokens, ie.OutputTokens)

		est.Items = append(est.Items, ie)
		est.Calls += ie.Calls
		est.InputTokens += ie.InputTokens
		est.OutputTokens += ie.OutputTokens
		est.TotalCost += ie.Cost
	}

	limit := requestsPerMinute
	if limit <= 0 {
		limit = pricing.RequestsPerMinute
	}
	if limit > 0 {
		est.Minutes = float64(est.Calls) / float64(limit)
		if pricing.RequestsPerMinute > 0 && limit > pricing.RequestsPerMinute {
			est.RateLimitWarning = fmt.Sprintf("configured %d requests/min exceeds the %d/min limit for %s",
				limit, pricing.RequestsPerMinute, pricing.Model)
		}
	}
	return est, nil
}

func price(p Pricing, in, out int) float64 {
	return float64(in)*p.InputPer1M/1e6 + float64(out)*p.OutputPer1M/1e6
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Format renders the estimate for display
func (e *RunEstimate) Format() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Cost Estimation for %s\n", e.Model))
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	sb.WriteString("📊 Summary:\n")
	sb.WriteString(fmt.Sprintf("   Items to process: %d\n", len(e.Items)))
	sb.WriteString(fmt.Sprintf("   LLM calls: %d\n", e.Calls))
	sb.WriteString(fmt.Sprintf("   Input tokens: ~%d\n", e.InputTokens))
	sb.WriteString(fmt.Sprintf("   Output tokens: up to %d\n", e.OutputTokens))
	if e.KnownModel {
		sb.WriteString(fmt.Sprintf("   Estimated cost: up to $%.4f\n", e.TotalCost))
	} else {
		sb.WriteString("   Estimated cost: unknown (no pricing for this model)\n")
	}
	if e.Minutes > 0 {
		sb.WriteString(fmt.Sprintf("   Minimum duration at rate limit: %.1f minutes\n", e.Minutes))
	}
	if e.RateLimitWarning != "" {
		sb.WriteString(fmt.Sprintf("   ⚠️  %s\n", e.RateLimitWarning))
	}

	if len(e.Items) > 0 {
		sb.WriteString("\n📝 Per-item estimates:\n")
		for i, it := range e.Items {
			if e.KnownModel {
				sb.WriteString(fmt.Sprintf("   %d. $%.4f  %d calls  %s\n", i+1, it.Cost, it.Calls, it.Title))
			} else {
				sb.WriteString(fmt.Sprintf("   %d. %d calls  %d tokens  %s\n", i+1, it.Calls, it.InputTokens+it.OutputTokens, it.Title))
			}
		}
	}
	return sb.String()
}
