// Package analyzer runs content items through the staged LLM prompt pipeline.
package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"researchpub/internal/config"
	"researchpub/internal/core"
	"researchpub/internal/llm"
	"researchpub/internal/logger"
	"researchpub/internal/prompts"

	"github.com/rs/zerolog"
)

// Options configures the analyzer behavior
type Options struct {
	BlogMaxTokens     int32    // Token budget for long-form blog generation
	LinkedInMaxTokens int32    // Token budget for LinkedIn generation
	EngagingLinkedIn  bool     // Use the engaging LinkedIn prompt instead of the analytical one
	ProfanityList     []string // Words rejected by the heuristic safety validator
}

// DefaultOptions returns the standard token budgets
func DefaultOptions() Options {
	return Options{
		BlogMaxTokens:     3000,
		LinkedInMaxTokens: 500,
	}
}

// OptionsFromConfig maps the formatting section onto analyzer options
func OptionsFromConfig(cfg config.Formatting) Options {
	opts := DefaultOptions()
	if cfg.Blog.MaxTokens > 0 {
		opts.BlogMaxTokens = cfg.Blog.MaxTokens
	}
	if cfg.LinkedIn.MaxTokens > 0 {
		opts.LinkedInMaxTokens = cfg.LinkedIn.MaxTokens
	}
	opts.EngagingLinkedIn = cfg.LinkedIn.Engaging
	opts.ProfanityList = cfg.LinkedIn.ProfanityList
	return opts
}

// Analyzer runs a fixed, ordered list of stages against each item.
type Analyzer struct {
	gen     llm.Generator
	stages  []prompts.Stage
	options Options
	now     func() time.Time
	log     zerolog.Logger
}

// New creates an analyzer. An empty stage list uses prompts.DefaultStages.
// Repeated stages run once, at their first position.
func New(gen llm.Generator, stages []prompts.Stage, options Options) *Analyzer {
	if len(stages) == 0 {
		stages = prompts.DefaultStages
	}
	owned := make([]prompts.Stage, 0, len(stages))
	seen := make(map[prompts.Stage]bool, len(stages))
	for _, s := range stages {
		if seen[s] {
			continue
		}
		seen[s] = true
		owned = append(owned, s)
	}

	a := &Analyzer{
		gen:     gen,
		stages:  owned,
		options: options,
		now:     time.Now,
		log:     logger.Component("analyzer"),
	}
	a.log.Info().Int("stages", len(owned)).Msg("Initialized analyzer")
	return a
}

// NewFromNames parses stage names and creates an analyzer. An unknown name is
// returned as an error wrapping prompts.ErrUnknownStage.
func NewFromNames(gen llm.Generator, names []string, options Options) (*Analyzer, error) {
	stages, err := prompts.ParseStages(names)
	if err != nil {
		return nil, err
	}
	return New(gen, stages, options), nil
}

// Stages returns the configured stage order.
func (a *Analyzer) Stages() []prompts.Stage {
	out := make([]prompts.Stage, len(a.stages))
	copy(out, a.stages)
	return out
}

// StageOutcome is the result of one stage: generated text or an error.
type StageOutcome struct {
	Stage prompts.Stage
	Text  string
	Err   error
}

// OK reports whether the stage produced text.
func (o StageOutcome) OK() bool {
	return o.Err == nil
}

// record stores the outcome in result and updates the bookkeeping lists.
func record(result *core.AnalysisResult, o StageOutcome) {
	name := string(o.Stage)
	if o.OK() {
		result.Stages[name] = o.Text
		result.CompletedStages = append(result.CompletedStages, name)
		return
	}
	result.Stages[name] = core.ErrorPrefix + o.Err.Error()
	result.FailedStages = append(result.FailedStages, name)
}

// Analyze runs every configured stage in order. A failing stage is recorded
// and the next stage still runs; Success is true only when none failed.
func (a *Analyzer) Analyze(ctx context.Context, item *core.ContentItem) *core.AnalysisResult {
	a.log.Info().Str("title", item.Title).Msg("Analyzing item")

	result := core.NewAnalysisResult(item)
	content := PrepareContent(item)

	for _, stage := range a.stages {
		a.log.Debug().Str("stage", string(stage)).Msg("Running stage")
		outcome := a.runStage(ctx, stage, item, content, result, llm.Options{})
		if !outcome.OK() {
			a.log.Error().Err(outcome.Err).Str("stage", string(stage)).Msg("Stage failed")
		}
		record(result, outcome)
	}

	result.Success = len(result.FailedStages) == 0
	result.AnalyzedAt = a.now().UTC()

	a.log.Info().
		Str("title", item.Title).
		Int("completed", len(result.CompletedStages)).
		Int("failed", len(result.FailedStages)).
		Msg("Analysis complete")
	return result
}

func (a *Analyzer) runStage(ctx context.Context, stage prompts.Stage, item *core.ContentItem, content string, prior *core.AnalysisResult, opts llm.Options) StageOutcome {
	prompt, err := prompts.Build(stage, stageInput(stage, item, content, prior))
	if err != nil {
		return StageOutcome{Stage: stage, Err: err}
	}
	text, err := a.gen.Generate(ctx, prompts.SystemFor(stage), prompt, opts)
	if err != nil {
		return StageOutcome{Stage: stage, Err: err}
	}
	return StageOutcome{Stage: stage, Text: strings.TrimSpace(text)}
}

func stageInput(stage prompts.Stage, item *core.ContentItem, content string, prior *core.AnalysisResult) prompts.Input {
	in := itemInput(item)
	in.Content = content
	switch stage.Kind() {
	case prompts.KindSynthesis:
		in.AnalyzedContent = FormatAnalysis(prior)
	case prompts.KindReview:
		in.GeneratedOutput = latestGenerated(prior, content)
	}
	return in
}

func itemInput(item *core.ContentItem) prompts.Input {
	return prompts.Input{
		Title:    item.Title,
		URL:      item.URL,
		Summary:  item.Summary,
		Topics:   item.Topics,
		Language: item.Language,
		Stars:    item.Stars,
		Forks:    item.Forks,
	}
}

// latestGenerated returns the newest successful synthesis output, falling back to content.
func latestGenerated(prior *core.AnalysisResult, content string) string {
	for i := len(prior.CompletedStages) - 1; i >= 0; i-- {
		name := prior.CompletedStages[i]
		if prompts.Stage(name).Kind() == prompts.KindSynthesis {
			return prior.Stages[name]
		}
	}
	return content
}

// PrepareContent renders an item as the text consumed by raw stages.
func PrepareContent(item *core.ContentItem) string {
	parts := []string{
		"Title: " + orNA(item.Title),
		"Source: " + orNA(item.Source),
		"URL: " + orNA(item.URL),
	}
	if len(item.Authors) > 0 {
		parts = append(parts, "Authors: "+strings.Join(item.Authors, ", "))
	}
	if item.Published != "" {
		parts = append(parts, "Published: "+item.Published)
	}
	if item.Summary != "" {
		parts = append(parts, "\nContent:\n"+item.Summary)
	}
	if item.Category != "" {
		parts = append(parts, "Category: "+item.Category)
	}
	if len(item.Topics) > 0 {
		parts = append(parts, "Topics: "+strings.Join(item.Topics, ", "))
	}
	return strings.Join(parts, "\n")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// FormatAnalysis renders the successful core stage outputs under "## <Title Case>"
// headings separated by blank lines. Failed or missing stages are omitted.
func FormatAnalysis(result *core.AnalysisResult) string {
	if result == nil {
		return ""
	}
	var parts []string
	for _, stage := range prompts.CoreStages {
		text := result.Get(string(stage))
		if text == "" {
			continue
		}
		parts = append(parts, "## "+stage.Heading(), text, "")
	}
	return strings.Join(parts, "\n")
}

// GenerateBlog writes a long-form article from an analysis.
func (a *Analyzer) GenerateBlog(ctx context.Context, result *core.AnalysisResult) (string, error) {
	a.log.Info().Str("title", result.Title).Msg("Generating blog article")
	return a.synthesize(ctx, prompts.BlogSynthesis, result, a.options.BlogMaxTokens)
}

// GenerateLinkedIn writes a short post from an analysis.
func (a *Analyzer) GenerateLinkedIn(ctx context.Context, result *core.AnalysisResult) (string, error) {
	a.log.Info().Str("title", result.Title).Msg("Generating LinkedIn post")
	stage := prompts.LinkedInFormatting
	if a.options.EngagingLinkedIn {
		stage = prompts.LinkedInEngaging
	}
	return a.synthesize(ctx, stage, result, a.options.LinkedInMaxTokens)
}

func (a *Analyzer) synthesize(ctx context.Context, stage prompts.Stage, result *core.AnalysisResult, maxTokens int32) (string, error) {
	prompt, err := prompts.Build(stage, prompts.Input{
		Title:           result.Title,
		URL:             result.URL,
		AnalyzedContent: FormatAnalysis(result),
	})
	if err != nil {
		return "", err
	}
	text, err := a.gen.Generate(ctx, prompts.SystemFor(stage), prompt, llm.Options{MaxTokens: maxTokens})
	if err != nil {
		return "", fmt.Errorf("%s: %w", stage, err)
	}
	return strings.TrimSpace(text), nil
}

// CredibilityCheck asks the model to review generated text for unsupported claims.
func (a *Analyzer) CredibilityCheck(ctx context.Context, generated string) (string, error) {
	a.log.Info().Msg("Running credibility check")
	prompt, err := prompts.Build(prompts.CredibilityCheck, prompts.Input{GeneratedOutput: generated})
	if err != nil {
		return "", err
	}
	text, err := a.gen.Generate(ctx, prompts.SystemPrompt, prompt, llm.Options{})
	if err != nil {
		return "", fmt.Errorf("credibility check: %w", err)
	}
	return strings.TrimSpace(text), nil
}
