package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"researchpub/internal/core"
	"researchpub/internal/render"
	"researchpub/internal/store"
)

// ErrNoAnalyzer is returned by Generate when the pipeline was built without an analyzer.
var ErrNoAnalyzer = errors.New("pipeline has no analyzer")

// GenerateOptions configures a generate run
type GenerateOptions struct {
	Count   int      // Top ranked items to process, defaults to 5
	Formats []string // blog, linkedin, medium; empty means blog and linkedin
	ItemIDs []string // Explicit items instead of the top ranked ones
}

// ItemOutcome reports what happened to one item
type ItemOutcome struct {
	ItemID  string
	Title   string
	Drafts  []*core.Draft
	Skipped string // Reason the item was not analyzed
	Err     error
}

// GenerateResult aggregates per-item outcomes
type GenerateResult struct {
	Items     []ItemOutcome
	Succeeded int
	Failed    int
	Skipped   int
	Drafts    int
	Flagged   int // LinkedIn drafts that did not pass safety review
}

// ParseFormats expands "all" and validates format names
func ParseFormats(names []string) ([]string, error) {
	if len(names) == 0 {
		return []string{core.FormatBlog, core.FormatLinkedIn}, nil
	}
	seen := make(map[string]bool)
	var out []string
	add := func(f string) {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	for _, name := range names {
		switch f := strings.ToLower(strings.TrimSpace(name)); f {
		case "all":
			add(core.FormatBlog)
			add(core.FormatLinkedIn)
			add(core.FormatMedium)
		case "both":
			add(core.FormatBlog)
			add(core.FormatLinkedIn)
		case core.FormatBlog, core.FormatLinkedIn, core.FormatMedium:
			add(f)
		default:
			return nil, fmt.Errorf("unknown format %q", name)
		}
	}
	return out, nil
}

// Generate analyzes the selected items and writes drafts for each format.
// Item failures are counted and never stop the run.
func (p *Pipeline) Generate(ctx context.Context, opts GenerateOptions) (*GenerateResult, error) {
	if p.analyzer == nil {
		return nil, ErrNoAnalyzer
	}
	formats, err := ParseFormats(opts.Formats)
	if err != nil {
		return nil, err
	}
	items, err := p.SelectItems(ctx, opts)
	if err != nil {
		return nil, err
	}

	run := &core.Run{Kind: core.RunKindGenerate, StartedAt: p.now().UTC()}
	res := &GenerateResult{}

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		p.log.Info().
			Int("index", i+1).
			Int("total", len(items)).
			Str("item", item.ID).
			Str("title", item.Title).
			Msg("Generating drafts")

		outcome := p.generateItem(ctx, item, formats)
		switch {
		case outcome.Skipped != "":
			res.Skipped++
		case outcome.Err != nil:
			res.Failed++
			p.log.Error().Err(outcome.Err).Str("item", item.ID).Msg("Item generation failed")
		default:
			res.Succeeded++
		}
		for _, d := range outcome.Drafts {
			res.Drafts++
			if d.Format == core.FormatLinkedIn && d.Error != "" {
				res.Flagged++
			}
		}
		res.Items = append(res.Items, outcome)
	}

	run.Processed = len(items)
	run.Succeeded = res.Succeeded
	run.Failed = res.Failed
	run.Notes = fmt.Sprintf("formats=%s drafts=%d skipped=%d flagged=%d",
		strings.Join(formats, ","), res.Drafts, res.Skipped, res.Flagged)
	p.recordRun(ctx, run)
	return res, nil
}

// SelectItems resolves the items a generate run with opts would process
func (p *Pipeline) SelectItems(ctx context.Context, opts GenerateOptions) ([]*core.ContentItem, error) {
	if len(opts.ItemIDs) > 0 {
		items := make([]*core.ContentItem, 0, len(opts.ItemIDs))
		for _, id := range opts.ItemIDs {
			stored, err := p.store.GetItem(ctx, id)
			if err != nil {
				return nil, err
			}
			items = append(items, stored.Item)
		}
		return items, nil
	}

	count := opts.Count
	if count <= 0 {
		count = 5
	}
	stored, err := p.store.ListItems(ctx, store.ListOptions{Status: core.ItemStatusRanked, Limit: count})
	if err != nil {
		return nil, fmt.Errorf("failed to load ranked items: %w", err)
	}
	items := make([]*core.ContentItem, len(stored))
	for i, s := range stored {
		items[i] = s.Item
	}
	return items, nil
}

func (p *Pipeline) generateItem(ctx context.Context, item *core.ContentItem, formats []string) ItemOutcome {
	outcome := ItemOutcome{ItemID: item.ID, Title: item.Title}

	if p.enhancer != nil && item.Source == core.SourceArxiv {
		e := p.enhancer.Enhance(ctx, item)
		if !e.Relevant {
			outcome.Skipped = fmt.Sprintf("relevancy %.1f: %s", e.RelevancyScore, e.RelevancyReason)
			p.log.Info().Str("item", item.ID).Float64("score", e.RelevancyScore).Msg("Skipping low relevancy paper")
			p.setStatus(ctx, item.ID, core.ItemStatusSkipped)
			return outcome
		}
	}

	var analysis *core.AnalysisResult
	if contains(formats, core.FormatMedium) {
		analysis = p.analyzer.AnalyzeForMedium(ctx, item)
	} else {
		analysis = p.analyzer.Analyze(ctx, item)
	}
	if err := p.store.SaveAnalysis(ctx, analysis); err != nil {
		p.log.Warn().Err(err).Str("item", item.ID).Msg("Failed to save analysis")
	}
	if len(analysis.CompletedStages) == 0 {
		outcome.Err = fmt.Errorf("every analysis stage failed: %s", strings.Join(analysis.FailedStages, ", "))
		return outcome
	}

	var errs []error
	for _, format := range formats {
		draft, err := p.buildDraft(ctx, item, analysis, format)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", format, err))
			continue
		}
		outcome.Drafts = append(outcome.Drafts, draft)
	}
	if len(outcome.Drafts) > 0 {
		p.setStatus(ctx, item.ID, core.ItemStatusAnalyzed)
	}
	outcome.Err = errors.Join(errs...)
	return outcome
}

func (p *Pipeline) buildDraft(ctx context.Context, item *core.ContentItem, analysis *core.AnalysisResult, format string) (*core.Draft, error) {
	now := p.now().UTC()
	draft := &core.Draft{ItemID: item.ID, Format: format, Title: item.Title}

	switch format {
	case core.FormatBlog:
		body, err := p.analyzer.GenerateBlog(ctx, analysis)
		if err != nil {
			return nil, err
		}
		if draft.Content, err = render.Blog(item, body, p.config.BlogAuthor, now); err != nil {
			return nil, err
		}
	case core.FormatLinkedIn:
		body, err := p.analyzer.GenerateLinkedIn(ctx, analysis)
		if err != nil {
			return nil, err
		}
		draft.Content = render.LinkedIn(item, body, p.config.HashtagCount)
		if p.config.ValidateSafety {
			report := p.analyzer.ValidateLinkedInSafety(ctx, draft.Content)
			if !report.Approved {
				draft.Error = "safety review: " + report.Summary
				p.log.Warn().
					Str("item", item.ID).
					Int("score", report.ValidationScore).
					Str("method", report.Method).
					Msg("LinkedIn draft flagged")
			}
		}
	case core.FormatMedium:
		var err error
		if draft.Content, err = render.Medium(item, analysis, p.config.Medium, now); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}

	path, err := render.WriteDraft(p.config.OutputDir, format, item.Title, draft.Content, now)
	if err != nil {
		return nil, err
	}
	draft.Path = path
	if err := p.store.SaveDraft(ctx, draft); err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}
	p.log.Info().Str("format", format).Str("path", path).Str("draft", draft.ID).Msg("Draft written")
	return draft, nil
}

func (p *Pipeline) setStatus(ctx context.Context, id, status string) {
	if err := p.store.SetItemStatus(ctx, id, status); err != nil {
		p.log.Warn().Err(err).Str("item", id).Str("status", status).Msg("Failed to update item status")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
