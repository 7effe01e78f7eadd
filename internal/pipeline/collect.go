package pipeline

import (
	"context"
	"fmt"
	"strings"

	"researchpub/internal/core"
	"researchpub/internal/sources"
)

// CollectOptions configures a collect run
type CollectOptions struct {
	Sources []string // Empty means every enabled source
}

// CollectResult reports how many items survived each step
type CollectResult struct {
	Fetched  int
	Relevant int
	Unique   int
	Items    []*core.ContentItem // Ranked, highest score first
	Sources  []sources.Result
}

// Collect fetches, filters, deduplicates, ranks and persists items. A failing
// source contributes no items; only a store failure aborts the run.
func (p *Pipeline) Collect(ctx context.Context, opts CollectOptions) (*CollectResult, error) {
	run := &core.Run{Kind: core.RunKindCollect, StartedAt: p.now().UTC()}

	items, results := p.fetcher.FetchAll(ctx, opts.Sources...)
	res := &CollectResult{Fetched: len(items), Sources: results}

	var failed []string
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r.Source)
		}
	}
	p.log.Info().Int("items", len(items)).Strs("failed_sources", failed).Msg("Fetched content")

	for _, f := range p.filters {
		items = f.Filter(items)
	}
	res.Relevant = len(items)

	items = p.dedup.Deduplicate(items)
	res.Unique = len(items)

	res.Items = p.ranker.Rank(items)
	p.log.Info().
		Int("fetched", res.Fetched).
		Int("relevant", res.Relevant).
		Int("unique", res.Unique).
		Msg("Ranked content")

	run.Processed = res.Fetched
	run.Succeeded = len(res.Items)
	run.Failed = len(failed)
	if len(failed) > 0 {
		run.Notes = "failed sources: " + strings.Join(failed, ", ")
	}

	if err := p.store.SaveItems(ctx, res.Items); err != nil {
		run.Notes = strings.TrimSpace(run.Notes + " save failed: " + err.Error())
		p.recordRun(ctx, run)
		return res, fmt.Errorf("failed to persist ranked items: %w", err)
	}
	p.recordRun(ctx, run)
	return res, nil
}
