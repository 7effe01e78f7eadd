package pipeline

import (
	"context"

	"researchpub/internal/analyzer"
	"researchpub/internal/core"
	"researchpub/internal/sources"
	"researchpub/internal/store"
)

// ItemFetcher collects raw items from the configured sources.
// Implemented by: sources.Manager
type ItemFetcher interface {
	FetchAll(ctx context.Context, only ...string) ([]*core.ContentItem, []sources.Result)
}

// ItemFilter drops items that should not enter the pipeline.
// Implemented by: relevance.Filter, relevance.LanguageFilter
type ItemFilter interface {
	Filter(items []*core.ContentItem) []*core.ContentItem
}

// Deduplicator removes repeated items, keeping the first occurrence.
// Implemented by: dedup.Deduplicator
type Deduplicator interface {
	Deduplicate(items []*core.ContentItem) []*core.ContentItem
}

// Ranker orders items by composite score.
// Implemented by: ranking.Ranker
type Ranker interface {
	Rank(items []*core.ContentItem) []*core.ContentItem
}

// ContentAnalyzer runs the staged LLM analysis and writes draft bodies.
// Implemented by: analyzer.Analyzer
type ContentAnalyzer interface {
	Analyze(ctx context.Context, item *core.ContentItem) *core.AnalysisResult
	AnalyzeForMedium(ctx context.Context, item *core.ContentItem) *core.AnalysisResult
	GenerateBlog(ctx context.Context, result *core.AnalysisResult) (string, error)
	GenerateLinkedIn(ctx context.Context, result *core.AnalysisResult) (string, error)
	ValidateLinkedInSafety(ctx context.Context, post string) analyzer.ValidationReport
}

// PaperEnhancer scores arXiv papers for practitioner relevance.
// Implemented by: analyzer.ArxivEnhancer
type PaperEnhancer interface {
	Enhance(ctx context.Context, item *core.ContentItem) analyzer.Enhancement
}

// Store persists items, analyses, drafts and run history.
// Implemented by: store.Store
type Store interface {
	SaveItems(ctx context.Context, items []*core.ContentItem) error
	ListItems(ctx context.Context, opts store.ListOptions) ([]store.StoredItem, error)
	GetItem(ctx context.Context, id string) (store.StoredItem, error)
	SetItemStatus(ctx context.Context, id, status string) error
	SaveAnalysis(ctx context.Context, result *core.AnalysisResult) error
	SaveDraft(ctx context.Context, d *core.Draft) error
	GetDraft(ctx context.Context, id string) (*core.Draft, error)
	UpdateDraftStatus(ctx context.Context, id string, u store.DraftUpdate) error
	RecordRun(ctx context.Context, r *core.Run) error
}
