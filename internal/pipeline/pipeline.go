// Package pipeline wires fetching, filtering, ranking, analysis, formatting
// and publishing into the collect, generate and publish workflows.
package pipeline

import (
	"context"
	"time"

	"researchpub/internal/core"
	"researchpub/internal/logger"
	"researchpub/internal/publishers"
	"researchpub/internal/render"

	"github.com/rs/zerolog"
)

// Pipeline orchestrates the three workflows over a shared store.
type Pipeline struct {
	// Collect
	fetcher ItemFetcher
	filters []ItemFilter
	dedup   Deduplicator
	ranker  Ranker

	// Generate
	analyzer ContentAnalyzer
	enhancer PaperEnhancer // Optional, arXiv items only

	// Publish
	publishers map[string]publishers.Publisher

	store  Store
	config *Config
	now    func() time.Time
	log    zerolog.Logger
}

// Config holds pipeline settings that are not owned by a component
type Config struct {
	OutputDir      string
	BlogAuthor     string
	HashtagCount   int
	Medium         render.MediumOptions
	ValidateSafety bool
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		OutputDir:      "drafts",
		BlogAuthor:     render.DefaultAuthor,
		HashtagCount:   render.DefaultHashtagCount,
		Medium:         render.MediumOptions{IncludeDiagrams: true, IncludeReferences: true},
		ValidateSafety: true,
	}
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithFilters sets the relevance filters, applied in order
func WithFilters(filters ...ItemFilter) Option {
	return func(p *Pipeline) { p.filters = filters }
}

// WithAnalyzer enables the generate workflow
func WithAnalyzer(a ContentAnalyzer) Option {
	return func(p *Pipeline) { p.analyzer = a }
}

// WithEnhancer gates arXiv papers on a relevancy score before analysis
func WithEnhancer(e PaperEnhancer) Option {
	return func(p *Pipeline) { p.enhancer = e }
}

// WithPublishers sets the available publishers keyed by platform
func WithPublishers(pubs map[string]publishers.Publisher) Option {
	return func(p *Pipeline) { p.publishers = pubs }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline creates a pipeline. Generate requires WithAnalyzer.
func NewPipeline(fetcher ItemFetcher, dedup Deduplicator, ranker Ranker, st Store, config *Config, opts ...Option) *Pipeline {
	if config == nil {
		config = DefaultConfig()
	}
	p := &Pipeline{
		fetcher: fetcher,
		dedup:   dedup,
		ranker:  ranker,
		store:   st,
		config:  config,
		now:     time.Now,
		log:     logger.Component("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) recordRun(ctx context.Context, run *core.Run) {
	run.FinishedAt = p.now().UTC()
	if err := p.store.RecordRun(ctx, run); err != nil {
		p.log.Warn().Err(err).Str("kind", run.Kind).Msg("Failed to record run")
	}
}
