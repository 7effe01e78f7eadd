package pipeline

import (
	"context"
	"fmt"
	"net/http"

	"researchpub/internal/analyzer"
	"researchpub/internal/config"
	"researchpub/internal/dedup"
	"researchpub/internal/llm"
	"researchpub/internal/publishers"
	"researchpub/internal/ranking"
	"researchpub/internal/relevance"
	"researchpub/internal/render"
	"researchpub/internal/sources"
)

// Builder assembles a Pipeline from application configuration.
type Builder struct {
	cfg        *config.Config
	store      Store
	fetcher    ItemFetcher
	generator  llm.Generator
	httpClient *http.Client
	withLLM    bool
}

// NewBuilder creates a builder for cfg
func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{cfg: cfg}
}

// WithStore sets the persistence layer. Required.
func (b *Builder) WithStore(st Store) *Builder {
	b.store = st
	return b
}

// WithFetcher replaces the configured sources
func (b *Builder) WithFetcher(f ItemFetcher) *Builder {
	b.fetcher = f
	return b
}

// WithLLM enables the generate workflow using the configured provider
func (b *Builder) WithLLM() *Builder {
	b.withLLM = true
	return b
}

// WithGenerator enables the generate workflow with an explicit generator
func (b *Builder) WithGenerator(gen llm.Generator) *Builder {
	b.generator = gen
	b.withLLM = true
	return b
}

// WithHTTPClient sets the client used by publishers
func (b *Builder) WithHTTPClient(c *http.Client) *Builder {
	b.httpClient = c
	return b
}

// Build creates the pipeline
func (b *Builder) Build(ctx context.Context) (*Pipeline, error) {
	if b.cfg == nil {
		return nil, fmt.Errorf("pipeline builder: config is required")
	}
	if b.store == nil {
		return nil, fmt.Errorf("pipeline builder: store is required")
	}
	cfg := b.cfg

	fetcher := b.fetcher
	if fetcher == nil {
		fetcher = sources.FromConfig(cfg.Sources)
	}

	filters := []ItemFilter{relevance.NewFilter(relevance.CriteriaFromConfig(cfg.Filters))}
	lang, err := relevance.NewLanguageFilter(cfg.Filters.Languages)
	if err != nil {
		return nil, fmt.Errorf("invalid language filter: %w", err)
	}
	if lang != nil {
		filters = append(filters, lang)
	}

	pcfg := DefaultConfig()
	pcfg.OutputDir = cfg.App.OutputDir
	if cfg.Formatting.Blog.Author != "" {
		pcfg.BlogAuthor = cfg.Formatting.Blog.Author
	}
	if cfg.Formatting.LinkedIn.HashtagCount > 0 {
		pcfg.HashtagCount = cfg.Formatting.LinkedIn.HashtagCount
	}
	pcfg.ValidateSafety = cfg.Formatting.LinkedIn.ValidateSafety
	pcfg.Medium = render.MediumOptions{
		IncludeDiagrams:   cfg.Formatting.Medium.IncludeDiagrams,
		IncludeReferences: cfg.Formatting.Medium.IncludeReferences,
	}

	opts := []Option{
		WithFilters(filters...),
		WithPublishers(publishers.FromConfig(cfg.Publishing, b.httpClient)),
	}

	if b.withLLM {
		gen := b.generator
		if gen == nil {
			var cache llm.Cache
			if c, ok := b.store.(llm.Cache); ok {
				cache = c
			}
			if gen, err = llm.New(ctx, cfg.LLM, cache); err != nil {
				return nil, fmt.Errorf("failed to create llm client: %w", err)
			}
		}
		opts = append(opts, WithAnalyzer(analyzer.New(gen, cfg.Stages, analyzer.OptionsFromConfig(cfg.Formatting))))
		if cfg.LLM.ArxivEnhancement {
			opts = append(opts, WithEnhancer(analyzer.NewArxivEnhancer(gen, cfg.LLM.ArxivRelevancyThreshold)))
		}
	}

	return NewPipeline(
		fetcher,
		dedup.FromConfig(cfg.Filters.Deduplication),
		ranking.FromConfig(cfg.Filters.Ranking.Weights),
		b.store,
		pcfg,
		opts...,
	), nil
}
