package sources

import (
	"context"
	"net/http"
	"time"

	"researchpub/internal/config"
	"researchpub/internal/core"
	"researchpub/internal/logger"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Result reports the outcome of one fetcher.
type Result struct {
	Source   string
	Items    int
	Err      error
	Duration time.Duration
}

// Manager runs the enabled fetchers concurrently and merges their items.
type Manager struct {
	fetchers    []Fetcher
	concurrency int
	log         zerolog.Logger
}

// NewManager creates a manager over fetchers. Concurrency below 1 means 1.
func NewManager(concurrency int, fetchers ...Fetcher) *Manager {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Manager{
		fetchers:    fetchers,
		concurrency: concurrency,
		log:         logger.Component("sources"),
	}
}

// FromConfig builds a manager for every enabled source, in the order arxiv,
// hackernews, github, blogs.
func FromConfig(cfg config.Sources) *Manager {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	var fetchers []Fetcher
	if cfg.Arxiv.Enabled {
		fetchers = append(fetchers, NewArxiv(cfg.Arxiv, client))
	}
	if cfg.HackerNews.Enabled {
		fetchers = append(fetchers, NewHackerNews(cfg.HackerNews, client))
	}
	if cfg.GitHub.Enabled {
		fetchers = append(fetchers, NewGitHub(cfg.GitHub, client))
	}
	if cfg.Blogs.Enabled && len(cfg.Blogs.Feeds) > 0 {
		fetchers = append(fetchers, NewBlogs(cfg.Blogs, client))
	}
	return NewManager(cfg.Concurrency, fetchers...)
}

// Names lists the configured fetchers in order.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.fetchers))
	for _, f := range m.fetchers {
		names = append(names, f.Name())
	}
	return names
}

// FetchAll runs the fetchers named in only, or all of them when only is empty.
// A failing fetcher contributes no items and never fails the call. Items are
// concatenated in fetcher order regardless of completion order.
func (m *Manager) FetchAll(ctx context.Context, only ...string) ([]*core.ContentItem, []Result) {
	selected := m.selectFetchers(only)
	perSource := make([][]*core.ContentItem, len(selected))
	results := make([]Result, len(selected))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)

	for i, f := range selected {
		g.Go(func() error {
			start := time.Now()
			items, err := f.Fetch(gctx)
			results[i] = Result{Source: f.Name(), Items: len(items), Err: err, Duration: time.Since(start)}
			if err != nil {
				m.log.Error().Err(err).Str("source", f.Name()).Msg("Source fetch failed")
				return nil
			}
			perSource[i] = items
			m.log.Info().Str("source", f.Name()).Int("items", len(items)).Dur("took", results[i].Duration).Msg("Fetched source")
			return nil
		})
	}
	_ = g.Wait()

	var all []*core.ContentItem
	for _, items := range perSource {
		all = append(all, items...)
	}
	m.log.Info().Int("sources", len(selected)).Int("items", len(all)).Msg("Fetch complete")
	return all, results
}

func (m *Manager) selectFetchers(only []string) []Fetcher {
	if len(only) == 0 {
		return m.fetchers
	}
	want := make(map[string]bool, len(only))
	for _, name := range only {
		want[name] = true
	}
	var out []Fetcher
	for _, f := range m.fetchers {
		if want[f.Name()] {
			out = append(out, f)
		}
	}
	return out
}
