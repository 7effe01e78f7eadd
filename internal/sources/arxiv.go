package sources

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"researchpub/internal/config"
	"researchpub/internal/core"
	"researchpub/internal/feeds"
)

// DefaultArxivURL is the arXiv RSS endpoint; the category is appended as a path segment.
const DefaultArxivURL = "https://rss.arxiv.org/rss"

// Arxiv fetches papers from arXiv category RSS feeds.
type Arxiv struct {
	baseURL    string
	categories []string
	maxResults int
	feeds      *feeds.Client
	now        func() time.Time
}

// NewArxiv creates an arXiv fetcher. Defaults: cs.AI, 20 papers per category.
func NewArxiv(cfg config.ArxivSource, client *http.Client) *Arxiv {
	categories := cfg.Categories
	if len(categories) == 0 {
		categories = []string{"cs.AI"}
	}
	return &Arxiv{
		baseURL:    strings.TrimSuffix(orDefault(cfg.BaseURL, DefaultArxivURL), "/"),
		categories: categories,
		maxResults: orDefault(cfg.MaxResults, 20),
		feeds:      feeds.NewClientWithHTTP(client),
		now:        time.Now,
	}
}

// Name implements Fetcher.
func (a *Arxiv) Name() string { return core.SourceArxiv }

// Fetch reads each category feed. A failing category is skipped; the error is
// returned only when every category failed.
func (a *Arxiv) Fetch(ctx context.Context) ([]*core.ContentItem, error) {
	var (
		items []*core.ContentItem
		errs  []string
	)
	for _, category := range a.categories {
		feed, err := a.feeds.Fetch(ctx, a.baseURL+"/"+category, "", "")
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", category, err))
			continue
		}
		entries := feed.Entries
		if len(entries) > a.maxResults {
			entries = entries[:a.maxResults]
		}
		for _, e := range entries {
			items = append(items, a.toItem(e, category))
		}
	}
	if len(items) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("arxiv: %s", strings.Join(errs, "; "))
	}
	return items, nil
}

func (a *Arxiv) toItem(e feeds.Entry, category string) *core.ContentItem {
	ref := e.Link
	if ref == "" {
		ref = e.GUID
	}
	return &core.ContentItem{
		ID:             "arxiv_" + path.Base(strings.TrimSuffix(ref, "/")),
		Title:          e.Title,
		URL:            e.Link,
		Summary:        cleanArxivAbstract(feeds.StripHTML(e.Summary)),
		Source:         core.SourceArxiv,
		SourcePriority: core.PriorityHigh,
		Published:      e.Published,
		Authors:        e.Authors,
		Category:       category,
		FetchedAt:      a.now().UTC(),
	}
}

// cleanArxivAbstract drops the "arXiv:... Announce Type: ... Abstract:" preamble of RSS descriptions.
func cleanArxivAbstract(s string) string {
	if i := strings.Index(s, "Abstract:"); i >= 0 {
		return strings.TrimSpace(s[i+len("Abstract:"):])
	}
	return s
}
