package sources

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"researchpub/internal/config"
	"researchpub/internal/core"
	"researchpub/internal/feeds"
	"researchpub/internal/logger"

	"github.com/rs/zerolog"
)

// Blogs fetches posts from configured company blog feeds.
type Blogs struct {
	feedList []config.Feed
	feeds    *feeds.Client
	now      func() time.Time
	log      zerolog.Logger
}

// NewBlogs creates a blog fetcher for the configured feeds.
func NewBlogs(cfg config.BlogsSource, client *http.Client) *Blogs {
	return &Blogs{
		feedList: cfg.Feeds,
		feeds:    feeds.NewClientWithHTTP(client),
		now:      time.Now,
		log:      logger.Component("sources.blogs"),
	}
}

// Name implements Fetcher.
func (b *Blogs) Name() string { return "blogs" }

// Fetch reads every feed. A failing feed is logged and skipped; the error is
// returned only when every feed failed.
func (b *Blogs) Fetch(ctx context.Context) ([]*core.ContentItem, error) {
	var (
		items []*core.ContentItem
		errs  []string
	)
	for _, f := range b.feedList {
		parsed, err := b.feeds.Fetch(ctx, f.URL, "", "")
		if err != nil {
			b.log.Error().Err(err).Str("feed", f.Name).Msg("Failed to fetch blog feed")
			errs = append(errs, fmt.Sprintf("%s: %v", f.Name, err))
			continue
		}
		for _, e := range parsed.Entries {
			items = append(items, b.toItem(f, e))
		}
		b.log.Info().Str("feed", f.Name).Int("posts", len(parsed.Entries)).Msg("Fetched blog feed")
	}
	if len(items) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("blogs: %s", strings.Join(errs, "; "))
	}
	return items, nil
}

func (b *Blogs) toItem(f config.Feed, e feeds.Entry) *core.ContentItem {
	name := snake(f.Name)
	authors := e.Authors
	if len(authors) == 0 {
		authors = []string{f.Name}
	}
	return &core.ContentItem{
		ID:             name + "_" + e.Key(),
		Title:          e.Title,
		URL:            e.Link,
		Summary:        feeds.StripHTML(e.Summary),
		Source:         core.BlogSourcePrefix + name,
		SourceName:     f.Name,
		SourcePriority: orDefault(f.Priority, core.PriorityMedium),
		Published:      e.Published,
		Authors:        authors,
		FetchedAt:      b.now().UTC(),
	}
}
