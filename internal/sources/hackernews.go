package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"researchpub/internal/config"
	"researchpub/internal/core"
	"researchpub/internal/feeds"
)

// DefaultHackerNewsURL is the Algolia Hacker News search API.
const DefaultHackerNewsURL = "https://hn.algolia.com/api/v1"

type hnResponse struct {
	Hits []hnHit `json:"hits"`
}

type hnHit struct {
	ObjectID    string `json:"objectID"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	StoryText   string `json:"story_text"`
	Author      string `json:"author"`
	Points      int    `json:"points"`
	NumComments int    `json:"num_comments"`
	CreatedAt   string `json:"created_at"`
}

// HackerNews fetches stories matching filter tags through Algolia search.
type HackerNews struct {
	baseURL    string
	tags       []string
	minPoints  int
	maxResults int
	client     *http.Client
	now        func() time.Time
}

// NewHackerNews creates a Hacker News fetcher. Defaults: tags ai and ml, 50 points, 15 stories per tag.
func NewHackerNews(cfg config.HackerNewsSource, client *http.Client) *HackerNews {
	tags := cfg.FilterTags
	if len(tags) == 0 {
		tags = []string{"ai", "ml"}
	}
	return &HackerNews{
		baseURL:    strings.TrimSuffix(orDefault(cfg.BaseURL, DefaultHackerNewsURL), "/"),
		tags:       tags,
		minPoints:  orDefault(cfg.MinPoints, 50),
		maxResults: orDefault(cfg.MaxResults, 15),
		client:     client,
		now:        time.Now,
	}
}

// Name implements Fetcher.
func (h *HackerNews) Name() string { return core.SourceHackerNews }

// Fetch searches each tag and removes stories already seen under another tag by URL.
func (h *HackerNews) Fetch(ctx context.Context) ([]*core.ContentItem, error) {
	var items []*core.ContentItem
	seen := make(map[string]bool)

	for _, tag := range h.tags {
		q := url.Values{}
		q.Set("query", tag)
		q.Set("tags", "story")
		q.Set("numericFilters", fmt.Sprintf("points>=%d", h.minPoints))
		q.Set("hitsPerPage", strconv.Itoa(h.maxResults))

		var resp hnResponse
		if err := getJSON(ctx, h.client, h.baseURL+"/search?"+q.Encode(), nil, &resp); err != nil {
			return nil, fmt.Errorf("hackernews tag %q: %w", tag, err)
		}

		for _, hit := range resp.Hits {
			item := h.toItem(hit)
			if seen[item.URL] {
				continue
			}
			seen[item.URL] = true
			items = append(items, item)
		}
	}
	return items, nil
}

func (h *HackerNews) toItem(hit hnHit) *core.ContentItem {
	link := hit.URL
	if link == "" {
		link = "https://news.ycombinator.com/item?id=" + hit.ObjectID
	}
	var authors []string
	if hit.Author != "" {
		authors = []string{hit.Author}
	}
	return &core.ContentItem{
		ID:              "hn_" + hit.ObjectID,
		Title:           hit.Title,
		URL:             link,
		Summary:         truncate(feeds.StripHTML(hit.StoryText), 500),
		Source:          core.SourceHackerNews,
		SourcePriority:  core.PriorityMedium,
		Published:       hit.CreatedAt,
		Authors:         authors,
		Points:          hit.Points,
		NumComments:     hit.NumComments,
		EngagementScore: hit.Points,
		FetchedAt:       h.now().UTC(),
	}
}
