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
)

// DefaultGitHubURL is the GitHub REST API root.
const DefaultGitHubURL = "https://api.github.com"

type ghSearchResponse struct {
	Items []ghRepo `json:"items"`
}

type ghRepo struct {
	ID          int64    `json:"id"`
	FullName    string   `json:"full_name"`
	HTMLURL     string   `json:"html_url"`
	Description string   `json:"description"`
	Stars       int      `json:"stargazers_count"`
	Forks       int      `json:"forks_count"`
	Language    string   `json:"language"`
	Topics      []string `json:"topics"`
	CreatedAt   string   `json:"created_at"`
	Owner       struct {
		Login string `json:"login"`
	} `json:"owner"`
}

// GitHub fetches recently created, well-starred repositories per topic.
type GitHub struct {
	baseURL    string
	token      string
	topics     []string
	minStars   int
	maxResults int
	windowDays int
	client     *http.Client
	now        func() time.Time
}

// NewGitHub creates a GitHub fetcher. Defaults: machine-learning and
// artificial-intelligence topics, 100 stars, 10 repositories per topic, a 7 day window.
func NewGitHub(cfg config.GitHubSource, client *http.Client) *GitHub {
	topics := cfg.Topics
	if len(topics) == 0 {
		topics = []string{"machine-learning", "artificial-intelligence"}
	}
	return &GitHub{
		baseURL:    strings.TrimSuffix(orDefault(cfg.BaseURL, DefaultGitHubURL), "/"),
		token:      cfg.Token,
		topics:     topics,
		minStars:   orDefault(cfg.MinStars, 100),
		maxResults: orDefault(cfg.MaxResults, 10),
		windowDays: orDefault(cfg.WindowDays, 7),
		client:     client,
		now:        time.Now,
	}
}

// Name implements Fetcher.
func (g *GitHub) Name() string { return core.SourceGitHub }

// Fetch searches each topic, sorted by stars, and drops repositories already seen by URL.
func (g *GitHub) Fetch(ctx context.Context) ([]*core.ContentItem, error) {
	since := g.now().UTC().AddDate(0, 0, -g.windowDays).Format("2006-01-02")
	headers := map[string]string{"Accept": "application/vnd.github+json"}
	if g.token != "" {
		headers["Authorization"] = "Bearer " + g.token
	}

	var items []*core.ContentItem
	seen := make(map[string]bool)

	for _, topic := range g.topics {
		q := url.Values{}
		q.Set("q", fmt.Sprintf("topic:%s created:>=%s stars:>=%d", topic, since, g.minStars))
		q.Set("sort", "stars")
		q.Set("order", "desc")
		q.Set("per_page", strconv.Itoa(g.maxResults))

		var resp ghSearchResponse
		if err := getJSON(ctx, g.client, g.baseURL+"/search/repositories?"+q.Encode(), headers, &resp); err != nil {
			return nil, fmt.Errorf("github topic %q: %w", topic, err)
		}

		for _, repo := range resp.Items {
			if seen[repo.HTMLURL] {
				continue
			}
			seen[repo.HTMLURL] = true
			items = append(items, g.toItem(repo))
		}
	}
	return items, nil
}

func (g *GitHub) toItem(repo ghRepo) *core.ContentItem {
	var authors []string
	if repo.Owner.Login != "" {
		authors = []string{repo.Owner.Login}
	}
	return &core.ContentItem{
		ID:              "github_" + strconv.FormatInt(repo.ID, 10),
		Title:           repo.FullName,
		URL:             repo.HTMLURL,
		Summary:         repo.Description,
		Source:          core.SourceGitHub,
		SourcePriority:  core.PriorityMedium,
		Published:       repo.CreatedAt,
		Authors:         authors,
		Topics:          repo.Topics,
		Language:        repo.Language,
		Stars:           repo.Stars,
		Forks:           repo.Forks,
		EngagementScore: repo.Stars,
		FetchedAt:       g.now().UTC(),
	}
}
