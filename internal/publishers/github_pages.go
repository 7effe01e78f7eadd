package publishers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"researchpub/internal/config"
	"researchpub/internal/core"
	"researchpub/internal/logger"
	"researchpub/internal/render"
	"researchpub/internal/retry"

	"github.com/rs/zerolog"
)

// GitHubPages commits blog drafts into a Jekyll posts directory through the contents API.
type GitHubPages struct {
	api    *apiClient
	owner  string
	repo   string
	branch string
	path   string
	now    func() time.Time
	log    zerolog.Logger
}

// NewGitHubPages creates the publisher. cfg.Repo is "owner/name".
func NewGitHubPages(cfg config.GitHubPages, client *http.Client, policy retry.Policy) *GitHubPages {
	owner, repo, _ := strings.Cut(cfg.Repo, "/")
	base := cfg.APIURL
	if base == "" {
		base = "https://api.github.com"
	}
	g := &GitHubPages{
		api: &apiClient{
			http:   client,
			base:   base,
			policy: policy,
			headers: map[string]string{
				"Accept":               "application/vnd.github+json",
				"X-GitHub-Api-Version": "2022-11-28",
			},
		},
		owner:  owner,
		repo:   repo,
		branch: cfg.Branch,
		path:   strings.Trim(cfg.Path, "/"),
		now:    time.Now,
		log:    logger.Component("publisher.github_pages"),
	}
	if cfg.Token != "" {
		g.api.headers["Authorization"] = "Bearer " + cfg.Token
	}
	if g.branch == "" {
		g.branch = "gh-pages"
	}
	if g.path == "" {
		g.path = "_posts"
	}
	return g
}

func (g *GitHubPages) Name() string { return PlatformGitHubPages }

type contentsFile struct {
	SHA string `json:"sha"`
}

type contentsRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha,omitempty"`
}

// Publish creates the post or updates it in place when it already exists.
func (g *GitHubPages) Publish(ctx context.Context, draft *core.Draft) (Result, error) {
	if g.owner == "" || g.repo == "" || g.api.headers["Authorization"] == "" {
		return Result{}, fmt.Errorf("github pages: repo and token are required: %w", ErrNotConfigured)
	}
	if strings.TrimSpace(draft.Content) == "" {
		return Result{}, fmt.Errorf("github pages: empty draft: %w", ErrContentInvalid)
	}

	now := g.now().UTC()
	slug := render.Slug(draft.Title)
	filename := fmt.Sprintf("%s-%s.md", now.Format("2006-01-02"), slug)
	filePath := g.path + "/" + filename
	endpoint := fmt.Sprintf("/repos/%s/%s/contents/%s", g.owner, g.repo, filePath)

	sha, err := g.existingSHA(ctx, endpoint)
	if err != nil {
		return Result{}, err
	}

	message := "Add post: " + filename
	if sha != "" {
		message = "Update post: " + filename
	}
	_, err = g.api.do(ctx, http.MethodPut, endpoint, contentsRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString([]byte(draft.Content)),
		Branch:  g.branch,
		SHA:     sha,
	}, status(http.StatusOK, http.StatusCreated))
	if err != nil {
		return Result{}, fmt.Errorf("github pages: failed to write %s: %w", filePath, err)
	}

	g.log.Info().Str("path", filePath).Bool("update", sha != "").Msg("Published post")
	return Result{
		Platform: PlatformGitHubPages,
		ID:       filePath,
		URL:      g.PostURL(slug, now),
	}, nil
}

func (g *GitHubPages) existingSHA(ctx context.Context, endpoint string) (string, error) {
	resp, err := g.api.do(ctx, http.MethodGet, endpoint+"?ref="+g.branch, nil, status(http.StatusOK, http.StatusNotFound))
	if err != nil {
		return "", fmt.Errorf("github pages: failed to look up existing post: %w", err)
	}
	if resp.Code == http.StatusNotFound {
		return "", nil
	}
	var file contentsFile
	if err := json.Unmarshal(resp.Body, &file); err != nil {
		return "", fmt.Errorf("github pages: failed to decode contents response: %w", err)
	}
	return file.SHA, nil
}

// PostURL is the Jekyll permalink for a post published on the given day
func (g *GitHubPages) PostURL(slug string, day time.Time) string {
	return fmt.Sprintf("https://%s.github.io/%s/%s/%s.html", g.owner, g.repo, day.Format("2006/01/02"), slug)
}
