package publishers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"researchpub/internal/config"
	"researchpub/internal/core"
	"researchpub/internal/logger"
	"researchpub/internal/render"
	"researchpub/internal/retry"

	"github.com/rs/zerolog"
)

const maxMediumTags = 5

// Medium creates posts through the Medium integration token API.
type Medium struct {
	api           *apiClient
	publishStatus string
	log           zerolog.Logger

	mu       sync.Mutex
	authorID string
}

// NewMedium creates the publisher. The author id is resolved on first use when not configured.
func NewMedium(cfg config.Medium, client *http.Client, policy retry.Policy) *Medium {
	base := cfg.APIURL
	if base == "" {
		base = "https://api.medium.com/v1"
	}
	m := &Medium{
		api: &apiClient{
			http:    client,
			base:    base,
			policy:  policy,
			headers: map[string]string{"Accept-Charset": "utf-8"},
		},
		publishStatus: cfg.PublishStatus,
		authorID:      cfg.AuthorID,
		log:           logger.Component("publisher.medium"),
	}
	if cfg.Token != "" {
		m.api.headers["Authorization"] = "Bearer " + cfg.Token
	}
	if m.publishStatus == "" {
		m.publishStatus = "draft"
	}
	return m
}

func (m *Medium) Name() string { return PlatformMedium }

type mediumEnvelope struct {
	Data struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	} `json:"data"`
}

type mediumPost struct {
	Title         string   `json:"title"`
	ContentFormat string   `json:"contentFormat"`
	Content       string   `json:"content"`
	PublishStatus string   `json:"publishStatus"`
	Tags          []string `json:"tags"`
	CanonicalURL  string   `json:"canonicalUrl,omitempty"`
}

// AuthorID returns the configured author id or asks /me for it
func (m *Medium) AuthorID(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.authorID != "" {
		return m.authorID, nil
	}

	resp, err := m.api.do(ctx, http.MethodGet, "/me", nil, status(http.StatusOK))
	if err != nil {
		return "", fmt.Errorf("medium: failed to resolve author id: %w", err)
	}
	var me mediumEnvelope
	if err := json.Unmarshal(resp.Body, &me); err != nil || me.Data.ID == "" {
		return "", fmt.Errorf("medium: author id missing from /me response: %w", ErrNotConfigured)
	}
	m.authorID = me.Data.ID
	m.log.Info().Str("author_id", m.authorID).Msg("Resolved Medium author")
	return m.authorID, nil
}

// Publish creates a markdown post using the draft's front matter for title, tags and canonical URL.
func (m *Medium) Publish(ctx context.Context, draft *core.Draft) (Result, error) {
	if m.api.headers["Authorization"] == "" {
		return Result{}, fmt.Errorf("medium: integration token is required: %w", ErrNotConfigured)
	}
	if strings.TrimSpace(draft.Content) == "" {
		return Result{}, fmt.Errorf("medium: empty draft: %w", ErrContentInvalid)
	}

	fm, body, err := render.ParseFrontMatter(draft.Content)
	if err != nil {
		m.log.Warn().Err(err).Str("draft", draft.ID).Msg("Publishing without front matter")
		fm, body = render.FrontMatter{}, draft.Content
	}
	title := fm.Title
	if title == "" {
		title = draft.Title
	}
	if title == "" {
		title = "Untitled"
	}
	tags := fm.Tags
	if len(tags) > maxMediumTags {
		tags = tags[:maxMediumTags]
	}
	if tags == nil {
		tags = []string{}
	}

	authorID, err := m.AuthorID(ctx)
	if err != nil {
		return Result{}, err
	}

	resp, err := m.api.do(ctx, http.MethodPost, "/users/"+authorID+"/posts", mediumPost{
		Title:         title,
		ContentFormat: "markdown",
		Content:       body,
		PublishStatus: m.publishStatus,
		Tags:          tags,
		CanonicalURL:  fm.CanonicalURL,
	}, status(http.StatusOK, http.StatusCreated))
	if err != nil {
		return Result{}, fmt.Errorf("medium: failed to create post: %w", err)
	}

	var created mediumEnvelope
	if err := json.Unmarshal(resp.Body, &created); err != nil {
		return Result{}, fmt.Errorf("medium: failed to decode response: %w", err)
	}
	m.log.Info().Str("url", created.Data.URL).Str("status", m.publishStatus).Msg("Published Medium post")
	return Result{Platform: PlatformMedium, ID: created.Data.ID, URL: created.Data.URL}, nil
}
