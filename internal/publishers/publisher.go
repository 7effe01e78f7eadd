// Package publishers pushes approved drafts to GitHub Pages, LinkedIn and Medium.
package publishers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"researchpub/internal/config"
	"researchpub/internal/core"
	"researchpub/internal/retry"
)

// Platform names accepted by the publish command.
const (
	PlatformGitHubPages = "github_pages"
	PlatformLinkedIn    = "linkedin"
	PlatformMedium      = "medium"
)

var (
	// ErrNotConfigured is returned when a platform is disabled or lacks credentials.
	ErrNotConfigured = errors.New("publisher not configured")
	// ErrContentInvalid is returned when a draft cannot be sent as is.
	ErrContentInvalid = errors.New("content invalid")
)

// Result describes a successful publication
type Result struct {
	Platform string `json:"platform"`
	ID       string `json:"id,omitempty"`
	URL      string `json:"url"`
}

// Publisher sends one draft to one platform
type Publisher interface {
	Name() string
	Publish(ctx context.Context, draft *core.Draft) (Result, error)
}

// DefaultPlatform maps a draft format to the platform it is usually published on
func DefaultPlatform(format string) string {
	switch format {
	case core.FormatLinkedIn:
		return PlatformLinkedIn
	case core.FormatMedium:
		return PlatformMedium
	default:
		return PlatformGitHubPages
	}
}

// FromConfig builds the enabled publishers keyed by platform name
func FromConfig(cfg config.Publishing, client *http.Client) map[string]Publisher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	policy := retry.DefaultPolicy(cfg.MaxRetries + 1)

	out := make(map[string]Publisher)
	if cfg.GitHubPages.Enabled {
		out[PlatformGitHubPages] = NewGitHubPages(cfg.GitHubPages, client, policy)
	}
	if cfg.LinkedIn.Enabled {
		out[PlatformLinkedIn] = NewLinkedIn(cfg.LinkedIn, client, policy)
	}
	if cfg.Medium.Enabled {
		out[PlatformMedium] = NewMedium(cfg.Medium, client, policy)
	}
	return out
}

// apiClient issues authenticated JSON requests with retry on 429 and 5xx.
type apiClient struct {
	http    *http.Client
	base    string
	headers map[string]string
	policy  retry.Policy
}

type response struct {
	Code   int
	Header http.Header
	Body   []byte
}

// do sends payload (when non-nil) and accepts the response when ok reports
// true for its status. Other statuses become retry.StatusError values.
func (c *apiClient) do(ctx context.Context, method, path string, payload any, ok func(int) bool) (*response, error) {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
	}

	var out *response
	err := retry.Do(ctx, c.policy, func(int) error {
		req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.base, "/")+path, bytes.NewReader(body))
		if err != nil {
			return retry.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, v := range c.headers {
			req.Header.Set(k, v)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}
		if !ok(resp.StatusCode) {
			return retry.Classify(&retry.StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))})
		}
		out = &response{Code: resp.StatusCode, Header: resp.Header, Body: data}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func status(codes ...int) func(int) bool {
	return func(code int) bool {
		for _, c := range codes {
			if c == code {
				return true
			}
		}
		return false
	}
}
