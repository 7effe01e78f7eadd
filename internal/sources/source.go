// Package sources fetches AI/ML content items from arXiv, Hacker News,
// GitHub and company blogs.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"researchpub/internal/core"
	"researchpub/internal/retry"
)

// Fetcher produces content items from one source.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]*core.ContentItem, error)
}

const userAgent = "researchpub/1.0"

// fetchPolicy retries transient HTTP failures before a source gives up.
var fetchPolicy = retry.Policy{Attempts: 3, BaseDelay: 500 * time.Millisecond}

// getJSON issues a GET and decodes a JSON response into out.
func getJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, out any) error {
	return retry.Do(ctx, fetchPolicy, func(int) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return retry.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return retry.Classify(&retry.StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))})
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return retry.Permanent(fmt.Errorf("failed to decode response: %w", err))
		}
		return nil
	})
}

// snake lower-cases a display name and joins its words with underscores.
func snake(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
