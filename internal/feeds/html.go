package feeds

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StripHTML returns the visible text of an HTML fragment with whitespace collapsed.
func StripHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.Join(strings.Fields(fragment), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

var feedTypes = map[string]bool{
	"application/rss+xml":  true,
	"application/atom+xml": true,
}

var fallbackPaths = []string{"/feed", "/rss", "/atom.xml", "/rss.xml", "/feed.xml", "/index.xml"}

// Discover finds feed URLs advertised by a web page through
// <link rel="alternate"> elements. When the page advertises none, common feed
// paths are tried and those that parse are returned.
func (c *Client) Discover(ctx context.Context, siteURL string) ([]string, error) {
	base, err := url.Parse(siteURL)
	if err != nil {
		return nil, fmt.Errorf("invalid site URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, siteURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch website: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("website returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var found []string
	seen := make(map[string]bool)
	doc.Find(`link[rel="alternate"]`).Each(func(_ int, s *goquery.Selection) {
		typ, _ := s.Attr("type")
		href, ok := s.Attr("href")
		if !ok || !feedTypes[strings.ToLower(strings.TrimSpace(typ))] {
			return
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref).String()
		if !seen[abs] {
			seen[abs] = true
			found = append(found, abs)
		}
	})
	if len(found) > 0 {
		return found, nil
	}

	root := strings.TrimSuffix(base.Scheme+"://"+base.Host+base.Path, "/")
	for _, p := range fallbackPaths {
		candidate := root + p
		if _, err := c.Fetch(ctx, candidate, "", ""); err == nil {
			found = append(found, candidate)
		}
	}
	return found, nil
}
