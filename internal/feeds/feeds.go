// Package feeds provides RSS/Atom feed parsing and feed discovery
package feeds

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const userAgent = "researchpub/1.0 (+feed reader)"

// RSS represents an RSS feed structure
type RSS struct {
	XMLName xml.Name `xml:"rss"`
	Channel Channel  `xml:"channel"`
}

// Channel represents an RSS channel
type Channel struct {
	Title       string    `xml:"title"`
	Description string    `xml:"description"`
	Link        string    `xml:"link"`
	Items       []RSSItem `xml:"item"`
}

// RSSItem represents an RSS item
type RSSItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	PubDate     string   `xml:"pubDate"`
	GUID        string   `xml:"guid"`
	Author      string   `xml:"author"`
	Creator     string   `xml:"http://purl.org/dc/elements/1.1/ creator"`
	Categories  []string `xml:"category"`
}

// Atom represents an Atom feed structure
type Atom struct {
	XMLName xml.Name    `xml:"feed"`
	Title   string      `xml:"title"`
	Link    []AtomLink  `xml:"link"`
	Entries []AtomEntry `xml:"entry"`
}

// AtomLink represents an Atom link element
type AtomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

// AtomAuthor represents an Atom author element
type AtomAuthor struct {
	Name string `xml:"name"`
}

// AtomEntry represents an Atom entry
type AtomEntry struct {
	Title     string       `xml:"title"`
	Link      []AtomLink   `xml:"link"`
	Summary   string       `xml:"summary"`
	Content   string       `xml:"content"`
	Published string       `xml:"published"`
	Updated   string       `xml:"updated"`
	ID        string       `xml:"id"`
	Authors   []AtomAuthor `xml:"author"`
}

// Entry is a feed item normalized across RSS and Atom.
type Entry struct {
	Title      string
	Link       string
	Summary    string // Raw summary, may contain HTML
	Published  string // Date string as published by the feed
	GUID       string
	Authors    []string
	Categories []string
}

// Key returns the GUID, the link, or a name-based UUID of the title, in that order.
func (e Entry) Key() string {
	switch {
	case e.GUID != "":
		return e.GUID
	case e.Link != "":
		return e.Link
	default:
		return uuid.NewSHA1(uuid.NameSpaceURL, []byte(e.Title)).String()
	}
}

// ParsedFeed represents a parsed feed with caching metadata
type ParsedFeed struct {
	Title        string
	Link         string
	Entries      []Entry
	LastModified string
	ETag         string
	NotModified  bool
}

// Client fetches RSS/Atom feeds over HTTP
type Client struct {
	http *http.Client
}

// NewClient creates a feed client with the given timeout
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{http: &http.Client{Timeout: timeout}}
}

// NewClientWithHTTP wraps an existing HTTP client
func NewClientWithHTTP(c *http.Client) *Client {
	return &Client{http: c}
}

// Fetch fetches and parses a feed. lastModified and etag enable conditional requests.
func (c *Client) Fetch(ctx context.Context, feedURL, lastModified, etag string) (*ParsedFeed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if lastModified != "" {
		req.Header.Set("If-Modified-Since", lastModified)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotModified {
		return &ParsedFeed{NotModified: true}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed: %w", err)
	}

	parsed, err := Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", feedURL, err)
	}
	parsed.LastModified = resp.Header.Get("Last-Modified")
	parsed.ETag = resp.Header.Get("ETag")
	return parsed, nil
}

// Parse decodes an RSS or Atom document.
func Parse(data []byte) (*ParsedFeed, error) {
	var rss RSS
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(&rss); err == nil && (rss.Channel.Title != "" || len(rss.Channel.Items) > 0) {
		return parseRSS(rss), nil
	}

	var atom Atom
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(&atom); err == nil && (atom.Title != "" || len(atom.Entries) > 0) {
		return parseAtom(atom), nil
	}

	return nil, fmt.Errorf("unable to parse as RSS or Atom feed")
}

func parseRSS(rss RSS) *ParsedFeed {
	feed := &ParsedFeed{Title: strings.TrimSpace(rss.Channel.Title), Link: strings.TrimSpace(rss.Channel.Link)}
	for _, item := range rss.Channel.Items {
		entry := Entry{
			Title:      strings.TrimSpace(item.Title),
			Link:       strings.TrimSpace(item.Link),
			Summary:    item.Description,
			Published:  strings.TrimSpace(item.PubDate),
			GUID:       strings.TrimSpace(item.GUID),
			Categories: item.Categories,
		}
		switch {
		case item.Creator != "":
			entry.Authors = splitAuthors(item.Creator)
		case item.Author != "":
			entry.Authors = []string{strings.TrimSpace(item.Author)}
		}
		feed.Entries = append(feed.Entries, entry)
	}
	return feed
}

func parseAtom(atom Atom) *ParsedFeed {
	feed := &ParsedFeed{Title: strings.TrimSpace(atom.Title), Link: alternateLink(atom.Link)}
	for _, e := range atom.Entries {
		published := e.Published
		if published == "" {
			published = e.Updated
		}
		summary := e.Summary
		if summary == "" {
			summary = e.Content
		}
		entry := Entry{
			Title:     strings.TrimSpace(e.Title),
			Link:      alternateLink(e.Link),
			Summary:   summary,
			Published: strings.TrimSpace(published),
			GUID:      strings.TrimSpace(e.ID),
		}
		for _, a := range e.Authors {
			if name := strings.TrimSpace(a.Name); name != "" {
				entry.Authors = append(entry.Authors, name)
			}
		}
		feed.Entries = append(feed.Entries, entry)
	}
	return feed
}

// alternateLink finds the main link of an Atom element
func alternateLink(links []AtomLink) string {
	for _, l := range links {
		if l.Rel == "" || l.Rel == "alternate" {
			return strings.TrimSpace(l.Href)
		}
	}
	return ""
}

func splitAuthors(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
