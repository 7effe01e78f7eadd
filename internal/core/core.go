package core

import (
	"strings"
	"time"
)

// Source names produced by the built-in fetchers. Blog sources are namespaced as "blog_<name>".
const (
	SourceArxiv      = "arxiv"
	SourceGitHub     = "github"
	SourceHackerNews = "hackernews"
	BlogSourcePrefix = "blog_"
	SourceTrends     = "trend_discovery"
)

// Source priority levels.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Item lifecycle states in the store.
const (
	ItemStatusRanked   = "ranked"
	ItemStatusAnalyzed = "analyzed"
	ItemStatusSkipped  = "skipped"
)

// ContentItem represents one fetchable unit: a paper, repository, blog post or story.
type ContentItem struct {
	ID              string    `json:"id"`                         // Source-namespaced unique identifier
	Title           string    `json:"title"`                      // Title or repository full name
	URL             string    `json:"url"`                        // Canonical URL, secondary dedup key
	Summary         string    `json:"summary"`                    // Abstract, description or story text
	Source          string    `json:"source"`                     // arxiv, github, hackernews or blog_*
	SourceName      string    `json:"source_name,omitempty"`      // Human readable source name for blogs
	SourcePriority  string    `json:"source_priority"`            // high, medium or low
	Published       string    `json:"published"`                  // ISO-8601-ish date string, may be empty
	Authors         []string  `json:"authors,omitempty"`          // Paper authors or repository owner
	Category        string    `json:"category,omitempty"`         // arXiv category such as cs.AI
	Topics          []string  `json:"topics,omitempty"`           // GitHub topics
	Language        string    `json:"language,omitempty"`         // Primary programming language
	Points          int       `json:"points,omitempty"`           // Hacker News points
	NumComments     int       `json:"num_comments,omitempty"`     // Hacker News comment count
	Stars           int       `json:"stars,omitempty"`            // GitHub stars
	Forks           int       `json:"forks,omitempty"`            // GitHub forks
	EngagementScore int       `json:"engagement_score,omitempty"` // Source-provided engagement signal
	KeywordScore    float64   `json:"keyword_score"`              // Written by the relevance filter
	Score           float64   `json:"score"`                      // Composite score written by the ranker
	FetchedAt       time.Time `json:"fetched_at"`                 // When the fetcher produced the item
}

// Engagement returns the first non-zero of EngagementScore, Points and Stars.
func (c *ContentItem) Engagement() int {
	switch {
	case c.EngagementScore != 0:
		return c.EngagementScore
	case c.Points != 0:
		return c.Points
	default:
		return c.Stars
	}
}

// IsBlog reports whether the item came from a configured blog feed.
func (c *ContentItem) IsBlog() bool {
	return strings.HasPrefix(c.Source, BlogSourcePrefix)
}

// DisplaySource returns the blog name when known, otherwise the source identifier.
func (c *ContentItem) DisplaySource() string {
	if c.SourceName != "" {
		return c.SourceName
	}
	if c.Source == "" {
		return "Unknown"
	}
	return c.Source
}

// ErrorPrefix marks a stage output that holds a failure message instead of generated text.
const ErrorPrefix = "Error: "

// AnalysisResult holds the output of every analysis stage run against one item.
type AnalysisResult struct {
	ItemID          string            `json:"item_id"`            // ID of the analyzed ContentItem
	Title           string            `json:"title"`              // Title copied from the item
	URL             string            `json:"url"`                // URL copied from the item
	Source          string            `json:"source"`             // Source copied from the item
	Stages          map[string]string `json:"stages"`             // Stage name to text or "Error: <msg>"
	Diagrams        map[string]string `json:"diagrams,omitempty"` // Mermaid sources keyed by diagram kind
	CompletedStages []string          `json:"completed_stages"`   // Stages that produced text, in run order
	FailedStages    []string          `json:"failed_stages"`      // Stages that failed, in run order
	Success         bool              `json:"success"`            // True when no stage failed
	AnalyzedAt      time.Time         `json:"analyzed_at"`        // When the analysis finished
}

// NewAnalysisResult starts an empty result for the given item.
func NewAnalysisResult(item *ContentItem) *AnalysisResult {
	return &AnalysisResult{
		ItemID:          item.ID,
		Title:           item.Title,
		URL:             item.URL,
		Source:          item.Source,
		Stages:          make(map[string]string),
		Diagrams:        make(map[string]string),
		CompletedStages: []string{},
		FailedStages:    []string{},
	}
}

// Get returns the text stored for a stage, or an empty string when the stage
// is missing or failed.
func (r *AnalysisResult) Get(stage string) string {
	v := r.Stages[stage]
	if strings.HasPrefix(v, ErrorPrefix) {
		return ""
	}
	return v
}

// Draft formats.
const (
	FormatBlog     = "blog"
	FormatLinkedIn = "linkedin"
	FormatMedium   = "medium"
)

// Draft lifecycle states.
const (
	DraftStatusDraft     = "draft"
	DraftStatusApproved  = "approved"
	DraftStatusPublished = "published"
	DraftStatusFailed    = "failed"
)

// Draft is a formatted piece of content awaiting review or publication.
type Draft struct {
	ID           string     `json:"id"`                      // UUID
	ItemID       string     `json:"item_id"`                 // Source ContentItem
	Format       string     `json:"format"`                  // blog, linkedin or medium
	Title        string     `json:"title"`                   // Title used for file names and listings
	Path         string     `json:"path"`                    // Location of the draft on disk
	Content      string     `json:"content"`                 // Full formatted text
	Status       string     `json:"status"`                  // draft, approved, published or failed
	Platform     string     `json:"platform,omitempty"`      // Publisher that handled the draft
	PublishedURL string     `json:"published_url,omitempty"` // Public URL after publishing
	Error        string     `json:"error,omitempty"`         // Last publish error
	CreatedAt    time.Time  `json:"created_at"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
}

// Run kinds.
const (
	RunKindCollect  = "collect"
	RunKindGenerate = "generate"
	RunKindPublish  = "publish"
	RunKindTrends   = "trends"
)

// Run records one pipeline command execution.
type Run struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"` // collect, generate, publish or trends
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Processed  int       `json:"processed"` // Items considered
	Succeeded  int       `json:"succeeded"` // Items that produced output
	Failed     int       `json:"failed"`    // Items that failed
	Notes      string    `json:"notes,omitempty"`
}

// CacheStats describes the LLM response cache.
type CacheStats struct {
	Entries   int       `json:"entries"`
	SizeBytes int64     `json:"size_bytes"`
	Oldest    time.Time `json:"oldest"`
	Newest    time.Time `json:"newest"`
}
