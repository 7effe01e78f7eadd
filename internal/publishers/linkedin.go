package publishers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"researchpub/internal/config"
	"researchpub/internal/core"
	"researchpub/internal/logger"
	"researchpub/internal/retry"

	"github.com/rs/zerolog"
)

// MaxLinkedInChars is the text limit for a LinkedIn share.
const MaxLinkedInChars = 3000

// LinkedIn shares text posts through the v2 UGC API.
type LinkedIn struct {
	api       *apiClient
	authorURN string
	log       zerolog.Logger
}

// NewLinkedIn creates the publisher
func NewLinkedIn(cfg config.LinkedIn, client *http.Client, policy retry.Policy) *LinkedIn {
	base := cfg.APIURL
	if base == "" {
		base = "https://api.linkedin.com"
	}
	l := &LinkedIn{
		api: &apiClient{
			http:    client,
			base:    base,
			policy:  policy,
			headers: map[string]string{"X-Restli-Protocol-Version": "2.0.0"},
		},
		log: logger.Component("publisher.linkedin"),
	}
	if cfg.AccessToken != "" {
		l.api.headers["Authorization"] = "Bearer " + cfg.AccessToken
	}
	if cfg.UserID != "" {
		l.authorURN = NormalizeAuthorURN(cfg.UserID)
	}
	return l
}

func (l *LinkedIn) Name() string { return PlatformLinkedIn }

// NormalizeAuthorURN accepts a bare member id or an urn:li:person URN
func NormalizeAuthorURN(userID string) string {
	userID = strings.TrimSpace(userID)
	if strings.HasPrefix(userID, "urn:li:person:") {
		return userID
	}
	return "urn:li:person:" + userID
}

// ValidateContent checks a post against LinkedIn's text constraints
func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("content cannot be empty: %w", ErrContentInvalid)
	}
	if n := utf8.RuneCountInString(content); n > MaxLinkedInChars {
		return fmt.Errorf("content exceeds %d character limit (got %d): %w", MaxLinkedInChars, n, ErrContentInvalid)
	}
	return nil
}

type ugcPost struct {
	Author          string            `json:"author"`
	LifecycleState  string            `json:"lifecycleState"`
	SpecificContent specificContent   `json:"specificContent"`
	Visibility      map[string]string `json:"visibility"`
}

type specificContent struct {
	ShareContent shareContent `json:"com.linkedin.ugc.ShareContent"`
}

type shareContent struct {
	ShareCommentary    shareCommentary `json:"shareCommentary"`
	ShareMediaCategory string          `json:"shareMediaCategory"`
}

type shareCommentary struct {
	Text string `json:"text"`
}

// Publish posts the draft text. Only 201 Created counts as success.
func (l *LinkedIn) Publish(ctx context.Context, draft *core.Draft) (Result, error) {
	if l.api.headers["Authorization"] == "" || l.authorURN == "" {
		return Result{}, fmt.Errorf("linkedin: access token and user id are required: %w", ErrNotConfigured)
	}
	if err := ValidateContent(draft.Content); err != nil {
		return Result{}, fmt.Errorf("linkedin: %w", err)
	}

	post := ugcPost{
		Author:         l.authorURN,
		LifecycleState: "PUBLISHED",
		SpecificContent: specificContent{ShareContent: shareContent{
			ShareCommentary:    shareCommentary{Text: draft.Content},
			ShareMediaCategory: "NONE",
		}},
		Visibility: map[string]string{"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC"},
	}

	resp, err := l.api.do(ctx, http.MethodPost, "/v2/ugcPosts", post, status(http.StatusCreated))
	if err != nil {
		return Result{}, fmt.Errorf("linkedin: failed to create post: %w", err)
	}

	var created struct {
		ID string `json:"id"`
	}
	if len(resp.Body) > 0 {
		_ = json.Unmarshal(resp.Body, &created)
	}
	id := created.ID
	if id == "" {
		id = resp.Header.Get("X-Restli-Id")
	}

	l.log.Info().Str("post_id", id).Msg("Published LinkedIn post")
	return Result{Platform: PlatformLinkedIn, ID: id, URL: PostURL(id)}, nil
}

// PostURL builds the feed URL for a returned post id. Unknown id shapes are
// treated as share ids.
func PostURL(id string) string {
	switch {
	case id == "":
		return ""
	case strings.HasPrefix(id, "urn:li:activity:"), strings.HasPrefix(id, "urn:li:share:"),
		strings.HasPrefix(id, "activity:"), strings.HasPrefix(id, "share:"):
		return "https://www.linkedin.com/feed/update/" + id + "/"
	default:
		return "https://www.linkedin.com/feed/update/urn:li:share:" + id + "/"
	}
}
