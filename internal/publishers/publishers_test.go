package publishers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"researchpub/internal/config"
	"researchpub/internal/core"
	"researchpub/internal/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastPolicy = retry.Policy{Attempts: 3, BaseDelay: time.Millisecond}

func TestGitHubPagesCreatesPost(t *testing.T) {
	var put contentsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer gh-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/repos/octo/blog/contents/_posts/2026-10-14-hello-agents.md", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "gh-pages", r.URL.Query().Get("ref"))
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&put))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	g := NewGitHubPages(config.GitHubPages{APIURL: srv.URL, Token: "gh-token", Repo: "octo/blog"}, srv.Client(), fastPolicy)
	g.now = func() time.Time { return time.Date(2026, 10, 14, 23, 0, 0, 0, time.UTC) }

	res, err := g.Publish(context.Background(), &core.Draft{Title: "Hello, Agents", Content: "---\ntitle: x\n---\nbody"})
	require.NoError(t, err)
	assert.Equal(t, "https://octo.github.io/blog/2026/10/14/hello-agents.html", res.URL)
	assert.Equal(t, "Add post: 2026-10-14-hello-agents.md", put.Message)
	assert.Equal(t, "gh-pages", put.Branch)
	assert.Empty(t, put.SHA)

	decoded, err := base64.StdEncoding.DecodeString(put.Content)
	require.NoError(t, err)
	assert.Equal(t, "---\ntitle: x\n---\nbody", string(decoded))
}

func TestGitHubPagesUpdatesExistingPost(t *testing.T) {
	var put contentsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`{"sha":"abc123"}`))
			return
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&put))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	g := NewGitHubPages(config.GitHubPages{APIURL: srv.URL, Token: "t", Repo: "octo/blog", Branch: "main", Path: "/posts/"}, srv.Client(), fastPolicy)
	res, err := g.Publish(context.Background(), &core.Draft{Title: "Post", Content: "body"})
	require.NoError(t, err)
	assert.Equal(t, "abc123", put.SHA)
	assert.Equal(t, "main", put.Branch)
	assert.True(t, strings.HasPrefix(put.Message, "Update post: "))
	assert.True(t, strings.HasPrefix(res.ID, "posts/"))
}

func TestGitHubPagesRequiresConfig(t *testing.T) {
	g := NewGitHubPages(config.GitHubPages{Repo: "octo/blog"}, http.DefaultClient, fastPolicy)
	_, err := g.Publish(context.Background(), &core.Draft{Content: "x"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestLinkedInPublish(t *testing.T) {
	var got ugcPost
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/ugcPosts", r.URL.Path)
		assert.Equal(t, "Bearer li-token", r.Header.Get("Authorization"))
		assert.Equal(t, "2.0.0", r.Header.Get("X-Restli-Protocol-Version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("X-Restli-Id", "urn:li:share:987")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	l := NewLinkedIn(config.LinkedIn{APIURL: srv.URL, AccessToken: "li-token", UserID: "abc"}, srv.Client(), fastPolicy)
	res, err := l.Publish(context.Background(), &core.Draft{Content: "Hello LinkedIn"})
	require.NoError(t, err)
	assert.Equal(t, "urn:li:share:987", res.ID)
	assert.Equal(t, "https://www.linkedin.com/feed/update/urn:li:share:987/", res.URL)
	assert.Equal(t, "urn:li:person:abc", got.Author)
	assert.Equal(t, "PUBLISHED", got.LifecycleState)
	assert.Equal(t, "Hello LinkedIn", got.SpecificContent.ShareContent.ShareCommentary.Text)
	assert.Equal(t, "PUBLIC", got.Visibility["com.linkedin.ugc.MemberNetworkVisibility"])
}

func TestLinkedInOnlyCreatedCounts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	l := NewLinkedIn(config.LinkedIn{APIURL: srv.URL, AccessToken: "t", UserID: "abc"}, srv.Client(), fastPolicy)
	_, err := l.Publish(context.Background(), &core.Draft{Content: "post"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "200")
	assert.Equal(t, int32(1), calls.Load())
}

func TestLinkedInRetriesThrottling(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"urn:li:activity:1"}`))
	}))
	defer srv.Close()

	l := NewLinkedIn(config.LinkedIn{APIURL: srv.URL, AccessToken: "t", UserID: "urn:li:person:abc"}, srv.Client(), fastPolicy)
	res, err := l.Publish(context.Background(), &core.Draft{Content: "post"})
	require.NoError(t, err)
	assert.Equal(t, "https://www.linkedin.com/feed/update/urn:li:activity:1/", res.URL)
	assert.Equal(t, int32(2), calls.Load())
}

func TestLinkedInValidation(t *testing.T) {
	assert.ErrorIs(t, ValidateContent("  \n"), ErrContentInvalid)
	assert.ErrorIs(t, ValidateContent(strings.Repeat("é", MaxLinkedInChars+1)), ErrContentInvalid)
	assert.NoError(t, ValidateContent(strings.Repeat("é", MaxLinkedInChars)))

	l := NewLinkedIn(config.LinkedIn{AccessToken: "t"}, http.DefaultClient, fastPolicy)
	_, err := l.Publish(context.Background(), &core.Draft{Content: "x"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestLinkedInPostURL(t *testing.T) {
	assert.Equal(t, "", PostURL(""))
	assert.Equal(t, "https://www.linkedin.com/feed/update/share:5/", PostURL("share:5"))
	assert.Equal(t, "https://www.linkedin.com/feed/update/urn:li:share:42/", PostURL("42"))
	assert.Equal(t, "urn:li:person:x", NormalizeAuthorURN(" x "))
}

func TestMediumPublishResolvesAuthor(t *testing.T) {
	var post mediumPost
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer md-token", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/me":
			_, _ = w.Write([]byte(`{"data":{"id":"u1"}}`))
		case "/users/u1/posts":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&post))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"data":{"id":"p1","url":"https://medium.com/@u/p1"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	m := NewMedium(config.Medium{APIURL: srv.URL, Token: "md-token"}, srv.Client(), fastPolicy)
	content := "---\ntitle: Deep Dive\ntags:\n  - a\n  - b\n  - c\n  - d\n  - e\n  - f\ncanonical_url: https://arxiv.org/abs/1\n---\n\n# Deep Dive\n\nText"
	res, err := m.Publish(context.Background(), &core.Draft{ID: "d1", Content: content})
	require.NoError(t, err)

	assert.Equal(t, "https://medium.com/@u/p1", res.URL)
	assert.Equal(t, "Deep Dive", post.Title)
	assert.Equal(t, "markdown", post.ContentFormat)
	assert.Equal(t, "draft", post.PublishStatus)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, post.Tags)
	assert.Equal(t, "https://arxiv.org/abs/1", post.CanonicalURL)
	assert.Equal(t, "# Deep Dive\n\nText", post.Content)
}

func TestMediumConfiguredAuthorSkipsLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me42/posts", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":{"id":"p","url":"u"}}`))
	}))
	defer srv.Close()

	m := NewMedium(config.Medium{APIURL: srv.URL, Token: "t", AuthorID: "me42", PublishStatus: "public"}, srv.Client(), fastPolicy)
	_, err := m.Publish(context.Background(), &core.Draft{Title: "T", Content: "no front matter"})
	require.NoError(t, err)
}

func TestFromConfig(t *testing.T) {
	pubs := FromConfig(config.Publishing{
		GitHubPages: config.GitHubPages{Enabled: true},
		Medium:      config.Medium{Enabled: true},
	}, nil)
	assert.Len(t, pubs, 2)
	assert.Contains(t, pubs, PlatformGitHubPages)
	assert.NotContains(t, pubs, PlatformLinkedIn)

	assert.Equal(t, PlatformLinkedIn, DefaultPlatform(core.FormatLinkedIn))
	assert.Equal(t, PlatformMedium, DefaultPlatform(core.FormatMedium))
	assert.Equal(t, PlatformGitHubPages, DefaultPlatform(core.FormatBlog))
}
