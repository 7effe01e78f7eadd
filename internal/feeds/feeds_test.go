package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const arxivRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <channel>
    <title>cs.AI updates on arXiv.org</title>
    <link>http://rss.arxiv.org/rss/cs.AI</link>
    <item>
      <title>Sparse Mixture of Agents</title>
      <link>https://arxiv.org/abs/2401.00001</link>
      <description>arXiv:2401.00001v1 Announce Type: new
Abstract: We route &lt;b&gt;tokens&lt;/b&gt; between agents.</description>
      <guid isPermaLink="false">oai:arXiv.org:2401.00001v1</guid>
      <category>cs.AI</category>
      <pubDate>Mon, 08 Jan 2024 00:00:00 -0500</pubDate>
      <dc:creator>Ada Lovelace, Grace Hopper</dc:creator>
    </item>
  </channel>
</rss>`

const blogAtom = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Research Blog</title>
  <link href="https://blog.example.com/" rel="alternate"/>
  <entry>
    <title>Scaling agents</title>
    <link href="https://blog.example.com/feed.xml" rel="self"/>
    <link href="https://blog.example.com/scaling-agents" rel="alternate"/>
    <id>tag:blog.example.com,2024:1</id>
    <updated>2024-01-09T10:00:00Z</updated>
    <summary type="html">&lt;p&gt;Agents at scale.&lt;/p&gt;</summary>
    <author><name>Jane Doe</name></author>
  </entry>
</feed>`

func TestParseRSS(t *testing.T) {
	feed, err := Parse([]byte(arxivRSS))
	require.NoError(t, err)
	assert.Equal(t, "cs.AI updates on arXiv.org", feed.Title)
	require.Len(t, feed.Entries, 1)

	e := feed.Entries[0]
	assert.Equal(t, "Sparse Mixture of Agents", e.Title)
	assert.Equal(t, "https://arxiv.org/abs/2401.00001", e.Link)
	assert.Equal(t, "oai:arXiv.org:2401.00001v1", e.GUID)
	assert.Equal(t, []string{"Ada Lovelace", "Grace Hopper"}, e.Authors)
	assert.Equal(t, []string{"cs.AI"}, e.Categories)
	assert.Equal(t, "Mon, 08 Jan 2024 00:00:00 -0500", e.Published)
	assert.Contains(t, StripHTML(e.Summary), "We route tokens between agents.")
}

func TestParseAtom(t *testing.T) {
	feed, err := Parse([]byte(blogAtom))
	require.NoError(t, err)
	assert.Equal(t, "Research Blog", feed.Title)
	assert.Equal(t, "https://blog.example.com/", feed.Link)
	require.Len(t, feed.Entries, 1)

	e := feed.Entries[0]
	assert.Equal(t, "https://blog.example.com/scaling-agents", e.Link)
	assert.Equal(t, "2024-01-09T10:00:00Z", e.Published)
	assert.Equal(t, []string{"Jane Doe"}, e.Authors)
	assert.Equal(t, "Agents at scale.", StripHTML(e.Summary))
	assert.Equal(t, "tag:blog.example.com,2024:1", e.Key())
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse([]byte("<html><body>not a feed</body></html>"))
	assert.Error(t, err)
}

func TestEntryKey(t *testing.T) {
	assert.Equal(t, "g", Entry{GUID: "g", Link: "l"}.Key())
	assert.Equal(t, "l", Entry{Link: "l"}.Key())
	assert.Equal(t, Entry{Title: "t"}.Key(), Entry{Title: "t"}.Key())
	assert.NotEmpty(t, Entry{Title: "t"}.Key())
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "Hello world & friends", StripHTML("<p>Hello <em>world</em></p>\n<p>&amp; friends</p>"))
	assert.Equal(t, "plain text", StripHTML("  plain\n text "))
}

func TestFetchConditional(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(arxivRSS))
	}))
	defer srv.Close()

	c := NewClient(5 * time.Second)
	feed, err := c.Fetch(context.Background(), srv.URL, "", "")
	require.NoError(t, err)
	assert.Equal(t, `"v1"`, feed.ETag)
	assert.Len(t, feed.Entries, 1)

	feed, err = c.Fetch(context.Background(), srv.URL, "", `"v1"`)
	require.NoError(t, err)
	assert.True(t, feed.NotModified)
}

func TestFetchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	_, err := NewClient(time.Second).Fetch(context.Background(), srv.URL, "", "")
	assert.ErrorContains(t, err, "410")
}

func TestDiscover(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head>
<link rel="alternate" type="application/rss+xml" href="/blog/rss.xml">
<link rel="alternate" type="application/atom+xml" href="https://cdn.example.com/atom.xml">
<link rel="alternate" type="text/html" hreflang="de" href="/de">
<link rel="stylesheet" href="/style.css">
</head><body></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	found, err := NewClient(time.Second).Discover(context.Background(), srv.URL+"/")
	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/blog/rss.xml", "https://cdn.example.com/atom.xml"}, found)
}

func TestDiscoverTriesCommonPaths(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/atom.xml" {
			_, _ = w.Write([]byte(blogAtom))
			return
		}
		if r.URL.Path == "/" {
			_, _ = w.Write([]byte(`<html><head><title>no feeds</title></head></html>`))
			return
		}
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	found, err := NewClient(time.Second).Discover(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/atom.xml"}, found)
}
