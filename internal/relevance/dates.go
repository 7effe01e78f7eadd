package relevance

import (
	"math"
	"strings"
	"time"
)

// publishedLayouts are tried in order; the first successful parse wins.
var publishedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2006-01-02",
}

// ParsePublished parses a feed or API date string. The second result is false
// for empty or unrecognised input.
func ParsePublished(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// AgeDays returns the number of whole days between published and now,
// rounding down. Future dates give negative ages.
func AgeDays(published, now time.Time) int {
	return int(math.Floor(now.Sub(published).Hours() / 24))
}
