// Package dedup collapses near-duplicate items before ranking.
package dedup

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"researchpub/internal/config"
	"researchpub/internal/core"
	"researchpub/internal/logger"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/rs/zerolog"
)

// DefaultThreshold is the title similarity at or above which two items are duplicates.
const DefaultThreshold = 0.85

// Deduplicator drops items whose URL or title was already seen in the same call.
type Deduplicator struct {
	threshold  float64
	useURLHash bool
	log        zerolog.Logger
}

// New returns a Deduplicator. A threshold outside (0, 1] falls back to DefaultThreshold.
func New(threshold float64, useURLHash bool) *Deduplicator {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Deduplicator{
		threshold:  threshold,
		useURLHash: useURLHash,
		log:        logger.Component("dedup"),
	}
}

// FromConfig builds a Deduplicator from the deduplication config section.
func FromConfig(cfg config.Deduplication) *Deduplicator {
	return New(cfg.TitleSimilarityThreshold, cfg.URLHash)
}

// Deduplicate returns the first-seen item of every duplicate group, in input order.
// Comparisons are pairwise against every kept title.
func (d *Deduplicator) Deduplicate(items []*core.ContentItem) []*core.ContentItem {
	seenURLs := make(map[string]struct{}, len(items))
	seenTitles := make([]string, 0, len(items))
	kept := make([]*core.ContentItem, 0, len(items))

	for _, item := range items {
		hash := URLHash(item.URL)
		if d.useURLHash {
			if _, dup := seenURLs[hash]; dup {
				d.log.Debug().Str("url", item.URL).Msg("Duplicate URL")
				continue
			}
		}

		title := NormalizeTitle(item.Title)
		if d.matchesSeen(title, seenTitles) {
			d.log.Debug().Str("title", item.Title).Msg("Duplicate title")
			continue
		}

		seenURLs[hash] = struct{}{}
		seenTitles = append(seenTitles, title)
		kept = append(kept, item)
	}

	d.log.Info().Int("input", len(items)).Int("kept", len(kept)).Msg("Deduplication complete")
	return kept
}

func (d *Deduplicator) matchesSeen(title string, seen []string) bool {
	for _, other := range seen {
		if Similarity(title, other) >= d.threshold {
			return true
		}
	}
	return false
}

// NormalizeTitle lower-cases and trims a title.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// Similarity is the character sequence matching ratio of a and b in [0, 1].
func Similarity(a, b string) float64 {
	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return m.Ratio()
}

// URLHash is the hex MD5 of the raw URL string.
func URLHash(url string) string {
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}
