package relevance

import (
	"fmt"
	"strings"

	"researchpub/internal/core"
	"researchpub/internal/logger"

	"github.com/pemistahl/lingua-go"
	"github.com/rs/zerolog"
)

var supportedLanguages = map[string]lingua.Language{
	"en": lingua.English,
	"de": lingua.German,
	"fr": lingua.French,
	"es": lingua.Spanish,
	"zh": lingua.Chinese,
	"ja": lingua.Japanese,
	"ru": lingua.Russian,
	"pt": lingua.Portuguese,
	"it": lingua.Italian,
	"ko": lingua.Korean,
}

// LanguageFilter drops items confidently written in a language outside the allowed set.
type LanguageFilter struct {
	allowed  map[lingua.Language]bool
	detector lingua.LanguageDetector
	log      zerolog.Logger
}

// NewLanguageFilter builds a filter for ISO 639-1 codes. An empty list
// returns a nil filter, which keeps everything.
func NewLanguageFilter(codes []string) (*LanguageFilter, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	allowed := make(map[lingua.Language]bool, len(codes))
	for _, code := range codes {
		lang, ok := supportedLanguages[strings.ToLower(strings.TrimSpace(code))]
		if !ok {
			return nil, fmt.Errorf("unsupported language code %q", code)
		}
		allowed[lang] = true
	}

	candidates := make([]lingua.Language, 0, len(supportedLanguages))
	for _, lang := range supportedLanguages {
		candidates = append(candidates, lang)
	}

	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(candidates...).
		WithMinimumRelativeDistance(0.25).
		Build()

	return &LanguageFilter{
		allowed:  allowed,
		detector: detector,
		log:      logger.Component("language"),
	}, nil
}

// Allows reports whether text may pass. Text whose language cannot be
// determined is allowed.
func (f *LanguageFilter) Allows(text string) bool {
	if f == nil || strings.TrimSpace(text) == "" {
		return true
	}
	lang, ok := f.detector.DetectLanguageOf(text)
	if !ok {
		return true
	}
	return f.allowed[lang]
}

// Filter keeps items in input order whose title and summary pass Allows.
func (f *LanguageFilter) Filter(items []*core.ContentItem) []*core.ContentItem {
	if f == nil {
		return items
	}
	kept := make([]*core.ContentItem, 0, len(items))
	for _, item := range items {
		if f.Allows(item.Title + ". " + item.Summary) {
			kept = append(kept, item)
			continue
		}
		f.log.Debug().Str("title", item.Title).Msg("Dropped item in unwanted language")
	}
	return kept
}
