package analyzer

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"researchpub/internal/core"
	"researchpub/internal/llm"
	"researchpub/internal/logger"
	"researchpub/internal/prompts"

	"github.com/rs/zerolog"
)

// DefaultRelevancyThreshold is the minimum score for a paper to be analyzed.
const DefaultRelevancyThreshold = 6.0

const (
	neutralRelevancy = 5.0
	fallbackVerdict  = "Potential value for AI/ML practitioners exploring cutting-edge research."
	abstractFallback = 500
)

// academicOpeners are applied in order, so "In this work, we propose" loses both openers.
var academicOpeners = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^this paper `),
	regexp.MustCompile(`(?i)^the authors `),
	regexp.MustCompile(`(?i)^in this work,? `),
	regexp.MustCompile(`(?i)^the paper `),
	regexp.MustCompile(`(?i)^we present `),
	regexp.MustCompile(`(?i)^we propose `),
	regexp.MustCompile(`(?i)^this study `),
}

// Enhancement is the practitioner-facing summary and relevancy verdict for a paper.
type Enhancement struct {
	Summary         string  `json:"enhanced_summary"`
	Verdict         string  `json:"verdict"`
	RelevancyScore  float64 `json:"relevancy_score"`
	RelevancyReason string  `json:"relevancy_reason"`
	Relevant        bool    `json:"is_relevant"`
}

// ArxivEnhancer scores and summarises arXiv papers before full analysis.
type ArxivEnhancer struct {
	gen       llm.Generator
	threshold float64
	log       zerolog.Logger
}

// NewArxivEnhancer creates an enhancer. A non-positive threshold uses DefaultRelevancyThreshold.
func NewArxivEnhancer(gen llm.Generator, threshold float64) *ArxivEnhancer {
	if threshold <= 0 {
		threshold = DefaultRelevancyThreshold
	}
	return &ArxivEnhancer{gen: gen, threshold: threshold, log: logger.Component("arxiv_enhancer")}
}

// Enhance runs the summary, verdict and relevancy calls in turn. Each call has
// its own fallback so Enhance always returns a complete Enhancement.
func (e *ArxivEnhancer) Enhance(ctx context.Context, item *core.ContentItem) Enhancement {
	paper := prompts.Paper{
		Title:    item.Title,
		Authors:  item.Authors,
		Abstract: item.Summary,
		Category: item.Category,
	}

	summary := e.summary(ctx, paper)
	verdict := e.verdict(ctx, paper, summary)
	score, reason := e.relevancy(ctx, paper, summary, verdict)

	enh := Enhancement{
		Summary:         summary,
		Verdict:         verdict,
		RelevancyScore:  score,
		RelevancyReason: reason,
		Relevant:        score >= e.threshold,
	}
	if enh.Relevant {
		e.log.Info().Str("title", item.Title).Float64("score", score).Msg("Paper is relevant")
	} else {
		e.log.Warn().Str("title", item.Title).Float64("score", score).Str("reason", reason).Msg("Paper not relevant")
	}
	return enh
}

func (e *ArxivEnhancer) summary(ctx context.Context, p prompts.Paper) string {
	text, err := e.gen.Generate(ctx, "", prompts.ArxivSummary(p), llm.Options{Temperature: llm.Temp(0.4)})
	if err != nil {
		e.log.Error().Err(err).Msg("Failed to generate summary")
		return truncateRunes(p.Abstract, abstractFallback)
	}
	return StripAcademicOpeners(strings.TrimSpace(text))
}

func (e *ArxivEnhancer) verdict(ctx context.Context, p prompts.Paper, summary string) string {
	text, err := e.gen.Generate(ctx, "", prompts.ArxivVerdict(p, summary), llm.Options{Temperature: llm.Temp(0.3)})
	if err != nil {
		e.log.Error().Err(err).Msg("Failed to generate verdict")
		return fallbackVerdict
	}
	verdict := strings.TrimSpace(text)
	if !strings.HasPrefix(verdict, "Useful for") {
		verdict = "Useful for " + verdict
	}
	return verdict
}

func (e *ArxivEnhancer) relevancy(ctx context.Context, p prompts.Paper, summary, verdict string) (float64, string) {
	text, err := e.gen.Generate(ctx, "", prompts.ArxivRelevancy(p, summary, verdict), llm.Options{Temperature: llm.Temp(0.2)})
	if err != nil {
		e.log.Error().Err(err).Msg("Failed to check relevancy")
		return neutralRelevancy, fmt.Sprintf("Relevancy check failed: %v", err)
	}
	return ParseRelevancy(text)
}

// ParseRelevancy reads "Score:" and "Reason:" lines. The score is clamped to
// 0-10 and defaults to 5 when absent or malformed.
func ParseRelevancy(text string) (float64, string) {
	score, reason := neutralRelevancy, "Could not determine relevancy"
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Score:"):
			v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(line, "Score:")), 64)
			if err == nil {
				score = min(max(v, 0), 10)
			}
		case strings.HasPrefix(line, "Reason:"):
			reason = strings.TrimSpace(strings.TrimPrefix(line, "Reason:"))
		}
	}
	return score, reason
}

// StripAcademicOpeners removes a leading "This paper", "We propose" and similar,
// then capitalizes the first letter.
func StripAcademicOpeners(text string) string {
	for _, opener := range academicOpeners {
		text = opener.ReplaceAllString(text, "")
	}
	r, size := utf8.DecodeRuneInString(text)
	if size > 0 && unicode.IsLower(r) {
		text = string(unicode.ToUpper(r)) + text[size:]
	}
	return strings.TrimSpace(text)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
