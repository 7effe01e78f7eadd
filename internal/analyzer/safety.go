package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"researchpub/internal/llm"
	"researchpub/internal/prompts"

	"github.com/xeipuuv/gojsonschema"
)

// ApprovalThreshold is the minimum validation score for approval.
const ApprovalThreshold = 70

// Validation methods recorded on a report.
const (
	MethodLLM       = "llm"
	MethodHeuristic = "heuristic"
)

const (
	maxLinkedInChars    = 3000
	maxLinkedInWords    = 300
	maxLinkedInHashtags = 5
)

// ErrInvalidValidation is returned when a validation response does not match the report schema.
var ErrInvalidValidation = errors.New("invalid validation response")

var defaultProfanity = []string{"damn", "shit", "fuck", "crap", "bastard", "bitch"}

var (
	citationMarker = regexp.MustCompile(`\[\d+\]`)
	hashtag        = regexp.MustCompile(`#\w+`)
)

var severityPenalty = map[string]int{
	"critical": 40,
	"high":     25,
	"medium":   15,
	"low":      5,
}

// ValidationIssue is one problem found in a post.
type ValidationIssue struct {
	Category   string `json:"category"`
	Severity   string `json:"severity"`
	Issue      string `json:"issue"`
	Suggestion string `json:"suggestion"`
}

// ValidationReport is the safety verdict for a LinkedIn post.
type ValidationReport struct {
	IsValid         bool              `json:"is_valid"`
	ValidationScore int               `json:"validation_score"`
	Issues          []ValidationIssue `json:"issues"`
	Approved        bool              `json:"approved"`
	Summary         string            `json:"summary"`
	Method          string            `json:"method"`
}

const validationSchema = `{
  "type": "object",
  "required": ["is_valid", "validation_score", "issues", "approved", "summary"],
  "properties": {
    "is_valid": {"type": "boolean"},
    "validation_score": {"type": "number", "minimum": 0, "maximum": 100},
    "approved": {"type": "boolean"},
    "summary": {"type": "string"},
    "issues": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "category": {"type": "string"},
          "severity": {"type": "string"},
          "issue": {"type": "string"},
          "suggestion": {"type": "string"}
        }
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

func reportSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(validationSchema))
	})
	return compiledSchema, schemaErr
}

// ValidateLinkedInSafety asks the model to review a post. When the call fails
// or the answer is not a valid report, the heuristic validator decides instead.
func (a *Analyzer) ValidateLinkedInSafety(ctx context.Context, post string) ValidationReport {
	prompt, err := prompts.Build(prompts.LinkedInValidation, prompts.Input{GeneratedOutput: post})
	if err != nil {
		return HeuristicValidation(post, a.options.ProfanityList)
	}

	raw, err := a.gen.Generate(ctx, prompts.SystemPrompt, prompt, llm.Options{Temperature: llm.Temp(0.1)})
	if err != nil {
		a.log.Warn().Err(err).Msg("Safety validation call failed, using heuristic validator")
		return HeuristicValidation(post, a.options.ProfanityList)
	}

	report, err := ParseValidation(raw)
	if err != nil {
		a.log.Warn().Err(err).Msg("Unparseable safety validation, using heuristic validator")
		return HeuristicValidation(post, a.options.ProfanityList)
	}
	return report
}

// ParseValidation decodes a model validation response. Approval additionally
// requires a score of at least ApprovalThreshold.
func ParseValidation(raw string) (ValidationReport, error) {
	doc := CleanJSONBlock(raw)

	schema, err := reportSchema()
	if err != nil {
		return ValidationReport{}, fmt.Errorf("compile validation schema: %w", err)
	}
	res, err := schema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return ValidationReport{}, fmt.Errorf("%w: %v", ErrInvalidValidation, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return ValidationReport{}, fmt.Errorf("%w: %s", ErrInvalidValidation, strings.Join(msgs, "; "))
	}

	var wire struct {
		IsValid         bool              `json:"is_valid"`
		ValidationScore float64           `json:"validation_score"`
		Issues          []ValidationIssue `json:"issues"`
		Approved        bool              `json:"approved"`
		Summary         string            `json:"summary"`
	}
	if err := json.Unmarshal([]byte(doc), &wire); err != nil {
		return ValidationReport{}, fmt.Errorf("%w: %v", ErrInvalidValidation, err)
	}

	score := int(wire.ValidationScore + 0.5)
	issues := wire.Issues
	if issues == nil {
		issues = []ValidationIssue{}
	}
	return ValidationReport{
		IsValid:         wire.IsValid,
		ValidationScore: score,
		Issues:          issues,
		Approved:        wire.Approved && score >= ApprovalThreshold,
		Summary:         wire.Summary,
		Method:          MethodLLM,
	}, nil
}

// HeuristicValidation checks a post locally. The score starts at 100 and
// loses points per issue according to its severity.
func HeuristicValidation(post string, profanity []string) ValidationReport {
	if len(profanity) == 0 {
		profanity = defaultProfanity
	}

	issues := []ValidationIssue{}
	add := func(category, severity, issue, suggestion string) {
		issues = append(issues, ValidationIssue{Category: category, Severity: severity, Issue: issue, Suggestion: suggestion})
	}

	trimmed := strings.TrimSpace(post)
	if trimmed == "" {
		add("quality", "critical", "Post is empty", "Generate the post again")
	}

	lower := strings.ToLower(post)
	for _, word := range profanity {
		w := strings.ToLower(strings.TrimSpace(word))
		if w == "" {
			continue
		}
		if containsWord(lower, w) {
			add("safety", "critical", fmt.Sprintf("Contains inappropriate language: %q", w), "Remove or rephrase the word")
		}
	}

	if n := len([]rune(post)); n > maxLinkedInChars {
		add("compliance", "high", fmt.Sprintf("Post is %d characters, over the %d limit", n, maxLinkedInChars), "Shorten the post")
	}
	if n := len(strings.Fields(post)); n > maxLinkedInWords {
		add("compliance", "medium", fmt.Sprintf("Post is %d words, over the %d word guideline", n, maxLinkedInWords), "Cut it down to the key points")
	}
	if citationMarker.MatchString(post) {
		add("quality", "medium", "Contains citation markers such as [1]", "Remove citation markers")
	}
	if n := len(hashtag.FindAllString(post, -1)); n > maxLinkedInHashtags {
		add("compliance", "low", fmt.Sprintf("Uses %d hashtags", n), fmt.Sprintf("Keep at most %d hashtags", maxLinkedInHashtags))
	}

	score := 100
	valid := true
	for _, issue := range issues {
		score -= severityPenalty[issue.Severity]
		if issue.Severity == "critical" {
			valid = false
		}
	}
	if score < 0 {
		score = 0
	}

	summary := "No issues found by heuristic validation"
	if len(issues) > 0 {
		summary = fmt.Sprintf("Heuristic validation found %d issue(s)", len(issues))
	}

	return ValidationReport{
		IsValid:         valid,
		ValidationScore: score,
		Issues:          issues,
		Approved:        valid && score >= ApprovalThreshold,
		Summary:         summary,
		Method:          MethodHeuristic,
	}
}

// containsWord reports whether word occurs in text with no letter, digit or
// underscore directly on either side. Both sides are compared as given.
func containsWord(text, word string) bool {
	for start := 0; start <= len(text)-len(word); {
		idx := strings.Index(text[start:], word)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(word)

		before, _ := utf8.DecodeLastRuneInString(text[:idx])
		after, _ := utf8.DecodeRuneInString(text[end:])
		if (idx == 0 || !isWordRune(before)) && (end == len(text) || !isWordRune(after)) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[idx:])
		start = idx + size
	}
	return false
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// CleanJSONBlock removes markdown code fences around a JSON document.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.Index(text, "\n"); idx >= 0 {
			first := text[:idx]
			if len(first) < 20 && !strings.Contains(first, " ") && !strings.Contains(first, "{") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	return text
}
