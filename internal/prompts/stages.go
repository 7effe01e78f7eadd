// Package prompts holds the closed set of analysis stages and the pure
// functions that render each stage's prompt.
package prompts

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownStage is returned when a configured stage name has no template.
var ErrUnknownStage = errors.New("unknown prompt stage")

// ErrDuplicateStage is returned when a configured stage list names a stage twice.
var ErrDuplicateStage = errors.New("duplicate prompt stage")

// Stage names one step of the analysis pipeline.
type Stage string

const (
	FactExtraction     Stage = "fact_extraction"
	EngineerSummary    Stage = "engineer_summary"
	ImpactAnalysis     Stage = "impact_analysis"
	ApplicationMapping Stage = "application_mapping"
	BlogSynthesis      Stage = "blog_synthesis"
	LinkedInFormatting Stage = "linkedin_formatting"
	CredibilityCheck   Stage = "credibility_check"

	MediumSynthesis     Stage = "medium_synthesis"
	Methodology         Stage = "methodology"
	Results             Stage = "results"
	DiagramArchitecture Stage = "diagram_architecture"
	DiagramFlow         Stage = "diagram_flow"
	DiagramComparison   Stage = "diagram_comparison"

	GitHubELI5What           Stage = "github_eli5_what"
	GitHubELI5How            Stage = "github_eli5_how"
	GitHubELI5Why            Stage = "github_eli5_why"
	GitHubELI5GettingStarted Stage = "github_eli5_getting_started"
	GitHubELI5Blog           Stage = "github_eli5_blog"

	LinkedInEngaging   Stage = "linkedin_engaging"
	LinkedInValidation Stage = "linkedin_validation"
)

// Kind describes what input a stage consumes.
type Kind int

const (
	// KindRaw stages read the prepared item text.
	KindRaw Kind = iota
	// KindSynthesis stages read the formatted output of the core analysis stages.
	KindSynthesis
	// KindRepository stages read repository metadata directly.
	KindRepository
	// KindReview stages read previously generated text.
	KindReview
)

// DefaultStages is the stage list used when none is configured.
var DefaultStages = []Stage{FactExtraction, EngineerSummary, ImpactAnalysis, ApplicationMapping}

// CoreStages are the stages whose outputs feed synthesis prompts, in order.
var CoreStages = []Stage{FactExtraction, EngineerSummary, ImpactAnalysis, ApplicationMapping}

var allStages = []Stage{
	FactExtraction, EngineerSummary, ImpactAnalysis, ApplicationMapping,
	BlogSynthesis, LinkedInFormatting, CredibilityCheck, MediumSynthesis,
	Methodology, Results, DiagramArchitecture, DiagramFlow, DiagramComparison,
	GitHubELI5What, GitHubELI5How, GitHubELI5Why, GitHubELI5GettingStarted, GitHubELI5Blog,
	LinkedInEngaging, LinkedInValidation,
}

// All returns every known stage.
func All() []Stage {
	out := make([]Stage, len(allStages))
	copy(out, allStages)
	return out
}

// Kind reports the input kind of the stage.
func (s Stage) Kind() Kind {
	switch s {
	case BlogSynthesis, LinkedInFormatting, MediumSynthesis, LinkedInEngaging:
		return KindSynthesis
	case GitHubELI5What, GitHubELI5How, GitHubELI5Why, GitHubELI5GettingStarted, GitHubELI5Blog:
		return KindRepository
	case CredibilityCheck, LinkedInValidation:
		return KindReview
	default:
		return KindRaw
	}
}

// IsELI5 reports whether the stage uses the ELI5 system prompt.
func (s Stage) IsELI5() bool {
	return s.Kind() == KindRepository
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	for _, known := range allStages {
		if s == known {
			return true
		}
	}
	return false
}

// Heading renders the stage name in title case, e.g. "Fact Extraction".
func (s Stage) Heading() string {
	words := strings.Split(string(s), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// ParseStage converts a configured name into a Stage.
func ParseStage(name string) (Stage, error) {
	s := Stage(strings.TrimSpace(name))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStage, name)
	}
	return s, nil
}

// ParseStages converts a configured list, failing on the first unknown or
// repeated name. An empty list yields DefaultStages.
func ParseStages(names []string) ([]Stage, error) {
	if len(names) == 0 {
		out := make([]Stage, len(DefaultStages))
		copy(out, DefaultStages)
		return out, nil
	}
	out := make([]Stage, 0, len(names))
	seen := make(map[Stage]bool, len(names))
	for _, name := range names {
		s, err := ParseStage(name)
		if err != nil {
			return nil, err
		}
		if seen[s] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateStage, name)
		}
		seen[s] = true
		out = append(out, s)
	}
	return out, nil
}
