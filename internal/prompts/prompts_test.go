package prompts

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStages(t *testing.T) {
	stages, err := ParseStages([]string{"fact_extraction", " engineer_summary "})
	require.NoError(t, err)
	assert.Equal(t, []Stage{FactExtraction, EngineerSummary}, stages)

	stages, err = ParseStages(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultStages, stages)

	_, err = ParseStages([]string{"fact_extraction", "vibes"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownStage))
	assert.Contains(t, err.Error(), "vibes")

	_, err = ParseStages([]string{"fact_extraction", "engineer_summary", " fact_extraction"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateStage)
	assert.Contains(t, err.Error(), "fact_extraction")
}

func TestEveryStageBuilds(t *testing.T) {
	in := Input{
		Content:         "Title: X\nContent:\nabstract",
		Title:           "X",
		URL:             "https://example.com/x",
		AnalyzedContent: "## Fact Extraction\nfacts",
		GeneratedOutput: "a post",
	}
	for _, stage := range All() {
		t.Run(string(stage), func(t *testing.T) {
			prompt, err := Build(stage, in)
			require.NoError(t, err)
			assert.NotEmpty(t, prompt)
		})
	}
}

func TestBuildUnknownStage(t *testing.T) {
	_, err := Build(Stage("nope"), Input{})
	assert.ErrorIs(t, err, ErrUnknownStage)
}

func TestPromptsCarryTheirInputs(t *testing.T) {
	in := Input{
		Content:         "RAW-CONTENT",
		Title:           "TITLE",
		URL:             "URL",
		AnalyzedContent: "ANALYZED",
		GeneratedOutput: "GENERATED",
		Topics:          []string{"llm", "agents"},
		Stars:           42,
	}

	raw, _ := Build(FactExtraction, in)
	assert.Contains(t, raw, "RAW-CONTENT")
	assert.NotContains(t, raw, "ANALYZED")

	synth, _ := Build(BlogSynthesis, in)
	assert.Contains(t, synth, "ANALYZED")
	assert.Contains(t, synth, "Title: TITLE")
	assert.NotContains(t, synth, "RAW-CONTENT")

	review, _ := Build(CredibilityCheck, in)
	assert.Contains(t, review, "GENERATED")

	why, _ := Build(GitHubELI5Why, in)
	assert.Contains(t, why, "42 stars")
	assert.Contains(t, why, "unknown contributors")

	what, _ := Build(GitHubELI5What, in)
	assert.Contains(t, what, "llm, agents")
}

func TestStageKinds(t *testing.T) {
	assert.Equal(t, KindRaw, FactExtraction.Kind())
	assert.Equal(t, KindSynthesis, BlogSynthesis.Kind())
	assert.Equal(t, KindSynthesis, LinkedInFormatting.Kind())
	assert.Equal(t, KindSynthesis, MediumSynthesis.Kind())
	assert.Equal(t, KindRepository, GitHubELI5Blog.Kind())
	assert.Equal(t, KindReview, LinkedInValidation.Kind())
	assert.Equal(t, ELI5SystemPrompt, SystemFor(GitHubELI5What))
	assert.Equal(t, SystemPrompt, SystemFor(Results))
}

func TestHeading(t *testing.T) {
	assert.Equal(t, "Fact Extraction", FactExtraction.Heading())
	assert.Equal(t, "Application Mapping", ApplicationMapping.Heading())
}
