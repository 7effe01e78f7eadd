package analyzer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"researchpub/internal/prompts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValidation(t *testing.T) {
	raw := "```json\n" + `{
  "is_valid": true,
  "validation_score": 88,
  "issues": [{"category": "quality", "severity": "low", "issue": "long sentence", "suggestion": "split it"}],
  "approved": true,
  "summary": "fine"
}` + "\n```"

	report, err := ParseValidation(raw)
	require.NoError(t, err)
	assert.True(t, report.IsValid)
	assert.Equal(t, 88, report.ValidationScore)
	assert.True(t, report.Approved)
	assert.Equal(t, MethodLLM, report.Method)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, "split it", report.Issues[0].Suggestion)
}

func TestParseValidationLowScoreNotApproved(t *testing.T) {
	report, err := ParseValidation(`{"is_valid": true, "validation_score": 65, "issues": [], "approved": true, "summary": "meh"}`)
	require.NoError(t, err)
	assert.False(t, report.Approved)
}

func TestParseValidationRejectsMalformed(t *testing.T) {
	for _, raw := range []string{
		"Looks good to me!",
		`{"is_valid": true}`,
		`{"is_valid": "yes", "validation_score": 90, "issues": [], "approved": true, "summary": ""}`,
		`{"is_valid": true, "validation_score": 140, "issues": [], "approved": true, "summary": ""}`,
	} {
		_, err := ParseValidation(raw)
		assert.ErrorIs(t, err, ErrInvalidValidation, raw)
	}
}

func TestValidateLinkedInSafetyFallsBackOnFreeText(t *testing.T) {
	gen := newFake()
	gen.replies[prompts.LinkedInValidation] = "The post is great, ship it."
	a := New(gen, nil, DefaultOptions())

	report := a.ValidateLinkedInSafety(context.Background(), "A clear post about sparse agents.")
	assert.Equal(t, MethodHeuristic, report.Method)
	assert.True(t, report.IsValid)
	assert.Equal(t, 100, report.ValidationScore)
	assert.True(t, report.Approved)
	assert.NotNil(t, report.Issues)
	assert.NotEmpty(t, report.Summary)
}

func TestValidateLinkedInSafetyFallsBackOnError(t *testing.T) {
	gen := newFake()
	gen.fail[prompts.LinkedInValidation] = errors.New("offline")
	report := New(gen, nil, DefaultOptions()).ValidateLinkedInSafety(context.Background(), "")
	assert.Equal(t, MethodHeuristic, report.Method)
	assert.False(t, report.Approved)
}

func TestValidateLinkedInSafetyUsesModelVerdict(t *testing.T) {
	gen := newFake()
	gen.replies[prompts.LinkedInValidation] = `{"is_valid": false, "validation_score": 40, "issues": [{"category": "safety", "severity": "critical", "issue": "misleading", "suggestion": "fix"}], "approved": false, "summary": "no"}`
	report := New(gen, nil, DefaultOptions()).ValidateLinkedInSafety(context.Background(), "post")
	assert.Equal(t, MethodLLM, report.Method)
	assert.Equal(t, 40, report.ValidationScore)
	assert.False(t, report.Approved)

	c, ok := gen.callFor(prompts.LinkedInValidation)
	require.True(t, ok)
	assert.Contains(t, c.user, "post")
}

func TestHeuristicValidation(t *testing.T) {
	tests := []struct {
		name     string
		post     string
		score    int
		valid    bool
		approved bool
	}{
		{"clean", "Sparse agents cut inference cost by routing tokens.", 100, true, true},
		{"empty", "   ", 60, false, false},
		{"profanity", "This damn model is fast.", 60, false, false},
		{"profanity needs a word boundary", "Crappie fishing with transformers.", 100, true, true},
		{"citations", "Results improve [1] across tasks [2].", 85, true, true},
		{"hashtags", "Post #a #b #c #d #e #f", 95, true, true},
		{"too many words", strings.Repeat("word ", 301), 85, true, true},
		{"too long", strings.Repeat("x", 3001), 75, true, true},
		{"citations and words", strings.Repeat("claim [3] ", 151), 70, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := HeuristicValidation(tt.post, nil)
			assert.Equal(t, tt.score, report.ValidationScore)
			assert.Equal(t, tt.valid, report.IsValid)
			assert.Equal(t, tt.approved, report.Approved)
			assert.Equal(t, MethodHeuristic, report.Method)
		})
	}
}

func TestHeuristicValidationCustomProfanity(t *testing.T) {
	report := HeuristicValidation("This contains a test word", []string{"test"})
	assert.False(t, report.IsValid)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, "safety", report.Issues[0].Category)
}

func TestHeuristicValidationNonASCIIProfanity(t *testing.T) {
	report := HeuristicValidation("Das Modell ist Scheiße, ehrlich.", []string{"scheiße"})
	assert.False(t, report.IsValid)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, "safety", report.Issues[0].Category)

	report = HeuristicValidation("Ein großartiges Modell.", []string{"groß"})
	assert.True(t, report.IsValid)
	assert.Empty(t, report.Issues)
}

func TestContainsWord(t *testing.T) {
	tests := []struct {
		text string
		word string
		want bool
	}{
		{"this damn model", "damn", true},
		{"damn", "damn", true},
		{"damnation follows", "damn", false},
		{"crappie crap", "crap", true},
		{"snake_crap", "crap", false},
		{"(damn)", "damn", true},
		{"café crème", "café", true},
		{"cafés", "café", false},
		{"", "damn", false},
	}
	for _, tt := range tests {
		t.Run(tt.text+"/"+tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, containsWord(tt.text, tt.word))
		})
	}
}

func TestCleanJSONBlock(t *testing.T) {
	assert.Equal(t, `{"a":1}`, CleanJSONBlock("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, CleanJSONBlock("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, CleanJSONBlock("  {\"a\":1}  "))
}
