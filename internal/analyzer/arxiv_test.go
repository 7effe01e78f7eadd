package analyzer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"researchpub/internal/core"
	"researchpub/internal/llm"

	"github.com/stretchr/testify/assert"
)

// scripted answers calls in order; an entry with err set fails that call.
type scripted struct {
	replies []reply
	temps   []float32
}

type reply struct {
	text string
	err  error
}

func (s *scripted) Generate(_ context.Context, _, _ string, opts llm.Options) (string, error) {
	var temp float32 = -1
	if opts.Temperature != nil {
		temp = *opts.Temperature
	}
	s.temps = append(s.temps, temp)
	if len(s.replies) == 0 {
		return "", errors.New("no scripted reply")
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r.text, r.err
}

func paper() *core.ContentItem {
	return &core.ContentItem{
		Title:    "Sparse Mixture of Agents",
		Summary:  strings.Repeat("a", 600),
		Category: "cs.AI",
		Authors:  []string{"A", "B", "C", "D", "E", "F"},
	}
}

func TestEnhanceRelevant(t *testing.T) {
	gen := &scripted{replies: []reply{
		{text: "This paper routes tokens between agents."},
		{text: "teams serving large models because it halves latency."},
		{text: "Score: 8.5\nReason: Practical and novel."},
	}}
	enh := NewArxivEnhancer(gen, 0).Enhance(context.Background(), paper())

	assert.Equal(t, "Routes tokens between agents.", enh.Summary)
	assert.Equal(t, "Useful for teams serving large models because it halves latency.", enh.Verdict)
	assert.InDelta(t, 8.5, enh.RelevancyScore, 1e-9)
	assert.Equal(t, "Practical and novel.", enh.RelevancyReason)
	assert.True(t, enh.Relevant)
	assert.Equal(t, []float32{0.4, 0.3, 0.2}, gen.temps)
}

func TestEnhanceFallbacks(t *testing.T) {
	gen := &scripted{replies: []reply{
		{err: errors.New("down")},
		{err: errors.New("down")},
		{err: errors.New("down")},
	}}
	enh := NewArxivEnhancer(gen, 6).Enhance(context.Background(), paper())

	assert.Len(t, enh.Summary, 500)
	assert.Equal(t, fallbackVerdict, enh.Verdict)
	assert.InDelta(t, 5.0, enh.RelevancyScore, 1e-9)
	assert.Contains(t, enh.RelevancyReason, "down")
	assert.False(t, enh.Relevant)
}

func TestEnhanceThreshold(t *testing.T) {
	gen := &scripted{replies: []reply{
		{text: "Summary."},
		{text: "Useful for nobody."},
		{text: "Score: 6\nReason: borderline"},
	}}
	assert.True(t, NewArxivEnhancer(gen, 6).Enhance(context.Background(), paper()).Relevant)
}

func TestParseRelevancy(t *testing.T) {
	tests := []struct {
		in     string
		score  float64
		reason string
	}{
		{"Score: 7\nReason: good fit", 7, "good fit"},
		{"Score: 14\nReason: wow", 10, "wow"},
		{"Score: -3", 0, "Could not determine relevancy"},
		{"Score: 8/10\nReason: x: y", 5, "x: y"},
		{"no structure at all", 5, "Could not determine relevancy"},
	}
	for _, tt := range tests {
		score, reason := ParseRelevancy(tt.in)
		assert.InDelta(t, tt.score, score, 1e-9, tt.in)
		assert.Equal(t, tt.reason, reason, tt.in)
	}
}

func TestStripAcademicOpeners(t *testing.T) {
	assert.Equal(t, "Routing works.", StripAcademicOpeners("This paper routing works."))
	assert.Equal(t, "A new router.", StripAcademicOpeners("In this work, we propose a new router."))
	assert.Equal(t, "Agents cooperate.", StripAcademicOpeners("Agents cooperate."))
}
