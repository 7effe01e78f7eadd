package analyzer

import (
	"context"
	"strings"

	"researchpub/internal/core"
	"researchpub/internal/llm"
	"researchpub/internal/prompts"
)

// Diagram keys in AnalysisResult.Diagrams.
const (
	DiagramArchitecture = "architecture"
	DiagramFlow         = "flow"
	DiagramComparison   = "comparison"
)

var mediumStages = []prompts.Stage{prompts.Methodology, prompts.Results, prompts.MediumSynthesis}

var diagramStages = []struct {
	key   string
	stage prompts.Stage
}{
	{DiagramArchitecture, prompts.DiagramArchitecture},
	{DiagramFlow, prompts.DiagramFlow},
	{DiagramComparison, prompts.DiagramComparison},
}

// AnalyzeForMedium runs the configured stages, then the methodology, results
// and Medium synthesis stages, then the three diagram prompts. Each extra call
// fails independently; a failed diagram is stored as an empty string.
func (a *Analyzer) AnalyzeForMedium(ctx context.Context, item *core.ContentItem) *core.AnalysisResult {
	result := a.Analyze(ctx, item)
	content := PrepareContent(item)

	for _, stage := range mediumStages {
		if _, done := result.Stages[string(stage)]; done {
			continue
		}
		outcome := a.runStage(ctx, stage, item, content, result, llm.Options{})
		if !outcome.OK() {
			a.log.Error().Err(outcome.Err).Str("stage", string(stage)).Msg("Medium stage failed")
		}
		record(result, outcome)
	}

	for _, d := range diagramStages {
		outcome := a.runStage(ctx, d.stage, item, content, result, llm.Options{Temperature: llm.Temp(0.3)})
		if !outcome.OK() {
			a.log.Warn().Err(outcome.Err).Str("diagram", d.key).Msg("Diagram generation failed")
			result.Diagrams[d.key] = ""
			continue
		}
		result.Diagrams[d.key] = CleanMermaid(outcome.Text)
	}

	result.Success = len(result.FailedStages) == 0
	result.AnalyzedAt = a.now().UTC()
	return result
}

// CleanMermaid strips code fences around a Mermaid diagram.
func CleanMermaid(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimPrefix(text, "mermaid")
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
