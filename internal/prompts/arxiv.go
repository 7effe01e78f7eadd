package prompts

import (
	"fmt"
	"strings"
)

// Paper is the metadata the arXiv enhancement prompts read.
type Paper struct {
	Title    string
	Authors  []string
	Abstract string
	Category string
}

func firstAuthors(authors []string, n int) string {
	if len(authors) > n {
		authors = authors[:n]
	}
	return strings.Join(authors, ", ")
}

// ArxivSummary asks for a short, practitioner-facing summary of a paper.
func ArxivSummary(p Paper) string {
	return fmt.Sprintf(`You are an expert AI/ML researcher who explains research papers in an engaging way.

Paper Title: %s
Authors: %s
Abstract: %s

Write an engaging 2-3 sentence summary that:
1. Explains what the researchers did in simple terms
2. Highlights the key innovation or contribution
3. Is interesting and accessible to ML practitioners

Be conversational and avoid academic jargon. Focus on practical insights.
Do NOT use phrases like "This paper", "The authors" or "In this work".
Write in the present tense as if describing current developments.

Summary:`, orUnknown(p.Title), firstAuthors(p.Authors, 5), p.Abstract)
}

// ArxivVerdict asks for a one-sentence usefulness verdict.
func ArxivVerdict(p Paper, summary string) string {
	return fmt.Sprintf(`You are an expert ML engineer evaluating research papers for practical impact.

Paper Title: %s
Summary: %s

Give a ONE sentence verdict on how this paper is useful to ML practitioners. Consider
practical applications, techniques that can be adopted, solutions to common problems and
advancement of the field.

Format: "Useful for [specific use case or audience] because [concrete reason]"

Keep it concise and actionable. No marketing language.

Verdict:`, orUnknown(p.Title), summary)
}

// ArxivRelevancy asks for a 0-10 relevancy score in "Score:" / "Reason:" lines.
func ArxivRelevancy(p Paper, summary, verdict string) string {
	return fmt.Sprintf(`You evaluate research papers for relevancy to AI/ML practitioners and engineers.

Paper Title: %s
Category: %s
Summary: %s
Verdict: %s

Rate relevancy from 0 to 10:
- 10: breakthrough or practical technique everyone should know
- 7-9: novel approach with clear applications
- 5-6: interesting but niche or early-stage
- 3-4: too theoretical or narrow
- 0-2: not applicable to practitioners

Consider practical applicability, novelty, relevance to current trends (LLMs, RAG, agents)
and accessibility of the work.

Respond in this EXACT format:
Score: [number from 0-10]
Reason: [one sentence explanation]`, orUnknown(p.Title), orUnknown(p.Category), summary, verdict)
}
