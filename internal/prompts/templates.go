package prompts

import (
	"fmt"
	"strconv"
	"strings"
)

// SystemPrompt is the persona used for every non-ELI5 call.
const SystemPrompt = `You are an experienced AI researcher and engineer.
You analyze AI, ML, LLM and generative AI material accurately and with restraint.

Rules:
- Be factual and precise.
- Do not exaggerate impact or use marketing language.
- Avoid speculation unless the source states it explicitly.
- Prefer technical clarity over simplification.
- Say so explicitly when information is missing or uncertain.
- Write for engineers, not beginners.`

// ELI5SystemPrompt is the persona used for github_eli5 stages.
const ELI5SystemPrompt = `You are a friendly technical educator who explains software projects in plain terms.
Help readers understand what a repository does, how it works and why it matters.

Rules:
- Use simple everyday language and real-world analogies.
- Split complex ideas into small parts.
- Prefer practical use cases over internals.
- Explain any jargon you cannot avoid.
- Stay accurate while staying accessible.`

// Input carries every value a template may reference.
type Input struct {
	Content         string   // Prepared item text for raw stages
	Title           string   // Item title
	URL             string   // Item URL
	Summary         string   // Item summary or repository description
	Topics          []string // Repository topics
	Language        string   // Primary programming language
	Stars           int      // Repository stars
	Forks           int      // Repository forks
	Contributors    int      // Repository contributors, zero when unknown
	License         string   // Repository license, empty when unknown
	AnalyzedContent string   // Formatted core stage outputs for synthesis stages
	GeneratedOutput string   // Text under review
}

// Build renders the prompt for stage from in.
func Build(stage Stage, in Input) (string, error) {
	switch stage {
	case FactExtraction:
		return factExtraction(in), nil
	case EngineerSummary:
		return engineerSummary(in), nil
	case ImpactAnalysis:
		return impactAnalysis(in), nil
	case ApplicationMapping:
		return applicationMapping(in), nil
	case BlogSynthesis:
		return blogSynthesis(in), nil
	case LinkedInFormatting:
		return linkedInPost(in), nil
	case CredibilityCheck:
		return credibilityCheck(in), nil
	case MediumSynthesis:
		return mediumSynthesis(in), nil
	case Methodology:
		return methodology(in), nil
	case Results:
		return results(in), nil
	case DiagramArchitecture:
		return diagramArchitecture(in), nil
	case DiagramFlow:
		return diagramFlow(in), nil
	case DiagramComparison:
		return diagramComparison(in), nil
	case GitHubELI5What:
		return eli5What(in), nil
	case GitHubELI5How:
		return eli5How(in), nil
	case GitHubELI5Why:
		return eli5Why(in), nil
	case GitHubELI5GettingStarted:
		return eli5GettingStarted(in), nil
	case GitHubELI5Blog:
		return eli5Blog(in), nil
	case LinkedInEngaging:
		return linkedInEngaging(in), nil
	case LinkedInValidation:
		return linkedInValidation(in), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStage, string(stage))
}

// SystemFor returns the system prompt appropriate for stage.
func SystemFor(stage Stage) string {
	if stage.IsELI5() {
		return ELI5SystemPrompt
	}
	return SystemPrompt
}

func factExtraction(in Input) string {
	return `Analyze the following source.

Tasks:
1. Identify the core contribution or announcement.
2. List concrete technical details (methods, models, datasets, scale, metrics).
3. State what the authors or organization explicitly claim.
4. State what is not claimed or remains unclear.

Output format:
- Core contribution:
- Technical details:
- Explicit claims:
- Open questions / limitations:

Source:
` + in.Content
}

func engineerSummary(in Input) string {
	return `Summarize the content for a practicing AI/ML engineer.

Constraints:
- At most 150 words.
- No promotional tone and no opinions.
- Explain what is new compared to prior approaches.
- Use correct technical terminology.

Cover the problem addressed, how it is addressed and the evidence provided.

Content:
` + in.Content
}

func impactAnalysis(in Input) string {
	return `Explain why this work matters in practice.

Rules:
- Separate immediate impact from long-term implications.
- Distinguish evidence-based impact from potential future use.
- Name at least one realistic constraint or trade-off.

Output format:
- Immediate implications:
- Long-term implications:
- Practical constraints:

Content:
` + in.Content
}

func applicationMapping(in Input) string {
	return `Map this work to real-world usage.

Instructions:
- Give one or two realistic application scenarios.
- Do not invent capabilities the source does not support.
- State the assumptions a deployment would require.

Output format:
- Application scenario:
- Why this work helps:
- Assumptions / prerequisites:

Content:
` + in.Content
}

func synthesisFooter(in Input) string {
	return fmt.Sprintf("Title: %s\nURL: %s\n\nAnalysis:\n%s", in.Title, in.URL, in.AnalyzedContent)
}

func blogSynthesis(in Input) string {
	return `Write a technical blog article based on the analysis.

Audience: software engineers and AI practitioners.
Tone: neutral, analytical and precise. No emojis, no exaggerated claims.

Structure:
1. Context and background
2. What is new in this work
3. Technical explanation (high level, accurate)
4. Practical relevance
5. Limitations and open questions
6. Conclusion

Length: 800-1000 words. Reflect the sources accurately.

` + synthesisFooter(in)
}

func linkedInPost(in Input) string {
	return `Write a LinkedIn post summarizing this work.

Rules:
- At most 120 words.
- Open with a factual hook, not a sensational claim.
- Use bullet points for clarity.
- No emojis, buzzwords or markdown emphasis.
- Do not include hashtags; they are added separately.
- Do not include citation markers such as [1] or [2].
- Close with one thoughtful takeaway.

Structure: an opening statement, three key points, one practical takeaway.

` + synthesisFooter(in)
}

func credibilityCheck(in Input) string {
	return `Review the generated content for credibility.

Check for unsupported claims, exaggerated language, missing limitations and ambiguous statements.
If you find issues, list each one and suggest a precise correction.

Content to review:
` + in.GeneratedOutput
}

func mediumSynthesis(in Input) string {
	return `Write a comprehensive technical article for Medium analyzing this research in depth.

Audience: AI/ML engineers and researchers who want real understanding, not a summary.
Tone: analytical and educational; explain technical terms on first use.

Structure:
1. Introduction: why this work matters now
2. Background and prior work
3. Core innovation
4. Technical deep dive
5. Experimental setup and results
6. Limitations and trade-offs
7. Future directions
8. Practical takeaways

Length: 1500-2000 words. Acknowledge uncertainty and limitations.

` + synthesisFooter(in)
}

func methodology(in Input) string {
	return `Extract and explain the methodology of this research in detail.

Cover the research approach, data sources and processing, model or system architecture,
training procedure, evaluation metrics and experimental setup. Be specific about technical
choices, novel techniques and reproducibility details.

Length: 400-600 words.

Content:
` + in.Content
}

func results(in Input) string {
	return `Analyze the results and findings of this research in detail.

Cover the main results with numbers, ablations, comparisons with baselines, statistical
significance, where the approach works well or poorly and any unexpected findings.
Explain what the metrics mean in practice.

Length: 400-600 words.

Content:
` + in.Content
}

const mermaidOnly = "Output ONLY the Mermaid code with no explanation and no code fences."

func diagramArchitecture(in Input) string {
	return `Create a Mermaid diagram of the system architecture or model structure.

Show the main components, their relationships and the data flow. Keep labels descriptive
and the diagram readable. Use graph or flowchart syntax.
` + mermaidOnly + `

Example:
graph TD
    A[Input Data] --> B[Preprocessing]
    B --> C[Model]
    C --> D[Output]

Content to visualize:
` + in.Content
}

func diagramFlow(in Input) string {
	return `Create a Mermaid flowchart of the key process or algorithm.

Show the main steps in order with decision points as diamonds. Focus on the core process.
` + mermaidOnly + `

Example:
flowchart TB
    Start([Start]) --> Input[Receive Input]
    Input --> Decide{Type?}
    Decide -->|A| HandleA[Handle A]
    Decide -->|B| HandleB[Handle B]
    HandleA --> End([End])
    HandleB --> End

Content to visualize:
` + in.Content
}

func diagramComparison(in Input) string {
	return `Create a Mermaid diagram comparing this approach with baselines or prior methods.

Make the differences and trade-offs between approaches clear, using subgraphs per approach.
` + mermaidOnly + `

Example:
graph LR
    subgraph "Prior Approach"
        A[Method A] --> A1[Limitation]
    end
    subgraph "New Approach"
        B[Method B] --> B1[Advantage]
    end

Content to visualize:
` + in.Content
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}

func countOrUnknown(n int) string {
	if n <= 0 {
		return "unknown"
	}
	return strconv.Itoa(n)
}

func topicList(in Input) string {
	return orUnknown(strings.Join(in.Topics, ", "))
}

func eli5What(in Input) string {
	return fmt.Sprintf(`Explain what this GitHub project does in terms anyone can understand.

Start with a relatable analogy, describe the core purpose in two or three sentences and
use everyday examples. Explain any jargon immediately.

Repository: %s
Description: %s
Topics: %s
Language: %s

Write two or three paragraphs.`, in.Title, orUnknown(in.Summary), topicList(in), orUnknown(in.Language))
}

func eli5How(in Input) string {
	return fmt.Sprintf(`Explain how this project works using simple language and analogies.

Use a real-world analogy, walk through the main components and the flow from input to
output, and keep technical terms to a minimum.

Repository: %s
Description: %s
Language: %s
Key Technologies: %s

Write three or four paragraphs.`, in.Title, orUnknown(in.Summary), orUnknown(in.Language), topicList(in))
}

func eli5Why(in Input) string {
	return fmt.Sprintf(`Explain why this project matters and what problem it solves, in everyday terms.

Say who benefits, what they can now do and give concrete examples.

Repository: %s
Description: %s
Stats: %d stars, %d forks, %s contributors

Write two or three paragraphs.`, in.Title, orUnknown(in.Summary), in.Stars, in.Forks, countOrUnknown(in.Contributors))
}

func eli5GettingStarted(in Input) string {
	return fmt.Sprintf(`Explain how a beginner would get started with this project.

Include prerequisites in plain terms, a very basic step-by-step setup and what you can do
once it runs.

Repository: %s
URL: %s
Language: %s

Write two or three paragraphs.`, in.Title, in.URL, orUnknown(in.Language))
}

func eli5Blog(in Input) string {
	return fmt.Sprintf(`Write an engaging, accessible blog article about this GitHub repository.

Audience: developers exploring new tools and curious non-technical readers.
Tone: friendly, educational, honest. Use analogies and examples.

Structure:
1. Introduction with a relatable problem
2. What is it?
3. How does it work?
4. Why should you care?
5. Notable features
6. Getting started
7. Community and adoption
8. Conclusion

Repository:
- Title: %s
- URL: %s
- Stars: %d | Forks: %d | Contributors: %s
- Primary Language: %s
- Topics: %s
- License: %s

Description: %s

Additional context:
%s

Length: 800-1000 words.`, in.Title, in.URL, in.Stars, in.Forks, countOrUnknown(in.Contributors),
		orUnknown(in.Language), topicList(in), orUnknown(in.License), orUnknown(in.Summary), in.AnalyzedContent)
}

func linkedInEngaging(in Input) string {
	return `Write an engaging LinkedIn post about this research or technology.

Audience: AI/ML engineers, data scientists and technical leaders.

Framework:
1. Hook: a sharp question, a surprising number or a common problem.
2. Value: two or three short bullets with concrete details and metrics.
3. Takeaway: one memorable, practical lesson.

Do:
- Use short paragraphs and active voice.
- Use specific numbers where the analysis provides them.

Do not:
- Include hashtags, citation markers or markdown.
- Hype or exaggerate claims.
- Use filler words such as "exciting".

Length: 100-150 words. Tone: professional yet conversational.

` + synthesisFooter(in)
}

func linkedInValidation(in Input) string {
	return `Validate this LinkedIn post for safety, quality and professionalism.

POST TO VALIDATE:
` + in.GeneratedOutput + `

Flag:
- Safety: profanity, offensive or discriminatory content, misleading claims, spam.
- Professional: overly casual tone, clickbait, unsubstantiated claims.
- Compliance: more than 300 words, suspicious links, hashtags inside the text.
- Quality: grammar problems, unclear message, missing context.
- Reputation: promises that cannot be kept, dangerous oversimplification.

Respond with a single JSON object and nothing else:
{
  "is_valid": true,
  "validation_score": 0,
  "issues": [
    {"category": "safety|professional|compliance|quality|reputation",
     "severity": "critical|high|medium|low",
     "issue": "description",
     "suggestion": "how to fix it"}
  ],
  "approved": true,
  "summary": "brief explanation"
}

Critical issues mean rejection. A score below 70 is not approved.`
}
