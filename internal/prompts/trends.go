package prompts

import "fmt"

// TrendSystemPrompt is the persona used for trend discovery.
const TrendSystemPrompt = `You are an AI trend analyst specializing in identifying emerging technologies, patterns and practices in AI/ML. You have deep knowledge of what makes content engaging on professional platforms.`

// TrendDiscovery asks the model to pick the trends worth covering from a JSON
// summary of recently collected items.
func TrendDiscovery(currentDate, recentContent string) string {
	return fmt.Sprintf(`Analyze the current AI/ML landscape to identify emerging trends worth covering.

FOCUS AREAS:
1. **Agentic AI Frameworks**
   - New agent architectures
   - Multi-agent systems
   - Agent reasoning capabilities
   - Tool-using agents

2. **AI Design Patterns**
   - Novel architectural patterns
   - Prompt engineering techniques
   - RAG improvements
   - Fine-tuning strategies

3. **Production AI**
   - MLOps innovations
   - Deployment patterns
   - Monitoring and observability
   - Cost optimization

4. **Research Breakthroughs**
   - New model architectures
   - Training techniques
   - Evaluation methods
   - Benchmark improvements

5. **Industry Applications**
   - Real-world implementations
   - Case studies
   - Adoption patterns

TREND EVALUATION CRITERIA:
- Novelty: Is this genuinely new or just repackaged?
- Impact: Will this change how people work?
- Timeliness: Is this trending now?
- Audience Relevance: Will our followers care?
- Content Potential: Can we create engaging content?

OUTPUT FORMAT (JSON only):
{
  "trends": [
    {
      "topic": "clear topic name",
      "category": "agentic-ai/patterns/production/research/application",
      "trend_score": 0-100,
      "novelty": 0-100,
      "impact": 0-100,
      "timeliness": 0-100,
      "engagement_potential": 0-100,
      "description": "2-3 sentence explanation",
      "why_now": "why this matters right now",
      "content_angle": "how to present this for maximum engagement",
      "sources": ["list of relevant sources"]
    }
  ],
  "recommendation": "which trend to cover first and why"
}

Current date: %s
Recent papers: %s

Analyze and recommend top 3-5 trends worth creating content about:`, currentDate, recentContent)
}
