package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/lumenrobotics/go-aria/internal/log"
	"github.com/lumenrobotics/go-aria/pkg/claude"
)

const researcherInstructions = `You are an expert researcher with access to Wikipedia and reasoning tools.
Your goal is to gather comprehensive, accurate information from multiple sources.
You excel at finding relevant information quickly and synthesizing it into clear summaries.

Always cite your sources and verify information accuracy.

When researching:
1. Use Wikipedia for established facts and background
2. Break down complex topics into key points
3. Provide context and explanations suitable for voice delivery
4. Note any uncertainties or conflicting information
5. Be concise but thorough - your response will be spoken aloud

Keep your language natural and conversational while being informative.`

const weatherInstructions = `You are a weather specialist providing accurate weather forecasts.
Use the weather tool to get current weather and forecasts.

Provide weather information in a natural, conversational way suitable for voice delivery.
Include temperature, conditions, and any relevant warnings or recommendations.

Keep responses concise and helpful - people want quick, actionable weather info.`

const analystInstructions = `You are a strategic analyst who excels at breaking down complex information,
identifying patterns, and providing actionable insights.
You consider multiple perspectives and provide balanced analysis.

When analyzing:
1. Identify key themes and patterns
2. Compare and contrast different aspects
3. Evaluate strengths and weaknesses objectively
4. Provide clear, actionable recommendations
5. Format responses for voice delivery (concise but complete)

Your analysis will be spoken aloud, so keep language natural and avoid jargon
unless necessary. When technical terms are needed, briefly explain them.`

const coordinatorInstructions = `You are a skilled coordinator who synthesizes information from specialist teams
to create coherent, user-friendly responses for a voice interface.

Your responsibilities:
1. Understand the user's query and determine which specialists to consult
2. Delegate to appropriate specialists using handoff tools when needed
3. Synthesize their responses into a complete, coherent answer
4. Ensure responses are accurate, complete, and appropriately detailed for voice delivery
5. Make the response conversational and natural

When to use specialists:
- research_lookup: For factual information, background on topics, historical context
- weather_lookup: For weather forecasts and conditions
- analysis_consult: For comparisons, evaluations, strategic insights, pros/cons

Important guidelines:
- Your response will be spoken by a voice AI, so be conversational
- Keep responses concise (30-60 seconds of speech typically)
- Use natural language and avoid overly formal phrasing
- Break complex information into digestible points
- Be empathetic and helpful in tone`

// Manager owns the coordinator and its specialist agents.
// Expensive to construct relative to a single tool call; the tool registry
// builds it lazily behind a single-flight guard.
type Manager struct {
	coordinator *Agent
	researcher  *Agent
	weather     *Agent
	analyst     *Agent
}

// NewManager wires the delegation graph: three leaf specialists plus a
// coordinator holding the only handoff tools.
func NewManager(completer claude.Completer) *Manager {
	researcher := NewAgent(completer, "ResearchSpecialist", "Senior Research Specialist",
		researcherInstructions, []Tool{ThinkTool(), WikipediaTool()})
	weather := NewAgent(completer, "WeatherSpecialist", "Weather Specialist",
		weatherInstructions, []Tool{OpenMeteoTool()})
	analyst := NewAgent(completer, "StrategicAnalyst", "Strategic Analyst",
		analystInstructions, []Tool{ThinkTool()})

	coordinator := NewAgent(completer, "ResponseCoordinator", "Response Coordinator",
		coordinatorInstructions, []Tool{
			ThinkTool(),
			Handoff(researcher, "research_lookup",
				"Consult the research specialist for factual information and comprehensive research"),
			Handoff(weather, "weather_lookup",
				"Consult the weather specialist for weather forecasts and conditions"),
			Handoff(analyst, "analysis_consult",
				"Consult the strategic analyst for detailed analysis and insights"),
		})

	log.Info("specialist backend initialized",
		"specialists", 3, "coordinator", coordinator.Name)

	return &Manager{
		coordinator: coordinator,
		researcher:  researcher,
		weather:     weather,
		analyst:     analyst,
	}
}

// Run processes a complex query through the coordinator and returns the
// synthesized answer. Optional extra context is appended to the task.
func (m *Manager) Run(ctx context.Context, query, extraContext string) (string, error) {
	start := time.Now()
	log.Info("specialist backend processing", "query", query)

	task := query
	if extraContext != "" {
		task = fmt.Sprintf("%s\n\nAdditional context: %s", query, extraContext)
	}

	answer, err := m.coordinator.Run(ctx, task)
	if err != nil {
		log.Error("specialist backend failed", "error", err, "elapsed", time.Since(start))
		return "", err
	}

	log.Info("specialist backend completed", "elapsed", time.Since(start))
	return answer, nil
}

// AnalysisTask runs a structured analysis of a topic.
// analysisType is one of "comprehensive", "comparative", or "pros-cons".
func (m *Manager) AnalysisTask(ctx context.Context, topic, analysisType string) (string, error) {
	if analysisType == "" {
		analysisType = "comprehensive"
	}
	query := fmt.Sprintf(`Perform a %s analysis of: %s

Please provide:
- Key findings
- Important trends or patterns
- Insights and implications
- Actionable recommendations if applicable

Format for voice delivery - conversational and clear.`, analysisType, topic)

	return m.Run(ctx, query, "")
}

// ComparisonTask runs a structured comparison of two items.
func (m *Manager) ComparisonTask(ctx context.Context, item1, item2, criteria string) (string, error) {
	criteriaText := ""
	if criteria != "" {
		criteriaText = fmt.Sprintf(" focusing on %s", criteria)
	}
	query := fmt.Sprintf(`Compare %s and %s%s.

Provide:
- Key similarities
- Important differences
- Strengths and weaknesses of each
- Recommendation or conclusion if appropriate

Be objective and balanced. Format for voice delivery.`, item1, item2, criteriaText)

	return m.Run(ctx, query, "")
}
