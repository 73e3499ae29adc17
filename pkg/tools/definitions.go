package tools

import "github.com/lumenrobotics/go-aria/pkg/claude"

// Tool definitions supplied to the completion service on every call.
// Names are the stable dispatch keys; descriptions steer model selection.
var (
	weatherDef = claude.ToolDefinition{
		Name:        "get_weather",
		Description: "Get current weather information for any location. Use this when user asks about weather, temperature, or forecast.",
		Schema: claude.Schema{
			Properties: map[string]claude.Property{
				"location": {Type: "string", Description: "City or location name (e.g., 'New York', 'London', 'Tokyo')"},
				"units":    {Type: "string", Enum: []string{"fahrenheit", "celsius"}, Description: "Temperature units (default: fahrenheit)"},
			},
			Required: []string{"location"},
		},
	}

	timeDef = claude.ToolDefinition{
		Name:        "get_time",
		Description: "Get current time in any timezone. Use when user asks about time or clock.",
		Schema: claude.Schema{
			Properties: map[string]claude.Property{
				"timezone": {Type: "string", Description: "Timezone name (e.g., 'America/New_York', 'Europe/London', 'Asia/Tokyo'). Default: America/New_York"},
			},
		},
	}

	calculateDef = claude.ToolDefinition{
		Name:        "calculate",
		Description: "Perform mathematical calculations. Supports basic arithmetic (+, -, *, /).",
		Schema: claude.Schema{
			Properties: map[string]claude.Property{
				"expression": {Type: "string", Description: "Mathematical expression to evaluate (e.g., '15 * 23', '100 + 50')"},
			},
			Required: []string{"expression"},
		},
	}

	consultDef = claude.ToolDefinition{
		Name:        "consult_research_team",
		Description: "Consult a specialized AI research team for complex queries requiring in-depth research, analysis, or multi-step reasoning. Use for questions about trends, industry analysis, detailed explanations, or comparative studies.",
		Schema: claude.Schema{
			Properties: map[string]claude.Property{
				"query":   {Type: "string", Description: "The complex query or question to research"},
				"context": {Type: "string", Description: "Additional context or constraints for the research (optional)"},
			},
			Required: []string{"query"},
		},
	}

	analyzeDef = claude.ToolDefinition{
		Name:        "analyze_topic",
		Description: "Perform specialized analysis on a specific topic using the specialist agents. Use for deep dives, technical explanations, or comprehensive reviews.",
		Schema: claude.Schema{
			Properties: map[string]claude.Property{
				"topic":         {Type: "string", Description: "Topic to analyze"},
				"analysis_type": {Type: "string", Enum: []string{"comprehensive", "comparative", "pros-cons"}, Description: "Type of analysis to perform (default: comprehensive)"},
			},
			Required: []string{"topic"},
		},
	}

	compareDef = claude.ToolDefinition{
		Name:        "compare_items",
		Description: "Compare two items, technologies, approaches, or concepts using the specialist analysis agents. Use when user asks to compare or evaluate differences.",
		Schema: claude.Schema{
			Properties: map[string]claude.Property{
				"item1":    {Type: "string", Description: "First item to compare"},
				"item2":    {Type: "string", Description: "Second item to compare"},
				"criteria": {Type: "string", Description: "Specific criteria for comparison (optional)"},
			},
			Required: []string{"item1", "item2"},
		},
	}

	confirmDef = claude.ToolDefinition{
		Name:        "confirm_action",
		Description: "Request user confirmation before performing an action. Use when an action requires explicit user approval.",
		Schema: claude.Schema{
			Properties: map[string]claude.Property{
				"action":  {Type: "string", Description: "Action that requires confirmation"},
				"details": {Type: "string", Description: "Additional details about the action (optional)"},
			},
			Required: []string{"action"},
		},
	}
)
