// Package router classifies user queries and suggests a handling route.
//
// The classifier is a pure heuristic: pattern tables plus a small
// complexity score. It is advisory only — the orchestration loop and the
// language model remain the authority on which tool actually runs. The
// result is used for logging, pre-flight acknowledgments, and a possible
// future hard-routing mode.
package router

import (
	"fmt"
	"regexp"
	"strings"
)

// Complexity labels how much reasoning a query likely needs.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// Decision is the suggested handling route for a query.
type Decision string

const (
	// DecisionQuick means a deterministic tool or general knowledge suffices.
	DecisionQuick Decision = "quick"
	// DecisionDelegate means the query should go to the specialist backend.
	DecisionDelegate Decision = "delegate"
	// DecisionClarify means the query needs more information from the user.
	DecisionClarify Decision = "clarify"
)

// GeneralResponse is the suggested tool when no quick tool matches but the
// query is simple enough to answer from general knowledge.
const GeneralResponse = "general_response"

// Result is the outcome of classifying a single query.
type Result struct {
	Decision      Decision
	Complexity    Complexity
	Confidence    float64
	SuggestedTool string
	Reasoning     string
}

// quickGroup is one deterministic tool and its trigger patterns.
// Groups are checked in table order; the first match wins.
type quickGroup struct {
	tool     string
	patterns []*regexp.Regexp
}

var quickGroups = []quickGroup{
	{tool: "weather", patterns: compile(
		`weather in`,
		`temperature in`,
		`how.*hot|cold`,
		`forecast for`,
		`rain.*today`,
	)},
	{tool: "time", patterns: compile(
		`what time`,
		`current time`,
		`time in`,
		`what.*clock say`,
	)},
	{tool: "calculator", patterns: compile(
		`\d+\s*[\+\-\*\/]\s*\d+`,
		`calculate`,
		`what is \d+`,
		`how much is \d+`,
	)},
}

// indicatorGroup is one complexity category. Each category contributes at
// most one point no matter how many of its patterns match.
type indicatorGroup struct {
	name     string
	patterns []*regexp.Regexp
}

var indicatorGroups = []indicatorGroup{
	{name: "multi_step", patterns: compile(
		`analyze.*and.*compare`,
		`research.*and.*summarize`,
		`find.*then.*tell`,
		`first.*then.*finally`,
	)},
	{name: "requires_research", patterns: compile(
		`latest`,
		`recent developments`,
		`current trends`,
		`what are people saying`,
		`industry`,
	)},
	{name: "requires_analysis", patterns: compile(
		`why`,
		`analyze`,
		`compare`,
		`evaluate`,
		`pros and cons`,
		`differences between`,
		`which is better`,
	)},
	{name: "requires_expertise", patterns: compile(
		`explain.*in detail`,
		`comprehensive`,
		`deep dive`,
		`technical`,
		`professional advice`,
	)},
}

var multiPartConjunction = regexp.MustCompile(`\band\b.*\band\b`)

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// Classify analyzes a query and returns a routing suggestion.
// Pure function of its input: no I/O, deterministic for identical text.
// Malformed or empty input never panics; it falls through to the
// low-complexity branch.
func Classify(query string) Result {
	q := strings.ToLower(strings.TrimSpace(query))

	if tool := matchQuickTool(q); tool != "" {
		return Result{
			Decision:      DecisionQuick,
			Complexity:    ComplexitySimple,
			Confidence:    0.9,
			SuggestedTool: tool,
			Reasoning:     fmt.Sprintf("Simple %s query detected", tool),
		}
	}

	score := complexityScore(q)
	switch {
	case score >= 3:
		return Result{
			Decision:   DecisionDelegate,
			Complexity: ComplexityComplex,
			Confidence: 0.85,
			Reasoning:  fmt.Sprintf("Complex query requiring specialist agents (score: %d)", score),
		}
	case score == 2:
		return Result{
			Decision:   DecisionDelegate,
			Complexity: ComplexityModerate,
			Confidence: 0.7,
			Reasoning:  fmt.Sprintf("Moderate complexity, likely needs research/analysis (score: %d)", score),
		}
	default:
		return Result{
			Decision:      DecisionQuick,
			Complexity:    ComplexitySimple,
			Confidence:    0.6,
			SuggestedTool: GeneralResponse,
			Reasoning:     "Simple query, answerable from general knowledge",
		}
	}
}

func matchQuickTool(q string) string {
	for _, g := range quickGroups {
		for _, p := range g.patterns {
			if p.MatchString(q) {
				return g.tool
			}
		}
	}
	return ""
}

func complexityScore(q string) int {
	score := 0
	for _, g := range indicatorGroups {
		for _, p := range g.patterns {
			if p.MatchString(q) {
				score++
				break
			}
		}
	}

	if len(strings.Fields(q)) > 20 {
		score++
	}
	if strings.Count(q, "?") > 1 {
		score++
	}
	if multiPartConjunction.MatchString(q) {
		score++
	}
	return score
}
