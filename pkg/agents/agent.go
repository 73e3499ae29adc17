// Package agents implements the specialist delegation backend: a coordinator
// agent that can hand sub-tasks to a fixed set of narrow specialist agents
// and synthesizes their outputs into one answer.
//
// The delegation graph is closed and non-recursive. Specialists are leaves
// with their own small toolsets; only the coordinator holds handoff tools,
// so fan-out is bounded by construction.
package agents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lumenrobotics/go-aria/internal/log"
	"github.com/lumenrobotics/go-aria/pkg/claude"
)

// ErrIterationLimit is returned when an agent's internal loop hits its cap
// without producing a final answer.
var ErrIterationLimit = errors.New("agents: iteration limit reached")

// DefaultMaxIterations bounds each agent's internal tool loop.
const DefaultMaxIterations = 8

// Tool is one capability available to an agent: a schema the model selects
// by name plus a typed handler resolved at construction.
type Tool struct {
	Def claude.ToolDefinition
	Run func(ctx context.Context, args map[string]any) (string, error)
}

// Agent is a single role-scoped entity running its own bounded tool loop.
type Agent struct {
	Name         string
	Role         string
	Instructions string

	completer claude.Completer
	tools     []Tool
	byName    map[string]Tool
	maxIter   int
}

// NewAgent creates an agent with the given role and toolset.
// The tool table is resolved once here; dispatch is never by reflection.
func NewAgent(completer claude.Completer, name, role, instructions string, tools []Tool) *Agent {
	byName := make(map[string]Tool, len(tools))
	for _, t := range tools {
		byName[t.Def.Name] = t
	}
	return &Agent{
		Name:         name,
		Role:         role,
		Instructions: instructions,
		completer:    completer,
		tools:        tools,
		byName:       byName,
		maxIter:      DefaultMaxIterations,
	}
}

func (a *Agent) systemPrompt() string {
	return fmt.Sprintf("You are %s, a %s.\n\n%s", a.Name, a.Role, a.Instructions)
}

func (a *Agent) definitions() []claude.ToolDefinition {
	defs := make([]claude.ToolDefinition, len(a.tools))
	for i, t := range a.tools {
		defs[i] = t.Def
	}
	return defs
}

// Run executes the agent's tool loop for one task and returns its final
// text answer. The loop acts on the first requested invocation per
// response and feeds the result back until the model stops requesting
// tools or the iteration cap is hit.
func (a *Agent) Run(ctx context.Context, task string) (string, error) {
	logger := log.With("agent", a.Name)
	start := time.Now()

	turns := []claude.Turn{claude.UserTurn(task)}
	req := claude.Request{
		System: a.systemPrompt(),
		Tools:  a.definitions(),
	}

	for i := 0; i < a.maxIter; i++ {
		req.Turns = turns
		resp, err := a.completer.Complete(ctx, req)
		if err != nil {
			return "", fmt.Errorf("agents: %s completion failed: %w", a.Name, err)
		}

		// A tool-use stop with no decoded invocations is treated as a
		// final answer rather than indexed.
		if resp.StopReason != claude.StopToolUse || len(resp.Invocations) == 0 {
			logger.Debug("agent finished", "iterations", i+1, "elapsed", time.Since(start))
			return resp.Text, nil
		}

		inv := resp.Invocations[0]
		logger.Debug("agent tool call", "tool", inv.Name, "iteration", i+1)

		result, isError := a.invoke(ctx, inv)
		turns = append(turns,
			claude.ToolUseTurn(resp.Text, inv),
			claude.ToolResultTurn(inv.ID, result, isError),
		)
	}

	logger.Warn("agent hit iteration cap", "max", a.maxIter)
	return "", fmt.Errorf("agents: %s: %w", a.Name, ErrIterationLimit)
}

func (a *Agent) invoke(ctx context.Context, inv claude.Invocation) (string, bool) {
	t, ok := a.byName[inv.Name]
	if !ok {
		return fmt.Sprintf("Unknown tool: %s", inv.Name), true
	}
	out, err := t.Run(ctx, inv.Arguments)
	if err != nil {
		log.Warn("agent tool failed", "agent", a.Name, "tool", inv.Name, "error", err)
		return fmt.Sprintf("Tool %s failed: %v", inv.Name, err), true
	}
	return out, false
}

// Handoff wraps a specialist agent as a callable tool for the coordinator.
// The target must be a leaf: handoff tools are never given to specialists,
// which keeps the delegation graph closed.
func Handoff(target *Agent, name, description string) Tool {
	return Tool{
		Def: claude.ToolDefinition{
			Name:        name,
			Description: description,
			Schema: claude.Schema{
				Properties: map[string]claude.Property{
					"task": {Type: "string", Description: "The sub-task to delegate to this specialist"},
				},
				Required: []string{"task"},
			},
		},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			task, _ := args["task"].(string)
			if task == "" {
				return "", fmt.Errorf("agents: handoff %s: empty task", name)
			}
			return target.Run(ctx, task)
		},
	}
}
