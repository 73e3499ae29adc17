// Package claude provides the completion-service boundary for the
// orchestration loop.
//
// The loop owns a provider-neutral conversation history and tool schema set;
// this package defines those types plus the Completer interface the loop
// calls each iteration. The Anthropic implementation lives in anthropic.go,
// and a scripted Mock for tests in mock.go.
package claude

import (
	"context"
	"errors"
)

// Sentinel errors for completion failures.
var (
	// ErrNoAPIKey is returned when the API key is missing.
	ErrNoAPIKey = errors.New("claude: API key required")

	// ErrEmptyResponse is returned when the service returns no content blocks.
	ErrEmptyResponse = errors.New("claude: empty response")
)

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// StopReason indicates how the model finished a completion.
type StopReason string

const (
	// StopFinal means the model produced a final text answer.
	StopFinal StopReason = "final"
	// StopToolUse means the model requested one or more tool invocations.
	StopToolUse StopReason = "tool_use"
)

// Property describes one named argument in a tool schema.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// Schema describes the arguments a tool accepts.
type Schema struct {
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// ToolDefinition is one named tool offered to the model.
// Immutable once registered; the full set is sent on every completion call.
type ToolDefinition struct {
	Name        string
	Description string
	Schema      Schema
}

// Invocation is a model-requested tool call. ID must be echoed back on the
// matching result turn so multi-turn correlation is unambiguous.
type Invocation struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ToolOutcome is the result of executing an Invocation, recorded back into
// the conversation for the model's next iteration.
type ToolOutcome struct {
	ID      string
	Content string
	IsError bool
}

// Turn is one entry in the conversation history. Exactly one of Text,
// ToolUse, or ToolResult carries the payload (Text may accompany ToolUse
// when the model thinks out loud before calling a tool).
type Turn struct {
	Role       Role
	Text       string
	ToolUse    *Invocation
	ToolResult *ToolOutcome
}

// UserTurn builds a plain user text turn.
func UserTurn(text string) Turn {
	return Turn{Role: RoleUser, Text: text}
}

// AssistantTurn builds a plain assistant text turn.
func AssistantTurn(text string) Turn {
	return Turn{Role: RoleAssistant, Text: text}
}

// ToolUseTurn builds the assistant turn recording a tool request.
func ToolUseTurn(text string, inv Invocation) Turn {
	return Turn{Role: RoleAssistant, Text: text, ToolUse: &inv}
}

// ToolResultTurn builds the user-side turn carrying a tool result.
func ToolResultTurn(id, content string, isError bool) Turn {
	return Turn{Role: RoleUser, ToolResult: &ToolOutcome{ID: id, Content: content, IsError: isError}}
}

// Request is one completion call: the fixed system instruction, the full
// tool set, and the conversation so far.
type Request struct {
	System string
	Tools  []ToolDefinition
	Turns  []Turn
}

// Response is the model's answer to a Request. When StopReason is
// StopToolUse, Invocations holds the requested calls in the order the model
// emitted them; Text holds any text the model produced alongside.
type Response struct {
	StopReason  StopReason
	Text        string
	Invocations []Invocation
}

// Completer is the completion-service interface the orchestration loop
// depends on. Implementations must support exactly the two stop reasons.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}
