package claude

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/lumenrobotics/go-aria/internal/log"
)

// DefaultModel is the Claude model used when none is specified.
const DefaultModel = "claude-sonnet-4-20250514"

// DefaultMaxTokens bounds each completion response.
const DefaultMaxTokens = 1024

// Anthropic implements Completer against the Anthropic Messages API.
type Anthropic struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// NewAnthropic creates a Completer backed by the Anthropic API.
func NewAnthropic(apiKey string, opts ...AnthropicOption) (*Anthropic, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	a := &Anthropic{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     DefaultModel,
		maxTokens: DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// AnthropicOption customizes the Anthropic completer.
type AnthropicOption func(*Anthropic)

// WithModel overrides the Claude model.
func WithModel(model string) AnthropicOption {
	return func(a *Anthropic) { a.model = anthropic.Model(model) }
}

// WithMaxTokens overrides the per-response token cap.
func WithMaxTokens(n int64) AnthropicOption {
	return func(a *Anthropic) { a.maxTokens = n }
}

// Complete submits the conversation and tool set to the Messages API and
// normalizes the response into the provider-neutral form.
func (a *Anthropic) Complete(ctx context.Context, req Request) (*Response, error) {
	params := anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		Messages:  buildMessages(req.Turns),
		Tools:     buildTools(req.Tools),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("claude: completion failed: %w", err)
	}
	if len(resp.Content) == 0 {
		return nil, ErrEmptyResponse
	}

	out := &Response{StopReason: StopFinal}
	if string(resp.StopReason) == "tool_use" {
		out.StopReason = StopToolUse
	}

	for _, block := range resp.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			out.Text += b.Text
		case anthropic.ToolUseBlock:
			args := map[string]any{}
			if err := json.Unmarshal(b.Input, &args); err != nil {
				log.Warn("claude: malformed tool input", "tool", b.Name, "error", err)
			}
			out.Invocations = append(out.Invocations, Invocation{
				ID:        b.ID,
				Name:      b.Name,
				Arguments: args,
			})
		}
	}

	return out, nil
}

// buildMessages maps neutral turns onto Anthropic message params. Tool use
// becomes an assistant tool_use block, tool results become user tool_result
// blocks correlated by invocation id.
func buildMessages(turns []Turn) []anthropic.MessageParam {
	msgs := make([]anthropic.MessageParam, 0, len(turns))
	for _, t := range turns {
		switch {
		case t.ToolUse != nil:
			blocks := []anthropic.ContentBlockParamUnion{}
			if t.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(t.Text))
			}
			blocks = append(blocks, anthropic.NewToolUseBlock(t.ToolUse.ID, t.ToolUse.Arguments, t.ToolUse.Name))
			msgs = append(msgs, anthropic.NewAssistantMessage(blocks...))
		case t.ToolResult != nil:
			msgs = append(msgs, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(t.ToolResult.ID, t.ToolResult.Content, t.ToolResult.IsError),
			))
		case t.Role == RoleAssistant:
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(t.Text)))
		default:
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(t.Text)))
		}
	}
	return msgs
}

func buildTools(defs []ToolDefinition) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, d := range defs {
		props := map[string]any{}
		for name, p := range d.Schema.Properties {
			prop := map[string]any{
				"type":        p.Type,
				"description": p.Description,
			}
			if len(p.Enum) > 0 {
				prop["enum"] = p.Enum
			}
			props[name] = prop
		}
		tools = append(tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        d.Name,
				Description: anthropic.String(d.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: props,
					Required:   d.Schema.Required,
				},
			},
		})
	}
	return tools
}

var _ Completer = (*Anthropic)(nil)
