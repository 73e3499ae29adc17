package agents

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/lumenrobotics/go-aria/pkg/claude"
)

func echoTool(name string) Tool {
	return Tool{
		Def: claude.ToolDefinition{
			Name:        name,
			Description: "echoes its input",
			Schema: claude.Schema{
				Properties: map[string]claude.Property{
					"text": {Type: "string"},
				},
			},
		},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			text, _ := args["text"].(string)
			return "echo: " + text, nil
		},
	}
}

func TestAgentRunFinalText(t *testing.T) {
	mock := &claude.Mock{Script: []*claude.Response{claude.FinalText("the answer")}}
	a := NewAgent(mock, "Tester", "Test Agent", "Answer directly.", nil)

	got, err := a.Run(context.Background(), "question")
	if err != nil {
		t.Fatal(err)
	}
	if got != "the answer" {
		t.Fatalf("Run = %q, want %q", got, "the answer")
	}
}

func TestAgentToolLoop(t *testing.T) {
	mock := &claude.Mock{Script: []*claude.Response{
		claude.ToolRequest(claude.Invocation{ID: "toolu_1", Name: "echo", Arguments: map[string]any{"text": "hi"}}),
		claude.FinalText("done"),
	}}
	a := NewAgent(mock, "Tester", "Test Agent", "Use tools.", []Tool{echoTool("echo")})

	got, err := a.Run(context.Background(), "task")
	if err != nil {
		t.Fatal(err)
	}
	if got != "done" {
		t.Fatalf("Run = %q, want done", got)
	}

	calls := mock.Calls()
	if len(calls) != 2 {
		t.Fatalf("completer called %d times, want 2", len(calls))
	}
	// Second call carries the tool exchange: user task, tool use, tool result.
	turns := calls[1].Turns
	if len(turns) != 3 {
		t.Fatalf("second call has %d turns, want 3", len(turns))
	}
	if turns[1].ToolUse == nil || turns[1].ToolUse.ID != "toolu_1" {
		t.Fatalf("turns[1] missing tool use: %+v", turns[1])
	}
	tr := turns[2].ToolResult
	if tr == nil || tr.ID != "toolu_1" || tr.IsError {
		t.Fatalf("turns[2] bad tool result: %+v", tr)
	}
	if tr.Content != "echo: hi" {
		t.Fatalf("tool result content = %q, want %q", tr.Content, "echo: hi")
	}
}

func TestAgentToolUseStopWithoutInvocations(t *testing.T) {
	// A malformed response can report a tool-use stop with no decoded tool
	// blocks; the loop must treat it as a final answer, not index into it.
	mock := &claude.Mock{Script: []*claude.Response{
		{StopReason: claude.StopToolUse, Text: "partial thought"},
	}}
	a := NewAgent(mock, "Tester", "Test Agent", "Use tools.", []Tool{echoTool("echo")})

	got, err := a.Run(context.Background(), "task")
	if err != nil {
		t.Fatal(err)
	}
	if got != "partial thought" {
		t.Fatalf("Run = %q, want the response text", got)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("completer called %d times, want 1", mock.CallCount())
	}
}

func TestAgentUnknownToolRecovers(t *testing.T) {
	mock := &claude.Mock{Script: []*claude.Response{
		claude.ToolRequest(claude.Invocation{ID: "toolu_1", Name: "nonexistent", Arguments: map[string]any{}}),
		claude.FinalText("recovered"),
	}}
	a := NewAgent(mock, "Tester", "Test Agent", "Use tools.", nil)

	got, err := a.Run(context.Background(), "task")
	if err != nil {
		t.Fatal(err)
	}
	if got != "recovered" {
		t.Fatalf("Run = %q, want recovered", got)
	}

	turns := mock.Calls()[1].Turns
	tr := turns[2].ToolResult
	if tr == nil || !tr.IsError {
		t.Fatalf("unknown tool should produce is_error result, got %+v", tr)
	}
}

func TestAgentIterationCap(t *testing.T) {
	mock := &claude.Mock{Script: []*claude.Response{
		claude.ToolRequest(claude.Invocation{ID: "toolu_1", Name: "echo", Arguments: map[string]any{"text": "again"}}),
	}}
	a := NewAgent(mock, "Tester", "Test Agent", "Loop forever.", []Tool{echoTool("echo")})

	_, err := a.Run(context.Background(), "task")
	if !errors.Is(err, ErrIterationLimit) {
		t.Fatalf("err = %v, want ErrIterationLimit", err)
	}
	if mock.CallCount() != DefaultMaxIterations {
		t.Fatalf("completer called %d times, want %d", mock.CallCount(), DefaultMaxIterations)
	}
}

func TestManagerDelegation(t *testing.T) {
	var mu sync.Mutex
	coordinatorCalls := 0
	researcherCalled := false

	mock := &claude.Mock{}
	mock.CompleteFunc = func(ctx context.Context, req claude.Request) (*claude.Response, error) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case strings.Contains(req.System, "Response Coordinator"):
			coordinatorCalls++
			if coordinatorCalls == 1 {
				return claude.ToolRequest(claude.Invocation{
					ID:        "toolu_1",
					Name:      "research_lookup",
					Arguments: map[string]any{"task": "voice AI trends"},
				}), nil
			}
			return claude.FinalText("Here's what the research team found."), nil
		case strings.Contains(req.System, "Research Specialist"):
			researcherCalled = true
			return claude.FinalText("research summary"), nil
		default:
			t.Errorf("unexpected system prompt: %q", req.System)
			return claude.FinalText("?"), nil
		}
	}

	m := NewManager(mock)
	got, err := m.Run(context.Background(), "What are the latest trends in voice AI?", "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Here's what the research team found." {
		t.Fatalf("Run = %q", got)
	}
	if !researcherCalled {
		t.Fatal("research specialist was never consulted")
	}

	// Coordinator call #2 must carry the specialist's answer back as a
	// tool result correlated by id.
	if coordinatorCalls != 2 {
		t.Fatalf("coordinator called %d times, want 2", coordinatorCalls)
	}
}

func TestManagerRunAppendsContext(t *testing.T) {
	mock := &claude.Mock{Script: []*claude.Response{claude.FinalText("ok")}}
	m := NewManager(mock)

	if _, err := m.Run(context.Background(), "query", "prior turn context"); err != nil {
		t.Fatal(err)
	}
	turns := mock.Calls()[0].Turns
	if len(turns) != 1 || !strings.Contains(turns[0].Text, "Additional context: prior turn context") {
		t.Fatalf("context not appended to task: %+v", turns)
	}
}

func TestWeatherCodeDescription(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{0, "clear sky"},
		{2, "partly cloudy"},
		{61, "rain"},
		{95, "thunderstorms"},
	}
	for _, tt := range tests {
		if got := weatherCodeDescription(tt.code); got != tt.want {
			t.Errorf("weatherCodeDescription(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
