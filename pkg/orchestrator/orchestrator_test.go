package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/lumenrobotics/go-aria/pkg/claude"
	qrouter "github.com/lumenrobotics/go-aria/pkg/router"
	"github.com/lumenrobotics/go-aria/pkg/tools"
)

type deliveryEvent struct {
	kind       string // "ack" or "deliver"
	text       string
	specialist bool
}

// fakeDeliverer records delivery calls in order.
type fakeDeliverer struct {
	mu     sync.Mutex
	events []deliveryEvent
}

func (f *fakeDeliverer) Acknowledge(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, deliveryEvent{kind: "ack", text: text})
	return nil
}

func (f *fakeDeliverer) Deliver(ctx context.Context, text string, usedSpecialist bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, deliveryEvent{kind: "deliver", text: text, specialist: usedSpecialist})
	return nil
}

func (f *fakeDeliverer) all() []deliveryEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]deliveryEvent(nil), f.events...)
}

func (f *fakeDeliverer) delivered() []deliveryEvent {
	var out []deliveryEvent
	for _, e := range f.all() {
		if e.kind == "deliver" {
			out = append(out, e)
		}
	}
	return out
}

// stubBackend is a canned specialist backend.
type stubBackend struct {
	comparisonErr error
}

func (s *stubBackend) Run(ctx context.Context, query, extraContext string) (string, error) {
	return "Research findings on " + query, nil
}

func (s *stubBackend) AnalysisTask(ctx context.Context, topic, analysisType string) (string, error) {
	return fmt.Sprintf("A %s analysis of %s", analysisType, topic), nil
}

func (s *stubBackend) ComparisonTask(ctx context.Context, item1, item2, criteria string) (string, error) {
	if s.comparisonErr != nil {
		return "", s.comparisonErr
	}
	return fmt.Sprintf("Comparison of %s and %s", item1, item2), nil
}

func newTestRegistry(backend tools.Backend) *tools.Registry {
	return tools.NewRegistry(func() (tools.Backend, error) {
		return backend, nil
	})
}

func TestQuickToolTurnDeliversDirect(t *testing.T) {
	mock := &claude.Mock{Script: []*claude.Response{
		claude.ToolRequest(claude.Invocation{
			ID:        "tu_1",
			Name:      "calculate",
			Arguments: map[string]any{"expression": "6 * 7"},
		}),
		claude.FinalText("The answer is 42."),
	}}
	deliverer := &fakeDeliverer{}
	orch := New(mock, newTestRegistry(&stubBackend{}), deliverer)

	if err := orch.HandleQuery(context.Background(), "What is 6 times 7?"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events := deliverer.all()
	if len(events) != 1 {
		t.Fatalf("expected 1 delivery event, got %d: %v", len(events), events)
	}
	if events[0].kind != "deliver" || events[0].specialist {
		t.Errorf("expected direct delivery, got %+v", events[0])
	}
	if events[0].text != "The answer is 42." {
		t.Errorf("unexpected delivered text: %s", events[0].text)
	}

	if mock.CallCount() != 2 {
		t.Errorf("expected 2 completion calls, got %d", mock.CallCount())
	}
	if got := orch.Metrics().ToolCalls()["calculate"]; got != 1 {
		t.Errorf("expected 1 calculate call, got %d", got)
	}
	if orch.Metrics().TotalQueries() != 1 {
		t.Errorf("expected 1 query, got %d", orch.Metrics().TotalQueries())
	}

	turns := orch.Metrics().Turns()
	if len(turns) != 1 || turns[0].Delegated {
		t.Errorf("expected one non-delegated turn, got %+v", turns)
	}
}

func TestSpecialistTurnAcknowledgesThenDeliversIsolated(t *testing.T) {
	mock := &claude.Mock{Script: []*claude.Response{
		claude.ToolRequest(claude.Invocation{
			ID:   "tu_1",
			Name: "compare_items",
			Arguments: map[string]any{
				"item1": "microservices",
				"item2": "monoliths",
			},
		}),
		claude.FinalText("For a 10-person startup, a monolith is usually the better start."),
	}}
	deliverer := &fakeDeliverer{}
	orch := New(mock, newTestRegistry(&stubBackend{}), deliverer)

	query := "Compare microservices and monoliths for a 10-person startup"
	if err := orch.HandleQuery(context.Background(), query); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events := deliverer.all()
	if len(events) != 2 {
		t.Fatalf("expected ack + delivery, got %v", events)
	}
	if events[0].kind != "ack" || events[0].text != ackMessage {
		t.Errorf("expected interim acknowledgment first, got %+v", events[0])
	}
	if events[1].kind != "deliver" || !events[1].specialist {
		t.Errorf("expected isolated delivery, got %+v", events[1])
	}

	turns := orch.Metrics().Turns()
	if len(turns) != 1 || !turns[0].Delegated {
		t.Errorf("expected one delegated turn, got %+v", turns)
	}
	if got := orch.Metrics().ToolCalls()["compare_items"]; got != 1 {
		t.Errorf("expected 1 compare_items call, got %d", got)
	}
}

func TestIterationCapBoundsLoop(t *testing.T) {
	// The script never produces a final answer; the last entry repeats.
	mock := &claude.Mock{Script: []*claude.Response{
		claude.ToolRequest(claude.Invocation{
			ID:        "tu_loop",
			Name:      "get_time",
			Arguments: map[string]any{"timezone": "UTC"},
		}),
	}}
	deliverer := &fakeDeliverer{}
	orch := New(mock, newTestRegistry(&stubBackend{}), deliverer)

	if err := orch.HandleQuery(context.Background(), "What time is it?"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if mock.CallCount() != MaxIterations {
		t.Errorf("expected exactly %d completion calls, got %d", MaxIterations, mock.CallCount())
	}

	delivered := deliverer.delivered()
	if len(delivered) != 1 {
		t.Fatalf("expected 1 delivery, got %v", delivered)
	}
	if delivered[0].text != capMessage {
		t.Errorf("unexpected cap text: %s", delivered[0].text)
	}
	if delivered[0].specialist {
		t.Error("no specialist tool ran, delivery should be direct")
	}
	if got := orch.Metrics().ToolCalls()["get_time"]; got != MaxIterations {
		t.Errorf("expected %d get_time calls, got %d", MaxIterations, got)
	}
}

func TestCompletionFailureDeliversApology(t *testing.T) {
	mock := &claude.Mock{Err: errors.New("network down")}
	deliverer := &fakeDeliverer{}
	orch := New(mock, newTestRegistry(&stubBackend{}), deliverer)

	if err := orch.HandleQuery(context.Background(), "Hello?"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	delivered := deliverer.delivered()
	if len(delivered) != 1 {
		t.Fatalf("expected 1 delivery, got %v", delivered)
	}
	if delivered[0].text != apologyMessage || delivered[0].specialist {
		t.Errorf("expected direct apology, got %+v", delivered[0])
	}

	if orch.Metrics().TotalQueries() != 1 {
		t.Errorf("failed turn should still count the query")
	}
	if len(orch.Metrics().Turns()) != 0 {
		t.Errorf("failed turn should not record a turn")
	}
}

func TestOnlyFirstInvocationIsActedOn(t *testing.T) {
	mock := &claude.Mock{Script: []*claude.Response{
		claude.ToolRequest(
			claude.Invocation{ID: "tu_1", Name: "calculate", Arguments: map[string]any{"expression": "1+1"}},
			claude.Invocation{ID: "tu_2", Name: "get_time", Arguments: map[string]any{}},
		),
		claude.FinalText("Two."),
	}}
	deliverer := &fakeDeliverer{}
	orch := New(mock, newTestRegistry(&stubBackend{}), deliverer)

	if err := orch.HandleQuery(context.Background(), "What is 1 plus 1?"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls := orch.Metrics().ToolCalls()
	if calls["calculate"] != 1 {
		t.Errorf("expected 1 calculate call, got %d", calls["calculate"])
	}
	if calls["get_time"] != 0 {
		t.Errorf("second invocation must be ignored, got %d get_time calls", calls["get_time"])
	}
}

func TestHistoryRecordsToolExchange(t *testing.T) {
	mock := &claude.Mock{Script: []*claude.Response{
		claude.ToolRequest(claude.Invocation{
			ID:        "tu_9",
			Name:      "calculate",
			Arguments: map[string]any{"expression": "10/2"},
		}),
		claude.FinalText("Five."),
	}}
	orch := New(mock, newTestRegistry(&stubBackend{}), &fakeDeliverer{})

	if err := orch.HandleQuery(context.Background(), "Ten divided by two?"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	history := orch.History()
	if len(history) != 4 {
		t.Fatalf("expected 4 history turns, got %d", len(history))
	}
	if history[0].Role != claude.RoleUser || history[0].Text != "Ten divided by two?" {
		t.Errorf("unexpected first turn: %+v", history[0])
	}
	if history[1].ToolUse == nil || history[1].ToolUse.ID != "tu_9" {
		t.Errorf("expected tool use turn, got %+v", history[1])
	}
	if history[2].ToolResult == nil || history[2].ToolResult.ID != "tu_9" {
		t.Errorf("tool result must correlate by invocation id, got %+v", history[2])
	}
	if history[3].Role != claude.RoleAssistant || history[3].Text != "Five." {
		t.Errorf("unexpected final turn: %+v", history[3])
	}
}

func TestSpecialistToolFailureKeepsTurnAlive(t *testing.T) {
	mock := &claude.Mock{Script: []*claude.Response{
		claude.ToolRequest(claude.Invocation{
			ID:   "tu_1",
			Name: "compare_items",
			Arguments: map[string]any{
				"item1": "Go",
				"item2": "Rust",
			},
		}),
		claude.FinalText("I couldn't finish the comparison, sorry."),
	}}
	deliverer := &fakeDeliverer{}
	backend := &stubBackend{comparisonErr: errors.New("agents unavailable")}
	orch := New(mock, newTestRegistry(backend), deliverer)

	if err := orch.HandleQuery(context.Background(), "Compare Go and Rust"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	history := orch.History()
	if len(history) != 4 {
		t.Fatalf("expected 4 history turns, got %d", len(history))
	}
	if history[2].ToolResult == nil || !history[2].ToolResult.IsError {
		t.Errorf("expected error tool result fed back, got %+v", history[2])
	}

	delivered := deliverer.delivered()
	if len(delivered) != 1 || !delivered[0].specialist {
		t.Errorf("specialist flag reflects the attempt, got %v", delivered)
	}
}

func TestClassifierCallbackFires(t *testing.T) {
	mock := &claude.Mock{Script: []*claude.Response{claude.FinalText("Hi!")}}
	orch := New(mock, newTestRegistry(&stubBackend{}), &fakeDeliverer{})

	var classifiedQuery string
	orch.OnClassified(func(query string, result qrouter.Result) {
		classifiedQuery = query
	})

	if err := orch.HandleQuery(context.Background(), "Hello, how are you?"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if classifiedQuery != "Hello, how are you?" {
		t.Errorf("classifier callback not fired, got %q", classifiedQuery)
	}
}
