package claude

import (
	"context"
	"sync"
)

// Mock implements Completer for testing.
// Responses are consumed in order; CompleteFunc overrides the script when set.
type Mock struct {
	// CompleteFunc is called when Complete is invoked. If nil, the next
	// scripted Response is returned instead.
	CompleteFunc func(ctx context.Context, req Request) (*Response, error)

	// Script is the ordered list of responses to return. When exhausted,
	// the last entry repeats.
	Script []*Response

	// Err, when set, is returned by every Complete call.
	Err error

	mu    sync.Mutex
	calls []Request
	next  int
}

// Complete returns the next scripted response and records the request.
func (m *Mock) Complete(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	idx := m.next
	if m.next < len(m.Script)-1 {
		m.next++
	}
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Script) == 0 {
		return &Response{StopReason: StopFinal, Text: "ok"}, nil
	}
	return m.Script[idx], nil
}

// Calls returns all recorded requests.
func (m *Mock) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times Complete was invoked.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// FinalText builds a scripted final-answer response.
func FinalText(text string) *Response {
	return &Response{StopReason: StopFinal, Text: text}
}

// ToolRequest builds a scripted tool-use response.
func ToolRequest(invs ...Invocation) *Response {
	return &Response{StopReason: StopToolUse, Invocations: invs}
}

var _ Completer = (*Mock)(nil)
