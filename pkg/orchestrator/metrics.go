package orchestrator

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// TurnRecord captures one completed conversation turn for reporting.
type TurnRecord struct {
	Query     string
	Response  string // excerpt, at most 100 characters
	Elapsed   time.Duration
	Delegated bool // true if the turn used a specialist tool
}

// Metrics accumulates session-lifetime usage counters. Safe for
// concurrent reads; writes come from the orchestration loop.
type Metrics struct {
	mu           sync.Mutex
	totalQueries int
	toolCalls    map[string]int
	turns        []TurnRecord
}

// NewMetrics creates an empty metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{toolCalls: make(map[string]int)}
}

// RecordQuery counts an incoming user query.
func (m *Metrics) RecordQuery() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalQueries++
}

// RecordToolCall counts an invocation of the named tool.
func (m *Metrics) RecordToolCall(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toolCalls[name]++
}

// RecordTurn appends a completed turn.
func (m *Metrics) RecordTurn(rec TurnRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, rec)
}

// TotalQueries returns the number of queries received.
func (m *Metrics) TotalQueries() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalQueries
}

// ToolCalls returns a copy of the per-tool invocation counts.
func (m *Metrics) ToolCalls() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int, len(m.toolCalls))
	for name, count := range m.toolCalls {
		out[name] = count
	}
	return out
}

// Turns returns a copy of the completed turn records.
func (m *Metrics) Turns() []TurnRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]TurnRecord(nil), m.turns...)
}

// AverageLatency returns the mean turn latency, or 0 with no turns.
func (m *Metrics) AverageLatency() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.turns) == 0 {
		return 0
	}
	var total time.Duration
	for _, t := range m.turns {
		total += t.Elapsed
	}
	return total / time.Duration(len(m.turns))
}

// Report renders the session metrics as plain text for end-of-session
// display.
func (m *Metrics) Report() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var b strings.Builder
	rule := strings.Repeat("=", 70)

	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "Session Metrics")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Total Queries: %d\n", m.totalQueries)

	fmt.Fprintln(&b, "\nTool Usage:")
	if len(m.toolCalls) == 0 {
		fmt.Fprintln(&b, "  - No tools were used")
	} else {
		type toolCount struct {
			name  string
			count int
		}
		counts := make([]toolCount, 0, len(m.toolCalls))
		for name, count := range m.toolCalls {
			counts = append(counts, toolCount{name, count})
		}
		sort.Slice(counts, func(i, j int) bool {
			if counts[i].count != counts[j].count {
				return counts[i].count > counts[j].count
			}
			return counts[i].name < counts[j].name
		})
		for _, tc := range counts {
			fmt.Fprintf(&b, "  - %s: %d calls\n", tc.name, tc.count)
		}
	}

	if len(m.turns) > 0 {
		var total time.Duration
		for _, t := range m.turns {
			total += t.Elapsed
		}
		avg := total / time.Duration(len(m.turns))
		fmt.Fprintf(&b, "\nAverage Response Time: %.2fs\n", avg.Seconds())

		fmt.Fprintln(&b, "\nConversation Summary:")
		for i, t := range m.turns {
			fmt.Fprintf(&b, "  %d. %s... (%.2fs)\n", i+1, excerpt(t.Query, 50), t.Elapsed.Seconds())
		}
	}

	fmt.Fprintln(&b, rule)
	return b.String()
}

// excerpt truncates s to at most n runes.
func excerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
