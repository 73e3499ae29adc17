package orchestrator

import (
	"strings"
	"testing"
	"time"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()

	m.RecordQuery()
	m.RecordQuery()
	m.RecordToolCall("get_weather")
	m.RecordToolCall("get_weather")
	m.RecordToolCall("calculate")
	m.RecordTurn(TurnRecord{Query: "q1", Response: "r1", Elapsed: 2 * time.Second})
	m.RecordTurn(TurnRecord{Query: "q2", Response: "r2", Elapsed: 4 * time.Second, Delegated: true})

	if m.TotalQueries() != 2 {
		t.Errorf("expected 2 queries, got %d", m.TotalQueries())
	}
	if got := m.ToolCalls()["get_weather"]; got != 2 {
		t.Errorf("expected 2 get_weather calls, got %d", got)
	}
	if m.AverageLatency() != 3*time.Second {
		t.Errorf("expected 3s average, got %v", m.AverageLatency())
	}

	turns := m.Turns()
	if len(turns) != 2 || !turns[1].Delegated {
		t.Errorf("unexpected turns: %+v", turns)
	}
}

func TestMetricsReport(t *testing.T) {
	m := NewMetrics()
	m.RecordQuery()
	m.RecordToolCall("get_weather")
	m.RecordToolCall("get_weather")
	m.RecordToolCall("consult_research_team")
	m.RecordTurn(TurnRecord{
		Query:   "What's the weather in Denver?",
		Elapsed: 1500 * time.Millisecond,
	})

	report := m.Report()

	if !strings.Contains(report, "Total Queries: 1") {
		t.Errorf("missing query count:\n%s", report)
	}
	if !strings.Contains(report, "- get_weather: 2 calls") {
		t.Errorf("missing tool usage:\n%s", report)
	}
	if !strings.Contains(report, "Average Response Time: 1.50s") {
		t.Errorf("missing average latency:\n%s", report)
	}
	if !strings.Contains(report, "1. What's the weather in Denver?... (1.50s)") {
		t.Errorf("missing conversation summary:\n%s", report)
	}

	// Busiest tool is listed first.
	weatherIdx := strings.Index(report, "get_weather")
	researchIdx := strings.Index(report, "consult_research_team")
	if weatherIdx < 0 || researchIdx < 0 || weatherIdx > researchIdx {
		t.Errorf("tool usage not sorted by count:\n%s", report)
	}
}

func TestMetricsReportNoTools(t *testing.T) {
	m := NewMetrics()
	m.RecordQuery()

	report := m.Report()
	if !strings.Contains(report, "No tools were used") {
		t.Errorf("missing no-tools line:\n%s", report)
	}
	if strings.Contains(report, "Average Response Time") {
		t.Errorf("average should be omitted with no turns:\n%s", report)
	}
}

func TestResponseExcerpt(t *testing.T) {
	short := "brief"
	if got := responseExcerpt(short); got != "brief" {
		t.Errorf("short responses pass through, got %q", got)
	}

	long := strings.Repeat("a", 150)
	got := responseExcerpt(long)
	if len(got) != 103 || !strings.HasSuffix(got, "...") {
		t.Errorf("expected 100 chars plus ellipsis, got %d chars", len(got))
	}
}
