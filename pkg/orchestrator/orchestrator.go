// Package orchestrator runs the agentic tool-use loop at the heart of
// the assistant.
//
// Each finalized user utterance becomes one turn: the loop calls the
// completion service with the conversation history and tool catalog,
// executes at most one requested tool per iteration, feeds the result
// back, and repeats until the service produces a final text response or
// the iteration cap is reached. The finished text is handed to the
// delivery router along with a flag recording whether any specialist
// tool contributed, which decides the output channel.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lumenrobotics/go-aria/pkg/claude"
	qrouter "github.com/lumenrobotics/go-aria/pkg/router"
	"github.com/lumenrobotics/go-aria/pkg/tools"
)

// MaxIterations bounds the tool-use loop within a single turn.
const MaxIterations = 5

const (
	ackMessage     = "Let me analyze that for you. This will take a moment."
	capMessage     = "I've processed your request, but it took longer than expected. Could you try asking in a different way?"
	apologyMessage = "I encountered an issue processing your request. Could you try rephrasing that?"
)

const systemPrompt = `You are an intelligent voice assistant with access to various tools.

Your capabilities:
- Quick information tools: weather, time, calculator
- Research and analysis tools: a specialist research team, topic analysis, comparisons

Tool Usage Guidelines (IMPORTANT):
1. Use tools ONLY when you need current, accurate, real-time data:
   - get_weather: ONLY when the user asks for specific current weather ("What's the weather in NYC now?")
   - get_time: ONLY when the user asks for the current time in a location ("What time is it in Tokyo?")
   - calculate: ONLY for actual math calculations the user provides

2. Use your knowledge for general information:
   - General weather patterns: "What's summer weather like?" -> use knowledge, not a tool
   - Time zone facts: "How many time zones in the USA?" -> use knowledge, not a tool
   - Math concepts: "What is calculus?" -> use knowledge, not a tool

3. Use the specialist team for complex queries:
   - consult_research_team: for questions requiring research, current trends, or multi-step analysis
   - analyze_topic: for deep dives, comprehensive reviews, technical explanations
   - compare_items: for comparing technologies, approaches, or concepts

   The specialist agents have access to Wikipedia and reasoning tools and excel at
   nuanced, multi-step work.

4. Chain tools for multi-part queries:
   - Example: "What's the weather in Paris and what's a famous landmark?" -> chain weather + research

5. Keep responses concise and natural for voice delivery:
   - Your response will be spoken aloud
   - Be conversational and friendly
   - Avoid overly technical language unless requested

Be smart about tool usage - don't call tools unnecessarily, but use them when you
need real-time data or deep analysis.`

// Deliverer routes finished responses to a speech channel.
// Satisfied by delivery.Router.
type Deliverer interface {
	// Acknowledge speaks a short interim message on the direct channel.
	Acknowledge(text string) error

	// Deliver routes final text to the channel matching usedSpecialist.
	Deliver(ctx context.Context, text string, usedSpecialist bool) error
}

// Orchestrator owns one conversation session: its history, metrics, and
// the per-turn tool-use loop. Turns are processed strictly sequentially.
type Orchestrator struct {
	completer claude.Completer
	registry  *tools.Registry
	deliver   Deliverer
	logger    *slog.Logger

	history []claude.Turn
	metrics *Metrics

	onClassified func(query string, result qrouter.Result)
	onTurn       func(rec TurnRecord)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// New creates an Orchestrator for a fresh session.
func New(completer claude.Completer, registry *tools.Registry, deliver Deliverer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		completer: completer,
		registry:  registry,
		deliver:   deliver,
		logger:    slog.Default(),
		metrics:   NewMetrics(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// OnClassified sets a callback fired with the advisory classification
// of each incoming query. Used by the dashboard feed.
func (o *Orchestrator) OnClassified(fn func(query string, result qrouter.Result)) {
	o.onClassified = fn
}

// OnTurnComplete sets a callback fired after each delivered turn.
func (o *Orchestrator) OnTurnComplete(fn func(rec TurnRecord)) {
	o.onTurn = fn
}

// Metrics returns the session metrics collector.
func (o *Orchestrator) Metrics() *Metrics {
	return o.metrics
}

// History returns a copy of the conversation history.
func (o *Orchestrator) History() []claude.Turn {
	return append([]claude.Turn(nil), o.history...)
}

// HandleQuery processes one finalized user utterance end to end:
// classify, run the tool-use loop, and deliver the result. Failures
// inside the turn are converted into a spoken apology; the returned
// error reports only delivery problems.
func (o *Orchestrator) HandleQuery(ctx context.Context, query string) error {
	start := time.Now()
	o.metrics.RecordQuery()

	// Advisory only: the loop decides tool use on its own.
	cls := qrouter.Classify(query)
	o.logger.Info("query classified",
		"decision", cls.Decision,
		"complexity", cls.Complexity,
		"confidence", cls.Confidence,
	)
	if o.onClassified != nil {
		o.onClassified(query, cls)
	}

	o.history = append(o.history, claude.UserTurn(query))

	text, delegated, err := o.runLoop(ctx)
	if err != nil {
		o.logger.Error("turn failed", "error", err)
		return o.deliver.Deliver(ctx, apologyMessage, false)
	}
	if text == "" {
		return nil
	}

	if err := o.deliver.Deliver(ctx, text, delegated); err != nil {
		o.logger.Error("delivery failed", "error", err)
		return err
	}

	rec := TurnRecord{
		Query:     query,
		Response:  responseExcerpt(text),
		Elapsed:   time.Since(start),
		Delegated: delegated,
	}
	o.metrics.RecordTurn(rec)
	if o.onTurn != nil {
		o.onTurn(rec)
	}
	return nil
}

// runLoop executes the bounded tool-use loop for the current turn.
// It returns the final text and whether any specialist tool was used.
func (o *Orchestrator) runLoop(ctx context.Context) (string, bool, error) {
	turns := append([]claude.Turn(nil), o.history...)
	delegated := false

	for iteration := 1; iteration <= MaxIterations; iteration++ {
		o.logger.Debug("loop iteration", "iteration", iteration)

		resp, err := o.completer.Complete(ctx, claude.Request{
			System: systemPrompt,
			Tools:  o.registry.Definitions(),
			Turns:  turns,
		})
		if err != nil {
			return "", delegated, fmt.Errorf("orchestrator: completion: %w", err)
		}

		if resp.StopReason == claude.StopToolUse && len(resp.Invocations) > 0 {
			// Only the first requested tool is acted on per iteration.
			inv := resp.Invocations[0]
			o.logger.Info("tool requested", "tool", inv.Name, "id", inv.ID)
			o.metrics.RecordToolCall(inv.Name)

			if o.registry.IsSpecialist(inv.Name) {
				delegated = true
				// Specialist calls are slow; the user needs to hear
				// something before the work starts.
				if err := o.deliver.Acknowledge(ackMessage); err != nil {
					o.logger.Warn("acknowledgment failed", "error", err)
				}
			}

			result := o.registry.Execute(ctx, inv.Name, inv.Arguments)
			turns = append(turns,
				claude.ToolUseTurn(resp.Text, inv),
				claude.ToolResultTurn(inv.ID, result.Text(), result.IsError),
			)
			continue
		}

		final := resp.Text
		o.history = append(turns, claude.AssistantTurn(final))
		o.logger.Info("final response ready",
			"delegated", delegated,
			"chars", len(final),
		)
		return final, delegated, nil
	}

	o.logger.Warn("iteration cap reached", "max", MaxIterations)
	return capMessage, delegated, nil
}

// responseExcerpt shortens a response for turn records.
func responseExcerpt(text string) string {
	const limit = 100
	short := excerpt(text, limit)
	if short != text {
		return short + "..."
	}
	return text
}
