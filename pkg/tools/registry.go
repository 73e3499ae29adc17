package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/lumenrobotics/go-aria/internal/log"
	"github.com/lumenrobotics/go-aria/pkg/claude"
)

// Handler executes one tool invocation. Handlers never return Go errors
// past the registry boundary; failures are encoded in the Result.
type Handler func(ctx context.Context, args map[string]any) Result

// entry pairs a tool definition with its resolved handler.
type entry struct {
	def        claude.ToolDefinition
	specialist bool
	run        Handler
}

// Registry dispatches tool invocations by name. The name→handler table is
// resolved once at construction; dispatch never uses reflection.
type Registry struct {
	entries []entry
	byName  map[string]*entry
	lazy    *lazyBackend

	weatherKey string
	now        func() time.Time
}

// Option customizes a Registry.
type Option func(*Registry)

// WithWeatherKey sets the OpenWeatherMap API key for the weather tool.
func WithWeatherKey(key string) Option {
	return func(r *Registry) { r.weatherKey = key }
}

// WithClock overrides the time source for the time tool.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// NewRegistry builds the full tool table. factory constructs the specialist
// backend on first specialist tool use; it may be nil, in which case
// specialist tools report an error result.
func NewRegistry(factory BackendFactory, opts ...Option) *Registry {
	r := &Registry{
		now: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if factory == nil {
		factory = func() (Backend, error) {
			return nil, fmt.Errorf("tools: specialist backend not configured")
		}
	}
	r.lazy = &lazyBackend{factory: factory}

	r.entries = []entry{
		{def: weatherDef, run: r.getWeather},
		{def: timeDef, run: r.getTime},
		{def: calculateDef, run: r.calculate},
		{def: consultDef, specialist: true, run: r.consultResearchTeam},
		{def: analyzeDef, specialist: true, run: r.analyzeTopic},
		{def: compareDef, specialist: true, run: r.compareItems},
		{def: confirmDef, run: r.confirmAction},
	}
	r.byName = make(map[string]*entry, len(r.entries))
	for i := range r.entries {
		r.byName[r.entries[i].def.Name] = &r.entries[i]
	}
	return r
}

// Definitions returns the full tool set in registration order.
func (r *Registry) Definitions() []claude.ToolDefinition {
	defs := make([]claude.ToolDefinition, len(r.entries))
	for i, e := range r.entries {
		defs[i] = e.def
	}
	return defs
}

// IsSpecialist reports whether a tool routes through the specialist backend.
func (r *Registry) IsSpecialist(name string) bool {
	e, ok := r.byName[name]
	return ok && e.specialist
}

// Execute runs the named tool. Unknown names return an error result rather
// than failing past this boundary.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) Result {
	e, ok := r.byName[name]
	if !ok {
		log.Warn("unknown tool requested", "tool", name)
		return ErrorResult(fmt.Sprintf("Unknown tool: %s", name))
	}

	start := time.Now()
	result := e.run(ctx, args)
	log.Debug("tool executed",
		"tool", name, "is_error", result.IsError, "elapsed", time.Since(start))
	return result
}

// backend resolves the lazily constructed specialist backend.
func (r *Registry) backend(ctx context.Context) (Backend, error) {
	return r.lazy.get(ctx)
}

func (r *Registry) consultResearchTeam(ctx context.Context, args map[string]any) Result {
	query, _ := args["query"].(string)
	if query == "" {
		return ErrorResult("No query provided for research team")
	}
	extraContext, _ := args["context"].(string)

	b, err := r.backend(ctx)
	if err != nil {
		return ErrorResult(fmt.Sprintf("Error consulting research team: %v", err))
	}

	log.Info("consulting research team", "query", query)
	answer, err := b.Run(ctx, query, extraContext)
	if err != nil {
		return ErrorResult(fmt.Sprintf("Error consulting research team: %v", err))
	}
	return TextResult(answer)
}

func (r *Registry) analyzeTopic(ctx context.Context, args map[string]any) Result {
	topic, _ := args["topic"].(string)
	if topic == "" {
		return ErrorResult("No topic provided for analysis")
	}
	analysisType, _ := args["analysis_type"].(string)
	if analysisType == "" {
		analysisType = "comprehensive"
	}

	b, err := r.backend(ctx)
	if err != nil {
		return ErrorResult(fmt.Sprintf("Error in analysis: %v", err))
	}

	log.Info("analyzing topic", "topic", topic, "type", analysisType)
	answer, err := b.AnalysisTask(ctx, topic, analysisType)
	if err != nil {
		return ErrorResult(fmt.Sprintf("Error in analysis: %v", err))
	}
	return TextResult(answer)
}

func (r *Registry) compareItems(ctx context.Context, args map[string]any) Result {
	item1, _ := args["item1"].(string)
	item2, _ := args["item2"].(string)
	if item1 == "" || item2 == "" {
		return ErrorResult("Need both items to compare")
	}
	criteria, _ := args["criteria"].(string)

	b, err := r.backend(ctx)
	if err != nil {
		return ErrorResult(fmt.Sprintf("Error in comparison: %v", err))
	}

	log.Info("comparing items", "item1", item1, "item2", item2)
	answer, err := b.ComparisonTask(ctx, item1, item2, criteria)
	if err != nil {
		return ErrorResult(fmt.Sprintf("Error in comparison: %v", err))
	}
	return TextResult(answer)
}
