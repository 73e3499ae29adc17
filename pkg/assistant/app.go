package assistant

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/lumenrobotics/go-aria/internal/log"
	"github.com/lumenrobotics/go-aria/pkg/agents"
	"github.com/lumenrobotics/go-aria/pkg/audio"
	"github.com/lumenrobotics/go-aria/pkg/claude"
	"github.com/lumenrobotics/go-aria/pkg/delivery"
	"github.com/lumenrobotics/go-aria/pkg/orchestrator"
	qrouter "github.com/lumenrobotics/go-aria/pkg/router"
	"github.com/lumenrobotics/go-aria/pkg/tools"
	"github.com/lumenrobotics/go-aria/pkg/tts"
	"github.com/lumenrobotics/go-aria/pkg/voice"
	"github.com/lumenrobotics/go-aria/pkg/web"
)

// queryBacklog bounds how many finalized utterances may wait while a
// turn is in flight. Turns run strictly one at a time.
const queryBacklog = 8

// App is the main application orchestrator.
// It manages all components and their lifecycle.
type App struct {
	config Config
	logger *slog.Logger

	completer claude.Completer
	registry  *tools.Registry
	session   voice.Session
	sink      audio.Sink
	queue     *audio.Queue
	synth     tts.Provider
	router    *delivery.Router
	orch      *orchestrator.Orchestrator
	dashboard *web.Server

	queries    chan string
	metricsOut io.Writer

	shutdownOnce sync.Once
}

// Option customizes App construction, mainly for tests.
type Option func(*App)

// WithCompleter injects a Claude completer instead of the live API client.
func WithCompleter(c claude.Completer) Option {
	return func(a *App) { a.completer = c }
}

// WithSession injects a voice session instead of a live EVI connection.
func WithSession(s voice.Session) Option {
	return func(a *App) { a.session = s }
}

// WithSink injects a playback sink instead of the external player process.
func WithSink(s audio.Sink) Option {
	return func(a *App) { a.sink = s }
}

// WithSynthesizer injects a TTS provider for the isolated channel.
func WithSynthesizer(p tts.Provider) Option {
	return func(a *App) { a.synth = p }
}

// WithMetricsWriter redirects the shutdown metrics report (default: stdout).
func WithMetricsWriter(w io.Writer) Option {
	return func(a *App) { a.metricsOut = w }
}

// New creates the application with the given configuration.
// Configuration must already be loaded and is validated here, before any
// component is constructed.
func New(cfg Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		config:     cfg,
		logger:     log.L(),
		queries:    make(chan string, queryBacklog),
		metricsOut: os.Stdout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Init constructs and wires all components.
// Call this after New() and before Run().
func (a *App) Init() error {
	if a.completer == nil {
		completer, err := claude.NewAnthropic(a.config.AnthropicAPIKey)
		if err != nil {
			return fmt.Errorf("claude init: %w", err)
		}
		a.completer = completer
	}

	a.registry = tools.NewRegistry(a.newBackend, tools.WithWeatherKey(a.config.WeatherAPIKey))

	if a.sink == nil {
		cmd := a.config.PlaybackCommand
		if len(cmd) == 0 {
			return &ConfigError{Field: "PlaybackCommand", Message: "playback command must not be empty"}
		}
		a.sink = audio.NewPlaybackSink(cmd[0], cmd[1:]...)
	}
	a.queue = audio.NewQueue(a.sink)

	if a.synth == nil {
		synth, err := a.newSynthesizer()
		if err != nil {
			return fmt.Errorf("tts init: %w", err)
		}
		a.synth = synth
	}

	if a.session == nil {
		voiceCfg := voice.DefaultConfig()
		voiceCfg.APIKey = a.config.HumeAPIKey
		voiceCfg.ConfigID = a.config.HumeConfigID
		voiceCfg.Logger = a.logger
		session, err := voice.NewEVI(voiceCfg)
		if err != nil {
			return fmt.Errorf("voice init: %w", err)
		}
		a.session = session
	}

	a.router = delivery.NewRouter(a.session, a.synth, a.queue, delivery.WithLogger(a.logger))
	a.orch = orchestrator.New(a.completer, a.registry, a.router, orchestrator.WithLogger(a.logger))

	if a.config.DashboardPort != "" {
		a.dashboard = web.NewServer(a.config.DashboardPort)
		a.dashboard.OnQuery = a.enqueueQuery
		a.dashboard.OnMetrics = func() string { return a.orch.Metrics().Report() }
	}

	a.wireOrchestrator()
	a.wireSession()
	return nil
}

// Run starts the dashboard and the voice session, then blocks until the
// context is cancelled. Call Shutdown afterwards.
func (a *App) Run(ctx context.Context) error {
	if a.dashboard != nil {
		a.dashboard.StartAsync()
	}

	if err := a.session.Start(ctx); err != nil {
		return fmt.Errorf("voice session: %w", err)
	}
	a.updateState(func(s *web.SessionState) {
		s.VoiceConnected = true
		s.ChatID = a.session.ChatID()
	})

	go a.processQueries(ctx)

	a.logger.Info("assistant ready", "chat_id", a.session.ChatID())
	<-ctx.Done()
	return nil
}

// Shutdown stops all components, drains queued playback, and prints the
// session metrics report exactly once.
func (a *App) Shutdown() {
	a.shutdownOnce.Do(func() {
		if a.session != nil {
			if err := a.session.Stop(); err != nil {
				a.logger.Warn("voice session stop", "error", err)
			}
		}
		if a.queue != nil {
			if err := a.queue.Close(); err != nil {
				a.logger.Warn("playback drain", "error", err)
			}
		}
		if a.synth != nil {
			a.synth.Close()
		}
		if a.dashboard != nil {
			a.dashboard.Shutdown()
		}
		if a.orch != nil {
			fmt.Fprintln(a.metricsOut, a.orch.Metrics().Report())
		}
	})
}

// Orchestrator exposes the turn engine, mainly for tests and the dashboard.
func (a *App) Orchestrator() *orchestrator.Orchestrator {
	return a.orch
}

// newBackend constructs the specialist agent team on first delegation.
func (a *App) newBackend() (tools.Backend, error) {
	return agents.NewManager(a.completer), nil
}

// newSynthesizer builds the isolated-channel TTS provider: Hume primary,
// OpenAI fallback when a key is configured.
func (a *App) newSynthesizer() (tts.Provider, error) {
	hume, err := tts.NewHume(
		tts.WithAPIKey(a.config.HumeAPIKey),
		tts.WithVoice(a.config.HumeVoiceID),
		tts.WithOutputFormat(tts.EncodingPCM48),
		tts.WithLogger(a.logger),
	)
	if err != nil {
		return nil, err
	}

	if a.config.OpenAIAPIKey == "" {
		return hume, nil
	}

	fallback, err := tts.NewOpenAI(
		tts.WithAPIKey(a.config.OpenAIAPIKey),
		tts.WithLogger(a.logger),
	)
	if err != nil {
		a.logger.Warn("openai tts unavailable, continuing without fallback", "error", err)
		return hume, nil
	}
	// OpenAI emits 24kHz PCM; the playback sink runs at 48kHz.
	return tts.NewChainWithLogger(a.logger, hume, upsample(fallback, 24000, 48000))
}

// enqueueQuery hands a finalized utterance to the turn worker, preserving
// arrival order. The backlog is bounded; overflow drops the query.
func (a *App) enqueueQuery(text string) error {
	select {
	case a.queries <- text:
		return nil
	default:
		a.logger.Warn("query backlog full, dropping", "query", text)
		return fmt.Errorf("assistant busy, query dropped")
	}
}

// processQueries runs turns strictly one at a time in arrival order.
func (a *App) processQueries(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case query := <-a.queries:
			if err := a.orch.HandleQuery(ctx, query); err != nil {
				a.logger.Error("turn delivery failed", "error", err)
				a.addEvent("error", err.Error(), nil)
			}
		}
	}
}

// wireOrchestrator connects turn engine callbacks to the dashboard.
func (a *App) wireOrchestrator() {
	a.orch.OnClassified(func(query string, result qrouter.Result) {
		a.addEvent("classifier", query, map[string]any{
			"decision":   string(result.Decision),
			"complexity": string(result.Complexity),
			"confidence": result.Confidence,
			"tool":       result.SuggestedTool,
			"reasoning":  result.Reasoning,
		})
	})

	a.orch.OnTurnComplete(func(rec orchestrator.TurnRecord) {
		a.updateState(func(s *web.SessionState) {
			s.TotalQueries++
			s.LastResponse = rec.Response
			if rec.Delegated {
				s.DelegatedTurns++
			}
		})
		// Direct-channel responses already arrive via the session's
		// assistant message callback.
		if rec.Delegated {
			a.addConversation("assistant", "isolated", rec.Response)
		}
		a.addEvent("turn", rec.Query, map[string]any{
			"delegated":  rec.Delegated,
			"elapsed_ms": rec.Elapsed.Milliseconds(),
		})
	})
}

// wireSession connects voice session events to the turn worker, the
// playback queue, and the dashboard.
func (a *App) wireSession() {
	callbacks := voice.Callbacks{
		OnUserMessage: func(text string, final bool) {
			if !final || text == "" {
				return
			}
			a.logger.Info("user said", "text", text)
			a.addConversation("user", "", text)
			a.updateState(func(s *web.SessionState) { s.LastUserText = text })
			a.enqueueQuery(text)
		},
		OnAssistantMessage: func(text string) {
			a.addConversation("assistant", "direct", text)
			a.updateState(func(s *web.SessionState) {
				s.Speaking = true
				s.LastResponse = text
			})
		},
		OnAssistantEnd: func() {
			a.updateState(func(s *web.SessionState) { s.Speaking = false })
		},
		OnAudioOut: func(pcm []byte) {
			if err := a.queue.Enqueue(pcm); err != nil {
				a.logger.Warn("playback enqueue", "error", err)
			}
		},
		OnInterruption: func() {
			a.logger.Debug("user interruption")
			a.addEvent("interruption", "user talked over playback", nil)
		},
		OnError: func(err error) {
			a.logger.Error("voice session error", "error", err)
			a.addEvent("error", err.Error(), nil)
		},
	}
	callbacks.Apply(a.session)
}

func (a *App) updateState(update func(*web.SessionState)) {
	if a.dashboard != nil {
		a.dashboard.UpdateState(update)
	}
}

func (a *App) addEvent(eventType, message string, detail map[string]any) {
	if a.dashboard != nil {
		a.dashboard.AddEvent(eventType, message, detail)
	}
}

func (a *App) addConversation(role, channel, message string) {
	if a.dashboard != nil {
		a.dashboard.AddConversation(role, channel, message)
	}
}
