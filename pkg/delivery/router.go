// Package delivery routes finished responses to one of two speech channels.
//
// Short answers go out on the direct channel: the live voice session
// speaks them itself. Specialist-derived answers go out on the isolated
// channel: a separate synthesis path whose audio is pushed into the same
// playback queue, so the session never produces a second, conflicting
// spoken response while a long-form answer is playing. If isolated
// synthesis fails before any audio is produced, the response falls back
// to the direct channel rather than being dropped.
package delivery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lumenrobotics/go-aria/pkg/audio"
	"github.com/lumenrobotics/go-aria/pkg/tts"
	"github.com/lumenrobotics/go-aria/pkg/voice"
)

// Router delivers response text through the appropriate speech channel.
type Router struct {
	session voice.Session
	synth   tts.Provider
	queue   *audio.Queue
	logger  *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// NewRouter creates a Router. session is the direct channel, synth the
// isolated synthesis provider, and queue the shared playback queue.
func NewRouter(session voice.Session, synth tts.Provider, queue *audio.Queue, opts ...Option) *Router {
	r := &Router{
		session: session,
		synth:   synth,
		queue:   queue,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Acknowledge speaks a short interim message on the direct channel.
// Used before slow specialist work so the user gets immediate feedback.
func (r *Router) Acknowledge(text string) error {
	return r.session.Speak(text)
}

// Deliver routes text to the channel matching how it was produced.
// Responses built with specialist tools take the isolated channel;
// everything else takes the direct channel.
func (r *Router) Deliver(ctx context.Context, text string, usedSpecialist bool) error {
	if !usedSpecialist {
		return r.direct(text)
	}

	err := r.isolated(ctx, text)
	if err == nil {
		return nil
	}

	r.logger.Warn("isolated channel failed, falling back to direct channel", "error", err)
	return r.direct(text)
}

func (r *Router) direct(text string) error {
	if err := r.session.Speak(text); err != nil {
		return fmt.Errorf("delivery: direct channel: %w", err)
	}
	return nil
}

// isolated synthesizes text and streams the audio into the playback
// queue. Returns an error only if no audio was delivered; a failure
// mid-stream is logged but not retried, since replaying from the start
// would repeat audio the user already heard.
func (r *Router) isolated(ctx context.Context, text string) error {
	// Suppress the session's own replies while the isolated channel
	// owns the output.
	if err := r.session.PauseResponses(); err != nil {
		r.logger.Debug("pause request failed", "error", err)
	}
	defer func() {
		if err := r.session.ResumeResponses(); err != nil {
			r.logger.Debug("resume request failed", "error", err)
		}
	}()

	stream, err := r.synth.Stream(ctx, text)
	if err != nil {
		return fmt.Errorf("delivery: synthesis: %w", err)
	}
	defer stream.Close()

	delivered := 0
	for {
		chunk, err := stream.Read()
		if err != nil {
			if delivered == 0 {
				return fmt.Errorf("delivery: synthesis stream: %w", err)
			}
			r.logger.Warn("synthesis stream failed mid-delivery",
				"chunks_delivered", delivered,
				"error", err,
			)
			return nil
		}
		if chunk == nil {
			break
		}

		if err := r.queue.Enqueue(chunk); err != nil {
			if delivered == 0 {
				return fmt.Errorf("delivery: playback enqueue: %w", err)
			}
			r.logger.Warn("playback enqueue failed mid-delivery",
				"chunks_delivered", delivered,
				"error", err,
			)
			return nil
		}
		delivered++
	}

	if delivered == 0 {
		return fmt.Errorf("delivery: synthesis produced no audio")
	}

	r.logger.Debug("delivered via isolated channel",
		"chars", len(text),
		"chunks", delivered,
	)
	return nil
}
