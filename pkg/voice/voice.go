// Package voice manages the live conversational speech session.
//
// The session is the direct channel: it transcribes the user's speech,
// surfaces finalized utterances as events, and can speak short responses
// itself. It also carries the downstream audio for playback. Long-form
// answers bypass this channel entirely (see pkg/tts and pkg/delivery) so
// the session never generates a second, conflicting spoken response.
package voice

import (
	"context"
	"errors"
)

// Common errors returned by sessions.
var (
	ErrNotConnected   = errors.New("voice: session not connected")
	ErrAlreadyStarted = errors.New("voice: session already started")
	ErrMissingAPIKey  = errors.New("voice: missing API key")
)

// Session is the interface for a live voice conversation session.
type Session interface {
	// Lifecycle

	// Start establishes the connection and begins processing.
	// Call this after setting up callbacks.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the session.
	Stop() error

	// IsConnected returns true if the session is connected and ready.
	IsConnected() bool

	// Input

	// SendAudio sends linear PCM16 microphone audio to the session.
	SendAudio(pcm []byte) error

	// SendUserText injects a typed user message as if it were spoken.
	SendUserText(text string) error

	// Output

	// Speak has the session voice the given text on the conversational
	// channel. The session treats it as its own utterance.
	Speak(text string) error

	// PauseResponses suppresses the session's autonomous replies.
	// Transcription continues; use this while another speech source
	// owns the output.
	PauseResponses() error

	// ResumeResponses re-enables autonomous replies.
	ResumeResponses() error

	// Events

	// OnUserMessage is called with the user's transcribed speech.
	// final is false for interim transcripts.
	OnUserMessage(fn func(text string, final bool))

	// OnAssistantMessage is called with text the session speaks.
	OnAssistantMessage(fn func(text string))

	// OnAssistantEnd is called when the session finishes an utterance.
	OnAssistantEnd(fn func())

	// OnAudioOut is called with synthesized PCM audio for playback.
	OnAudioOut(fn func(pcm []byte))

	// OnInterruption is called when the user talks over the session.
	OnInterruption(fn func())

	// OnError is called when an error occurs.
	OnError(fn func(err error))

	// ChatID returns the remote session identifier, or "" before connect.
	ChatID() string
}

// Callbacks groups all session callbacks for convenience.
// This can be used to set up all callbacks at once.
type Callbacks struct {
	OnUserMessage      func(text string, final bool)
	OnAssistantMessage func(text string)
	OnAssistantEnd     func()
	OnAudioOut         func(pcm []byte)
	OnInterruption     func()
	OnError            func(err error)
}

// Apply sets all callbacks on a session.
func (c *Callbacks) Apply(s Session) {
	if c.OnUserMessage != nil {
		s.OnUserMessage(c.OnUserMessage)
	}
	if c.OnAssistantMessage != nil {
		s.OnAssistantMessage(c.OnAssistantMessage)
	}
	if c.OnAssistantEnd != nil {
		s.OnAssistantEnd(c.OnAssistantEnd)
	}
	if c.OnAudioOut != nil {
		s.OnAudioOut(c.OnAudioOut)
	}
	if c.OnInterruption != nil {
		s.OnInterruption(c.OnInterruption)
	}
	if c.OnError != nil {
		s.OnError(c.OnError)
	}
}
