package voice

import (
	"context"
	"sync"
)

// Mock implements Session for testing. It records outbound calls and
// lets tests fire inbound events through the Emit methods.
type Mock struct {
	// Optional overrides. When nil, methods succeed.
	SpeakFunc     func(text string) error
	SendAudioFunc func(pcm []byte) error

	mu        sync.Mutex
	started   bool
	stopped   bool
	spoken    []string
	userTexts []string
	paused    bool

	onUserMessage      func(text string, final bool)
	onAssistantMessage func(text string)
	onAssistantEnd     func()
	onAudioOut         func(pcm []byte)
	onInterruption     func()
	onError            func(err error)
}

// NewMockSession creates a mock voice session.
func NewMockSession() *Mock {
	return &Mock{}
}

// Start marks the session as connected.
func (m *Mock) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started && !m.stopped {
		return ErrAlreadyStarted
	}
	m.started = true
	m.stopped = false
	return nil
}

// Stop marks the session as disconnected.
func (m *Mock) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	return nil
}

// IsConnected reports whether Start has been called without Stop.
func (m *Mock) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started && !m.stopped
}

// SendAudio records nothing and succeeds unless SendAudioFunc is set.
func (m *Mock) SendAudio(pcm []byte) error {
	if m.SendAudioFunc != nil {
		return m.SendAudioFunc(pcm)
	}
	return nil
}

// SendUserText records the injected user message.
func (m *Mock) SendUserText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userTexts = append(m.userTexts, text)
	return nil
}

// Speak records the spoken text.
func (m *Mock) Speak(text string) error {
	if m.SpeakFunc != nil {
		if err := m.SpeakFunc(text); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spoken = append(m.spoken, text)
	return nil
}

// PauseResponses records the paused state.
func (m *Mock) PauseResponses() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = true
	return nil
}

// ResumeResponses clears the paused state.
func (m *Mock) ResumeResponses() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = false
	return nil
}

// Spoken returns all texts passed to Speak, in order.
func (m *Mock) Spoken() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.spoken...)
}

// UserTexts returns all texts passed to SendUserText, in order.
func (m *Mock) UserTexts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.userTexts...)
}

// Paused reports whether responses are currently paused.
func (m *Mock) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

// Callback setters

func (m *Mock) OnUserMessage(fn func(text string, final bool)) { m.onUserMessage = fn }
func (m *Mock) OnAssistantMessage(fn func(text string))        { m.onAssistantMessage = fn }
func (m *Mock) OnAssistantEnd(fn func())                       { m.onAssistantEnd = fn }
func (m *Mock) OnAudioOut(fn func(pcm []byte))                 { m.onAudioOut = fn }
func (m *Mock) OnInterruption(fn func())                       { m.onInterruption = fn }
func (m *Mock) OnError(fn func(err error))                     { m.onError = fn }

// ChatID returns a fixed identifier once started.
func (m *Mock) ChatID() string {
	if m.IsConnected() {
		return "mock-chat"
	}
	return ""
}

// Emit methods fire callbacks as if events arrived from the server.

func (m *Mock) EmitUserMessage(text string, final bool) {
	if m.onUserMessage != nil {
		m.onUserMessage(text, final)
	}
}

func (m *Mock) EmitAssistantMessage(text string) {
	if m.onAssistantMessage != nil {
		m.onAssistantMessage(text)
	}
}

func (m *Mock) EmitAssistantEnd() {
	if m.onAssistantEnd != nil {
		m.onAssistantEnd()
	}
}

func (m *Mock) EmitAudioOut(pcm []byte) {
	if m.onAudioOut != nil {
		m.onAudioOut(pcm)
	}
}

func (m *Mock) EmitInterruption() {
	if m.onInterruption != nil {
		m.onInterruption()
	}
}

func (m *Mock) EmitError(err error) {
	if m.onError != nil {
		m.onError(err)
	}
}

// Ensure Mock implements Session at compile time.
var _ Session = (*Mock)(nil)
