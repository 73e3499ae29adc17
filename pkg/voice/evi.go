package voice

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const eviChatURL = "wss://api.hume.ai/v0/evi/chat"

// EVI implements Session using Hume's Empathic Voice Interface.
// A single WebSocket carries microphone audio up and transcripts,
// assistant text, and synthesized audio down.
type EVI struct {
	config Config

	// WebSocket connection
	ws   *websocket.Conn
	wsMu sync.Mutex

	// Session state
	mu        sync.RWMutex
	connected bool
	closed    bool
	chatID    string
	cancel    context.CancelFunc

	// Callbacks
	onUserMessage      func(text string, final bool)
	onAssistantMessage func(text string)
	onAssistantEnd     func()
	onAudioOut         func(pcm []byte)
	onInterruption     func()
	onError            func(err error)
}

// NewEVI creates a new EVI session with the given configuration.
func NewEVI(cfg Config) (*EVI, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &EVI{config: cfg}, nil
}

// Start establishes the WebSocket connection and begins processing.
func (e *EVI) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.connected {
		e.mu.Unlock()
		return ErrAlreadyStarted
	}
	e.mu.Unlock()

	endpoint, err := e.dialURL()
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: e.config.HandshakeTimeout,
	}

	ws, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("voice/evi: failed to connect: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)

	e.mu.Lock()
	e.ws = ws
	e.connected = true
	e.closed = false
	e.cancel = cancel
	e.mu.Unlock()

	if e.config.SystemPrompt != "" {
		if err := e.sendJSON(map[string]any{
			"type":          "session_settings",
			"system_prompt": e.config.SystemPrompt,
		}); err != nil {
			e.Stop()
			return fmt.Errorf("voice/evi: failed to apply session settings: %w", err)
		}
	}

	go e.readLoop()
	if e.config.KeepAlive > 0 {
		go e.keepAlive(ctx)
	}

	return nil
}

// Stop gracefully shuts down the session.
func (e *EVI) Stop() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.connected = false
	cancel := e.cancel
	ws := e.ws
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if ws != nil {
		return ws.Close()
	}
	return nil
}

// IsConnected returns true if connected and ready.
func (e *EVI) IsConnected() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.connected && !e.closed
}

// SendAudio sends PCM16 microphone audio to the session.
func (e *EVI) SendAudio(pcm []byte) error {
	return e.sendJSON(map[string]any{
		"type": "audio_input",
		"data": base64.StdEncoding.EncodeToString(pcm),
	})
}

// SendUserText injects a typed user message as if it were spoken.
func (e *EVI) SendUserText(text string) error {
	return e.sendJSON(map[string]any{
		"type": "user_input",
		"text": text,
	})
}

// Speak has the session voice the given text on the conversational channel.
func (e *EVI) Speak(text string) error {
	return e.sendJSON(map[string]any{
		"type": "assistant_input",
		"text": text,
	})
}

// PauseResponses suppresses autonomous replies while another speech
// source owns the output. Transcription continues.
func (e *EVI) PauseResponses() error {
	return e.sendJSON(map[string]any{"type": "pause_assistant_message"})
}

// ResumeResponses re-enables autonomous replies.
func (e *EVI) ResumeResponses() error {
	return e.sendJSON(map[string]any{"type": "resume_assistant_message"})
}

// OnUserMessage sets the callback for transcribed user speech.
func (e *EVI) OnUserMessage(fn func(text string, final bool)) {
	e.onUserMessage = fn
}

// OnAssistantMessage sets the callback for spoken assistant text.
func (e *EVI) OnAssistantMessage(fn func(text string)) {
	e.onAssistantMessage = fn
}

// OnAssistantEnd sets the callback for the end of an assistant utterance.
func (e *EVI) OnAssistantEnd(fn func()) {
	e.onAssistantEnd = fn
}

// OnAudioOut sets the callback for synthesized audio output.
func (e *EVI) OnAudioOut(fn func(pcm []byte)) {
	e.onAudioOut = fn
}

// OnInterruption sets the callback for user barge-in.
func (e *EVI) OnInterruption(fn func()) {
	e.onInterruption = fn
}

// OnError sets the error callback.
func (e *EVI) OnError(fn func(err error)) {
	e.onError = fn
}

// ChatID returns the remote session identifier, or "" before connect.
func (e *EVI) ChatID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.chatID
}

func (e *EVI) dialURL() (string, error) {
	base := e.config.BaseURL
	if base == "" {
		base = eviChatURL
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("voice/evi: invalid endpoint: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}

	q := u.Query()
	q.Set("api_key", e.config.APIKey)
	if e.config.ConfigID != "" {
		q.Set("config_id", e.config.ConfigID)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// readLoop processes incoming WebSocket messages.
func (e *EVI) readLoop() {
	logger := e.config.Logger.With("component", "voice.evi")

	for {
		e.mu.RLock()
		closed := e.closed
		ws := e.ws
		e.mu.RUnlock()

		if closed {
			return
		}

		var msg map[string]any
		if err := ws.ReadJSON(&msg); err != nil {
			e.mu.RLock()
			closed := e.closed
			e.mu.RUnlock()

			if !closed && e.onError != nil {
				e.onError(err)
			}
			return
		}

		msgType, _ := msg["type"].(string)

		switch msgType {
		case "chat_metadata":
			if id, ok := msg["chat_id"].(string); ok {
				e.mu.Lock()
				e.chatID = id
				e.mu.Unlock()
				logger.Info("session established", "chat_id", id)
			}

		case "user_message":
			interim, _ := msg["interim"].(bool)
			if text := messageContent(msg); text != "" && e.onUserMessage != nil {
				e.onUserMessage(text, !interim)
			}

		case "assistant_message":
			if text := messageContent(msg); text != "" && e.onAssistantMessage != nil {
				e.onAssistantMessage(text)
			}

		case "assistant_end":
			if e.onAssistantEnd != nil {
				e.onAssistantEnd()
			}

		case "audio_output":
			if data, ok := msg["data"].(string); ok && e.onAudioOut != nil {
				pcm, err := base64.StdEncoding.DecodeString(data)
				if err == nil {
					e.onAudioOut(pcm)
				}
			}

		case "user_interruption":
			logger.Debug("user interruption")
			if e.onInterruption != nil {
				e.onInterruption()
			}

		case "error":
			slug, _ := msg["slug"].(string)
			detail, _ := msg["message"].(string)
			if e.onError != nil {
				e.onError(fmt.Errorf("voice/evi: server error %s: %s", slug, detail))
			}

		default:
			logger.Debug("unhandled event", "type", msgType)
		}
	}
}

// messageContent extracts message.content from a chat event.
func messageContent(msg map[string]any) string {
	inner, ok := msg["message"].(map[string]any)
	if !ok {
		return ""
	}
	content, _ := inner["content"].(string)
	return content
}

// keepAlive pings the server until the session context is cancelled.
func (e *EVI) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(e.config.KeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.wsMu.Lock()
			ws := e.ws
			if ws != nil {
				ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			}
			e.wsMu.Unlock()
		}
	}
}

// sendJSON sends a JSON message over the WebSocket.
func (e *EVI) sendJSON(v any) error {
	e.mu.RLock()
	if !e.connected || e.closed {
		e.mu.RUnlock()
		return ErrNotConnected
	}
	e.mu.RUnlock()

	e.wsMu.Lock()
	defer e.wsMu.Unlock()

	if e.ws == nil {
		return ErrNotConnected
	}
	return e.ws.WriteJSON(v)
}

// Ensure EVI implements Session at compile time.
var _ Session = (*EVI)(nil)
