package voice

import (
	"errors"
	"log/slog"
	"time"
)

// Config holds all tunable parameters for the voice session.
type Config struct {
	// Credentials
	APIKey   string // Hume API key (required)
	ConfigID string // EVI configuration ID selecting voice and behavior

	// Connection
	BaseURL          string        // Override the EVI endpoint (mainly for tests)
	HandshakeTimeout time.Duration // WebSocket dial timeout (default: 10s)
	KeepAlive        time.Duration // Ping interval, 0 disables (default: 30s)

	// Session behavior
	SystemPrompt string // Extra instructions applied via session settings

	// Audio settings
	InputSampleRate  int // Microphone sample rate (default: 16000)
	OutputSampleRate int // Playback sample rate (default: 48000)

	// Observability
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		KeepAlive:        30 * time.Second,
		InputSampleRate:  16000,
		OutputSampleRate: 48000,
		Logger:           slog.Default(),
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.InputSampleRate <= 0 {
		return errors.New("voice: input sample rate must be positive")
	}
	if c.OutputSampleRate <= 0 {
		return errors.New("voice: output sample rate must be positive")
	}
	return nil
}

// WithSystemPrompt returns a copy with the system prompt set.
func (c Config) WithSystemPrompt(prompt string) Config {
	c.SystemPrompt = prompt
	return c
}

// WithConfigID returns a copy with the EVI configuration ID set.
func (c Config) WithConfigID(id string) Config {
	c.ConfigID = id
	return c
}

// WithLogger returns a copy with the structured logger set.
func (c Config) WithLogger(logger *slog.Logger) Config {
	c.Logger = logger
	return c
}
