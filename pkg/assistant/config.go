// Package assistant wires the voice session, orchestrator, tools, and
// dashboard into a single application.
package assistant

import "github.com/lumenrobotics/go-aria/internal/config"

// DefaultHumeVoiceID is the voice used for isolated-channel synthesis when
// HUME_VOICE_ID is not set.
const DefaultHumeVoiceID = "661ab31e-c4d6-4a16-952a-b5806a9b4ad1"

// DefaultDashboardPort is the web dashboard listen port.
const DefaultDashboardPort = "8181"

// Config holds all configuration for the assistant application.
// Flag parsing is done in cmd/aria/main.go; this struct is data only.
type Config struct {
	// Debug enables verbose debug logging.
	Debug bool

	// DashboardPort is the web dashboard listen port ("" disables the dashboard).
	DashboardPort string

	// PlaybackCommand is the external player that receives raw PCM on stdin.
	PlaybackCommand []string

	// API Keys (typically from environment variables).
	HumeAPIKey      string
	HumeConfigID    string
	HumeVoiceID     string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	WeatherAPIKey   string
}

// DefaultConfig returns sensible defaults for the assistant configuration.
func DefaultConfig() Config {
	return Config{
		DashboardPort: DefaultDashboardPort,
		HumeVoiceID:   DefaultHumeVoiceID,
		PlaybackCommand: []string{
			"aplay", "-q", "-t", "raw", "-f", "S16_LE", "-r", "48000", "-c", "1",
		},
	}
}

// LoadEnvConfig loads configuration values from environment variables.
// Call this after flag parsing to apply environment overrides.
func (c *Config) LoadEnvConfig() {
	c.HumeAPIKey = config.Env("HUME_API_KEY", c.HumeAPIKey)
	c.HumeConfigID = config.Env("HUME_CONFIG_ID", c.HumeConfigID)
	c.AnthropicAPIKey = config.Env("ANTHROPIC_API_KEY", c.AnthropicAPIKey)
	c.OpenAIAPIKey = config.Env("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.WeatherAPIKey = config.Env("OPENWEATHER_API_KEY", c.WeatherAPIKey)
	c.HumeVoiceID = config.Env("HUME_VOICE_ID", c.HumeVoiceID)
	if config.EnvBool("ARIA_DEBUG") {
		c.Debug = true
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.HumeAPIKey == "" {
		return &ConfigError{Field: "HumeAPIKey", Message: "HUME_API_KEY environment variable is required"}
	}
	if c.HumeConfigID == "" {
		return &ConfigError{Field: "HumeConfigID", Message: "HUME_CONFIG_ID environment variable is required"}
	}
	if c.AnthropicAPIKey == "" {
		return &ConfigError{Field: "AnthropicAPIKey", Message: "ANTHROPIC_API_KEY environment variable is required"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
