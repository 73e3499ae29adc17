// Package tts provides a unified interface for text-to-speech providers.
//
// This is the isolated synthesis channel: long-form answers are rendered
// here instead of through the live conversational channel, so the voice
// session never generates a second, conflicting spoken response. Providers
// include Hume (matching the conversational voice identity) and OpenAI
// (fallback). All providers implement the Provider interface; the Chain
// provider tries them in order.
//
// Example usage:
//
//	provider, _ := tts.NewHume(
//	    tts.WithAPIKey(os.Getenv("HUME_API_KEY")),
//	    tts.WithVoice(os.Getenv("HUME_VOICE_ID")),
//	)
//	defer provider.Close()
//
//	stream, _ := provider.Stream(ctx, "Hello world")
//	// stream yields PCM chunks as they are synthesized
package tts

import (
	"context"
	"time"
)

// Provider defines the TTS provider interface.
// All implementations must satisfy this interface for seamless provider switching.
type Provider interface {
	// Synthesize converts text to audio, returning the complete audio buffer.
	// Use this for short text where latency to first byte is less critical.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Stream converts text to audio with streaming output for lowest latency.
	// Audio chunks are returned as they become available.
	Stream(ctx context.Context, text string) (AudioStream, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioStream represents a streaming audio response.
// Streams are lazy, finite, and not restartable: callers read until Read
// returns nil, then call Close.
type AudioStream interface {
	// Read returns the next audio chunk.
	// Returns nil when the stream is complete (not an error).
	Read() ([]byte, error)

	// Close stops the stream and releases resources.
	Close() error

	// Format returns the audio format metadata.
	Format() AudioFormat
}

// AudioResult represents a complete audio synthesis result.
type AudioResult struct {
	// Audio contains the raw audio data in the specified format.
	Audio []byte

	// Format describes the audio encoding and sample rate.
	Format AudioFormat

	// Duration is the estimated audio playback duration.
	Duration time.Duration

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the time to first byte in milliseconds.
	LatencyMs int64
}

// AudioFormat describes the audio encoding parameters.
type AudioFormat struct {
	// Encoding specifies the audio codec (e.g., pcm_24000, mp3_44100).
	Encoding Encoding

	// SampleRate in Hz (e.g., 24000, 44100, 48000).
	SampleRate int

	// Channels is 1 for mono, 2 for stereo.
	Channels int

	// BitDepth for PCM formats (e.g., 16 for PCM16).
	BitDepth int
}

// Encoding represents audio encoding types.
type Encoding string

const (
	// PCM formats (raw audio, lowest latency)
	EncodingPCM16 Encoding = "pcm_16000" // 16kHz mono PCM16
	EncodingPCM24 Encoding = "pcm_24000" // 24kHz mono PCM16 (matches the playback queue)
	EncodingPCM48 Encoding = "pcm_48000" // 48kHz mono PCM16

	// Compressed formats
	EncodingMP3 Encoding = "mp3_44100" // MP3
	EncodingWAV Encoding = "wav"       // WAV container
)

// VoiceSettings controls voice characteristics for providers that support it.
type VoiceSettings struct {
	// Speed scales speaking rate; 1.0 is natural pace.
	Speed float64

	// TrailingSilence is seconds of silence appended after the utterance.
	TrailingSilence float64
}

// DefaultVoiceSettings returns sensible defaults for voice synthesis.
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{
		Speed:           1.0,
		TrailingSilence: 0.2,
	}
}

// SampleRateFromEncoding extracts the sample rate from an encoding type.
func SampleRateFromEncoding(enc Encoding) int {
	switch enc {
	case EncodingPCM16:
		return 16000
	case EncodingPCM24:
		return 24000
	case EncodingPCM48:
		return 48000
	case EncodingMP3, EncodingWAV:
		return 44100
	default:
		return 24000 // Default to 24kHz
	}
}
