package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const providerOpenAI = "openai"

// OpenAI voice options
const (
	VoiceAlloy   = "alloy"   // Neutral voice
	VoiceEcho    = "echo"    // Male voice
	VoiceFable   = "fable"   // British accent
	VoiceOnyx    = "onyx"    // Deep male voice
	VoiceNova    = "nova"    // Female voice
	VoiceShimmer = "shimmer" // Soft female voice
)

// OpenAI model options
const (
	ModelTTS1   = "tts-1"    // Standard quality, faster
	ModelTTS1HD = "tts-1-hd" // Higher quality, slower
)

// OpenAI implements Provider for OpenAI TTS. It serves as the fallback
// stage in the isolated-channel chain when Hume is unavailable.
type OpenAI struct {
	config *Config
	client openai.Client
	logger *slog.Logger
}

// NewOpenAI creates a new OpenAI TTS provider.
func NewOpenAI(opts ...Option) (*OpenAI, error) {
	cfg := DefaultConfig()
	cfg.ModelID = ModelTTS1
	cfg.VoiceID = VoiceShimmer
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.VoiceID == "" {
		cfg.VoiceID = VoiceShimmer
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAI{
		config: cfg,
		client: openai.NewClient(reqOpts...),
		logger: cfg.Logger.With("component", "tts.openai"),
	}, nil
}

// Synthesize converts text to audio, returning the complete audio buffer.
func (o *OpenAI) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	start := time.Now()

	resp, err := o.client.Audio.Speech.New(ctx, o.speechParams(text))
	if err != nil {
		return nil, o.wrapSDKError(err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("read response: %w", err))
	}

	latency := time.Since(start).Milliseconds()
	o.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", latency,
		"voice", o.config.VoiceID,
	)

	return &AudioResult{
		Audio:     audio,
		Format:    o.outputFormat(),
		CharCount: len(text),
		LatencyMs: latency,
	}, nil
}

// Stream converts text to audio with streaming output. Audio bytes are
// surfaced in fixed-size chunks as they arrive off the wire.
func (o *OpenAI) Stream(ctx context.Context, text string) (AudioStream, error) {
	resp, err := o.client.Audio.Speech.New(ctx, o.speechParams(text))
	if err != nil {
		return nil, o.wrapSDKError(err)
	}
	return &readerStream{body: resp.Body, format: o.outputFormat()}, nil
}

// Health checks API connectivity.
func (o *OpenAI) Health(ctx context.Context) error {
	if _, err := o.client.Models.List(ctx); err != nil {
		return o.wrapSDKError(err)
	}
	return nil
}

// Close releases resources.
func (o *OpenAI) Close() error {
	return nil
}

// VoiceID returns the configured voice.
func (o *OpenAI) VoiceID() string {
	return o.config.VoiceID
}

func (o *OpenAI) speechParams(text string) openai.AudioSpeechNewParams {
	params := openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(o.config.ModelID),
		Voice:          openai.AudioSpeechNewParamsVoice(o.config.VoiceID),
		Input:          text,
		ResponseFormat: o.responseFormat(),
	}
	if speed := o.config.VoiceSettings.Speed; speed > 0 && speed != 1.0 {
		params.Speed = openai.Float(speed)
	}
	return params
}

func (o *OpenAI) responseFormat() openai.AudioSpeechNewParamsResponseFormat {
	switch o.config.OutputFormat {
	case EncodingMP3:
		return openai.AudioSpeechNewParamsResponseFormatMP3
	case EncodingWAV:
		return openai.AudioSpeechNewParamsResponseFormatWAV
	default:
		// OpenAI emits raw PCM at a fixed 24kHz.
		return openai.AudioSpeechNewParamsResponseFormatPCM
	}
}

// outputFormat returns the audio format configuration.
func (o *OpenAI) outputFormat() AudioFormat {
	switch o.config.OutputFormat {
	case EncodingMP3:
		return AudioFormat{Encoding: EncodingMP3, SampleRate: 44100, Channels: 1}
	case EncodingWAV:
		return AudioFormat{Encoding: EncodingWAV, SampleRate: 24000, Channels: 1}
	default:
		return AudioFormat{Encoding: EncodingPCM24, SampleRate: 24000, Channels: 1}
	}
}

// wrapSDKError converts SDK errors into the package's error types.
func (o *OpenAI) wrapSDKError(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return &APIError{
			StatusCode: apierr.StatusCode,
			Message:    apierr.Message,
			Code:       fmt.Sprint(apierr.Code),
			Provider:   providerOpenAI,
		}
	}
	return WrapError(providerOpenAI, err)
}

// readerStream surfaces an HTTP response body as an AudioStream.
type readerStream struct {
	body   io.ReadCloser
	format AudioFormat
	done   bool
}

const readerChunkSize = 4096

// Read returns the next audio chunk, or (nil, nil) at end of stream.
func (s *readerStream) Read() ([]byte, error) {
	if s.done {
		return nil, nil
	}
	buf := make([]byte, readerChunkSize)
	n, err := s.body.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err == io.EOF {
		s.done = true
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte{}, nil
}

// Close releases resources.
func (s *readerStream) Close() error {
	return s.body.Close()
}

// Format returns the audio format.
func (s *readerStream) Format() AudioFormat {
	return s.format
}

// bufferStream wraps a byte slice as AudioStream.
type bufferStream struct {
	data   []byte
	offset int
	format AudioFormat
}

// Read returns the next audio chunk.
func (s *bufferStream) Read() ([]byte, error) {
	if s.offset >= len(s.data) {
		return nil, nil
	}
	chunk := s.data[s.offset:]
	s.offset = len(s.data)
	return chunk, nil
}

// Close releases resources.
func (s *bufferStream) Close() error {
	return nil
}

// Format returns the audio format.
func (s *bufferStream) Format() AudioFormat {
	return s.format
}

// Verify OpenAI implements Provider at compile time.
var _ Provider = (*OpenAI)(nil)
