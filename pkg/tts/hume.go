package tts

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	humeTTSURL   = "https://api.hume.ai/v0/tts"
	providerHume = "hume"
)

// Hume implements Provider for Hume's Octave TTS. It is the primary
// provider for the isolated output channel: responses synthesized here
// use the same voice identity as the live voice session, so delegated
// answers are indistinguishable from direct ones to the listener.
type Hume struct {
	config       *Config
	client       *http.Client
	streamClient *http.Client
	logger       *slog.Logger
	baseURL      string
}

// NewHume creates a new Hume TTS provider. A voice ID is required so
// output matches the session's voice identity.
func NewHume(opts ...Option) (*Hume, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.ValidateWithVoice(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = humeTTSURL
	}

	return &Hume{
		config:       cfg,
		client:       &http.Client{Timeout: cfg.Timeout},
		streamClient: &http.Client{Timeout: cfg.StreamTimeout},
		logger:       cfg.Logger.With("component", "tts.hume"),
		baseURL:      baseURL,
	}, nil
}

type humeVoice struct {
	ID string `json:"id"`
}

type humeUtterance struct {
	Text            string     `json:"text"`
	Voice           *humeVoice `json:"voice,omitempty"`
	Speed           float64    `json:"speed,omitempty"`
	TrailingSilence float64    `json:"trailing_silence,omitempty"`
}

type humeFormat struct {
	Type string `json:"type"`
}

type humeRequest struct {
	Utterances   []humeUtterance `json:"utterances"`
	Format       humeFormat      `json:"format"`
	StripHeaders bool            `json:"strip_headers,omitempty"`
	InstantMode  bool            `json:"instant_mode,omitempty"`
}

// Synthesize converts text to audio, returning the complete audio buffer.
func (h *Hume) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	start := time.Now()

	body, err := json.Marshal(h.request(text))
	if err != nil {
		return nil, WrapError(providerHume, fmt.Errorf("marshal payload: %w", err))
	}

	resp, err := h.doWithRetry(ctx, h.baseURL, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, h.parseError(resp)
	}

	var result struct {
		Generations []struct {
			Audio    string  `json:"audio"`
			Duration float64 `json:"duration"`
		} `json:"generations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, WrapError(providerHume, fmt.Errorf("decode response: %w", err))
	}

	var audio []byte
	for _, gen := range result.Generations {
		chunk, err := base64.StdEncoding.DecodeString(gen.Audio)
		if err != nil {
			return nil, WrapError(providerHume, fmt.Errorf("decode audio: %w", err))
		}
		audio = append(audio, chunk...)
	}

	latency := time.Since(start).Milliseconds()
	h.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", latency,
		"voice", h.config.VoiceID,
	)

	return &AudioResult{
		Audio:     audio,
		Format:    h.outputFormat(),
		CharCount: len(text),
		LatencyMs: latency,
	}, nil
}

// Stream converts text to audio with streaming output. Hume emits
// line-delimited JSON snippets, each carrying a base64 audio chunk, so
// playback can start before synthesis finishes.
func (h *Hume) Stream(ctx context.Context, text string) (AudioStream, error) {
	body, err := json.Marshal(h.request(text))
	if err != nil {
		return nil, WrapError(providerHume, fmt.Errorf("marshal payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, "POST", h.baseURL+"/stream/json", bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(providerHume, fmt.Errorf("create request: %w", err))
	}
	h.setHeaders(req)

	resp, err := h.streamClient.Do(req)
	if err != nil {
		return nil, WrapError(providerHume, fmt.Errorf("stream request: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, h.parseError(resp)
	}

	return &humeStream{
		body:    resp.Body,
		scanner: newSnippetScanner(resp.Body),
		format:  h.outputFormat(),
	}, nil
}

// Health checks API connectivity by listing available voices.
func (h *Hume) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", "https://api.hume.ai/v0/tts/voices?provider=CUSTOM_VOICE&page_size=1", nil)
	if err != nil {
		return WrapError(providerHume, err)
	}
	req.Header.Set("X-Hume-Api-Key", h.config.APIKey)

	resp, err := h.client.Do(req)
	if err != nil {
		return WrapError(providerHume, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return h.parseError(resp)
	}
	return nil
}

// Close releases resources.
func (h *Hume) Close() error {
	h.client.CloseIdleConnections()
	h.streamClient.CloseIdleConnections()
	return nil
}

// VoiceID returns the configured voice.
func (h *Hume) VoiceID() string {
	return h.config.VoiceID
}

func (h *Hume) request(text string) humeRequest {
	utt := humeUtterance{
		Text:  text,
		Voice: &humeVoice{ID: h.config.VoiceID},
	}
	if s := h.config.VoiceSettings.Speed; s > 0 && s != 1.0 {
		utt.Speed = s
	}
	if ts := h.config.VoiceSettings.TrailingSilence; ts > 0 {
		utt.TrailingSilence = ts
	}
	return humeRequest{
		Utterances:   []humeUtterance{utt},
		Format:       humeFormat{Type: h.formatType()},
		StripHeaders: true,
		InstantMode:  true,
	}
}

func (h *Hume) formatType() string {
	switch h.config.OutputFormat {
	case EncodingMP3:
		return "mp3"
	case EncodingWAV:
		return "wav"
	default:
		return "pcm"
	}
}

// outputFormat returns the audio format configuration.
func (h *Hume) outputFormat() AudioFormat {
	switch h.config.OutputFormat {
	case EncodingMP3:
		return AudioFormat{Encoding: EncodingMP3, SampleRate: 48000, Channels: 1}
	case EncodingWAV:
		return AudioFormat{Encoding: EncodingWAV, SampleRate: 48000, Channels: 1}
	default:
		// Hume emits raw PCM at a fixed 48kHz.
		return AudioFormat{Encoding: EncodingPCM48, SampleRate: 48000, Channels: 1}
	}
}

func (h *Hume) setHeaders(req *http.Request) {
	req.Header.Set("X-Hume-Api-Key", h.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
}

// doWithRetry performs the request with retry logic.
func (h *Hume) doWithRetry(ctx context.Context, url string, body []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= h.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(h.config.RetryDelay * time.Duration(attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
		if err != nil {
			return nil, WrapError(providerHume, fmt.Errorf("create request: %w", err))
		}
		h.setHeaders(req)

		resp, err := h.client.Do(req)
		if err != nil {
			lastErr = WrapError(providerHume, err)
			continue
		}

		if resp.StatusCode == 429 || resp.StatusCode >= 500 {
			lastErr = h.parseError(resp)
			h.logger.Warn("retrying request",
				"attempt", attempt+1,
				"status", resp.StatusCode,
			)
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

// parseError reads and parses an error response.
func (h *Hume) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	var errResp struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}

	message := string(body)
	code := ""
	if json.Unmarshal(body, &errResp) == nil && errResp.Message != "" {
		message = errResp.Message
		code = errResp.Code
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Code:       code,
		Provider:   providerHume,
	}
}

// snippetScanner splits line-delimited JSON. Snippets carry base64
// audio and can exceed bufio's default line limit.
func newSnippetScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return sc
}

// humeStream decodes streamed JSON snippets into audio chunks.
type humeStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	format  AudioFormat
	closed  bool
}

// Read returns the next audio chunk, or (nil, nil) at end of stream.
func (s *humeStream) Read() ([]byte, error) {
	if s.closed {
		return nil, ErrStreamClosed
	}

	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var snippet struct {
			Audio string `json:"audio"`
		}
		if err := json.Unmarshal(line, &snippet); err != nil {
			return nil, WrapError(providerHume, fmt.Errorf("decode snippet: %w", err))
		}
		if snippet.Audio == "" {
			continue
		}

		chunk, err := base64.StdEncoding.DecodeString(snippet.Audio)
		if err != nil {
			return nil, WrapError(providerHume, fmt.Errorf("decode audio: %w", err))
		}
		return chunk, nil
	}

	if err := s.scanner.Err(); err != nil {
		return nil, WrapError(providerHume, fmt.Errorf("read stream: %w", err))
	}
	return nil, nil
}

// Close releases resources.
func (s *humeStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}

// Format returns the audio format.
func (s *humeStream) Format() AudioFormat {
	return s.format
}

// Verify Hume implements Provider at compile time.
var _ Provider = (*Hume)(nil)
