package assistant

import (
	"context"

	"github.com/lumenrobotics/go-aria/pkg/audio"
	"github.com/lumenrobotics/go-aria/pkg/tts"
)

// resampledProvider converts a provider's PCM output to the playback
// sample rate. Only meaningful for raw PCM formats.
type resampledProvider struct {
	inner    tts.Provider
	from, to int
}

// upsample wraps p so its PCM audio is resampled from one rate to another.
func upsample(p tts.Provider, from, to int) tts.Provider {
	return &resampledProvider{inner: p, from: from, to: to}
}

func (r *resampledProvider) convert(pcm []byte) []byte {
	samples := audio.ConvertPCM16ToInt16(pcm)
	return audio.ConvertInt16ToPCM16(audio.Resample(samples, r.from, r.to))
}

func (r *resampledProvider) format() tts.AudioFormat {
	enc := tts.EncodingPCM48
	if r.to == 24000 {
		enc = tts.EncodingPCM24
	}
	return tts.AudioFormat{Encoding: enc, SampleRate: r.to}
}

func (r *resampledProvider) Synthesize(ctx context.Context, text string) (*tts.AudioResult, error) {
	result, err := r.inner.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}
	result.Audio = r.convert(result.Audio)
	result.Format = r.format()
	return result, nil
}

func (r *resampledProvider) Stream(ctx context.Context, text string) (tts.AudioStream, error) {
	stream, err := r.inner.Stream(ctx, text)
	if err != nil {
		return nil, err
	}
	return &resampledStream{inner: stream, provider: r}, nil
}

func (r *resampledProvider) Health(ctx context.Context) error {
	return r.inner.Health(ctx)
}

func (r *resampledProvider) Close() error {
	return r.inner.Close()
}

type resampledStream struct {
	inner    tts.AudioStream
	provider *resampledProvider
}

func (s *resampledStream) Read() ([]byte, error) {
	chunk, err := s.inner.Read()
	if err != nil || chunk == nil {
		return chunk, err
	}
	return s.provider.convert(chunk), nil
}

func (s *resampledStream) Close() error {
	return s.inner.Close()
}

func (s *resampledStream) Format() tts.AudioFormat {
	return s.provider.format()
}
