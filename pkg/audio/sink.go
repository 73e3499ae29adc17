package audio

import (
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// WriterSink adapts any io.WriteCloser into a Sink.
type WriterSink struct {
	w io.WriteCloser
}

// NewWriterSink wraps w as a Sink.
func NewWriterSink(w io.WriteCloser) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Write(chunk []byte) error {
	_, err := s.w.Write(chunk)
	return err
}

func (s *WriterSink) Close() error {
	return s.w.Close()
}

// PlaybackSink pipes PCM audio to an external player process on its stdin.
// The process is started lazily on the first Write so construction never
// fails when the player binary is missing at startup.
type PlaybackSink struct {
	name string
	args []string

	mu    sync.Mutex
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// NewPlaybackSink creates a sink that spawns the given player command.
// Typical: NewPlaybackSink("aplay", "-q", "-t", "raw", "-f", "S16_LE", "-r", "48000", "-c", "1").
func NewPlaybackSink(name string, args ...string) *PlaybackSink {
	return &PlaybackSink{name: name, args: args}
}

func (s *PlaybackSink) Write(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stdin == nil {
		cmd := exec.Command(s.name, s.args...)
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return fmt.Errorf("playback: stdin pipe: %w", err)
		}
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("playback: start %s: %w", s.name, err)
		}
		s.cmd = cmd
		s.stdin = stdin
	}

	if _, err := s.stdin.Write(chunk); err != nil {
		return fmt.Errorf("playback: write: %w", err)
	}
	return nil
}

// Close closes the player's stdin and waits for it to drain and exit.
func (s *PlaybackSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stdin == nil {
		return nil
	}
	s.stdin.Close()
	err := s.cmd.Wait()
	s.cmd = nil
	s.stdin = nil
	return err
}
