// Package audio provides the ordered playback queue shared by both speech
// channels, plus PCM conversion helpers.
//
// Audio from the conversational channel and the isolated synthesis channel
// is pushed into the same Queue, so the listener hears a single ordered
// stream regardless of which channel produced it.
package audio

import (
	"encoding/base64"
	"errors"
	"sync"

	"github.com/lumenrobotics/go-aria/internal/log"
)

// ErrQueueClosed is returned when enqueueing after Close.
var ErrQueueClosed = errors.New("audio: queue closed")

// DefaultQueueDepth is the chunk buffer size before Enqueue blocks.
const DefaultQueueDepth = 256

// Sink consumes ordered PCM16 chunks: a local playback device, a network
// pipe, or a test recorder.
type Sink interface {
	Write(chunk []byte) error
	Close() error
}

// Queue serializes audio chunks into one ordered stream feeding a Sink.
// A single pump goroutine owns the sink; producers only enqueue.
type Queue struct {
	// OnPlaybackStart fires when audio begins after idle.
	OnPlaybackStart func()
	// OnPlaybackEnd fires when the queue drains back to idle.
	OnPlaybackEnd func()

	sink Sink
	ch   chan []byte
	quit chan struct{}
	done chan struct{}

	mu        sync.Mutex
	producers sync.WaitGroup
	closed    bool
	speaking  bool
}

// NewQueue starts a playback queue backed by the given sink.
func NewQueue(sink Sink) *Queue {
	q := &Queue{
		sink: sink,
		ch:   make(chan []byte, DefaultQueueDepth),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go q.pump()
	return q
}

// Enqueue appends one chunk to the playback stream.
// Blocks when the buffer is full; returns ErrQueueClosed after Close.
func (q *Queue) Enqueue(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}
	// Registering under the mutex makes the closed check and the
	// WaitGroup add atomic with respect to Close.
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.producers.Add(1)
	q.mu.Unlock()
	defer q.producers.Done()

	select {
	case q.ch <- chunk:
		return nil
	case <-q.quit:
		return ErrQueueClosed
	}
}

// EnqueueBase64 decodes a base64 PCM chunk and enqueues it.
// The conversational channel delivers audio in this form.
func (q *Queue) EnqueueBase64(encoded string) error {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return err
	}
	return q.Enqueue(decoded)
}

// pump is the single consumer: writes chunks to the sink in order and
// tracks speaking state transitions.
func (q *Queue) pump() {
	defer close(q.done)
	for chunk := range q.ch {
		q.setSpeaking(true)
		if err := q.sink.Write(chunk); err != nil {
			log.Error("audio sink write failed", "error", err)
		}
		if len(q.ch) == 0 {
			q.setSpeaking(false)
		}
	}
	if err := q.sink.Close(); err != nil {
		log.Warn("audio sink close failed", "error", err)
	}
}

func (q *Queue) setSpeaking(on bool) {
	q.mu.Lock()
	changed := q.speaking != on
	q.speaking = on
	q.mu.Unlock()
	if !changed {
		return
	}
	if on && q.OnPlaybackStart != nil {
		q.OnPlaybackStart()
	}
	if !on && q.OnPlaybackEnd != nil {
		q.OnPlaybackEnd()
	}
}

// IsSpeaking reports whether audio is currently being consumed.
func (q *Queue) IsSpeaking() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.speaking
}

// Close stops accepting chunks, lets the consumer drain everything already
// enqueued, and waits for the sink to finish. Safe to call more than once.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return nil
	}
	q.closed = true
	q.mu.Unlock()

	// Release producers parked on a full buffer, then wait for every
	// in-flight Enqueue to return before closing the channel they send on.
	close(q.quit)
	q.producers.Wait()

	close(q.ch)
	<-q.done
	return nil
}
