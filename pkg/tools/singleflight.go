package tools

import (
	"context"
	"sync"
)

// Backend is the specialist delegation surface the registry dispatches to.
// Implemented by agents.Manager; mocked in tests.
type Backend interface {
	Run(ctx context.Context, query, extraContext string) (string, error)
	AnalysisTask(ctx context.Context, topic, analysisType string) (string, error)
	ComparisonTask(ctx context.Context, item1, item2, criteria string) (string, error)
}

// BackendFactory constructs the specialist backend. Expensive; called at
// most once per attempt by the single-flight guard.
type BackendFactory func() (Backend, error)

// flight is one in-progress construction attempt. Outcome fields are
// written before done is closed, so waiters read them safely after <-done.
type flight struct {
	done    chan struct{}
	backend Backend
	err     error
}

// lazyBackend guards lazy construction of the specialist backend.
// Invariants: at most one construction attempt in flight; all concurrent
// callers observe the same instance or the same failure; a failed attempt
// is never cached — the next call retries.
type lazyBackend struct {
	mu      sync.Mutex
	factory BackendFactory
	backend Backend // set once on first successful construction
	current *flight
}

func (l *lazyBackend) get(ctx context.Context) (Backend, error) {
	l.mu.Lock()
	if l.backend != nil {
		b := l.backend
		l.mu.Unlock()
		return b, nil
	}
	if f := l.current; f != nil {
		l.mu.Unlock()
		select {
		case <-f.done:
			return f.backend, f.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f := &flight{done: make(chan struct{})}
	l.current = f
	l.mu.Unlock()

	b, err := l.factory()

	l.mu.Lock()
	if err == nil {
		l.backend = b
	}
	l.current = nil
	l.mu.Unlock()

	f.backend, f.err = b, err
	close(f.done)
	return b, err
}
