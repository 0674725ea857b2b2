package warpclient

import (
	"context"
	"sync"
)

// Signal is a one-shot, re-settable event: goroutines can wait on it, and
// Set wakes every current and future waiter until the next Clear. It
// stands in for the asyncio Event this client's suspension points were
// originally specified against (linked/synced/connected/authenticated).
type Signal struct {
	mu  sync.Mutex
	ch  chan struct{}
	set bool
}

// NewSignal returns an unset Signal.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{})}
}

// Set marks the signal as set, releasing any current or future Wait call
// until the next Clear. Idempotent.
func (s *Signal) Set() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		s.set = true
		close(s.ch)
	}
}

// Clear resets the signal to unset.
func (s *Signal) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set {
		s.set = false
		s.ch = make(chan struct{})
	}
}

// IsSet reports whether the signal is currently set.
func (s *Signal) IsSet() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set
}

// Wait blocks until the signal is set or ctx is done, whichever comes
// first.
func (s *Signal) Wait(ctx context.Context) error {
	s.mu.Lock()
	ch := s.ch
	s.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
