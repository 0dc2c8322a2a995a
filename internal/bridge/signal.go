// Package bridge converts storage engine listener callbacks into values
// ordinary Go code can wait on. Engines invoke callbacks from goroutines the
// caller does not control, and callback arguments are valid only for the
// duration of the call, so every waiter here follows the same discipline:
// snapshot under a mutex, hand off through channels, set a one-shot
// completion signal last. Each waiter serves exactly one operation.
package bridge

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// Signal is a one-shot completion flag, settable from any goroutine and
// waitable by any number of others. Set is idempotent; waiters observe the
// first call. The zero value is not usable; construct with NewSignal.
type Signal struct {
	once sync.Once
	ch   chan struct{}
}

// NewSignal returns an unset signal.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{})}
}

// Set marks the signal. Safe to call from any goroutine, any number of times.
func (s *Signal) Set() {
	s.once.Do(func() { close(s.ch) })
}

// IsSet reports whether Set has been called at least once.
func (s *Signal) IsSet() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}

// Done returns a channel that is closed once the signal is set, for use in
// select statements.
func (s *Signal) Done() <-chan struct{} {
	return s.ch
}

// Wait blocks until the signal is set or ctx is done. The signal itself
// cannot be canceled; ctx abandons the wait only. An already-set signal
// returns nil even when ctx is also done.
func (s *Signal) Wait(ctx context.Context) error {
	select {
	case <-s.ch:
		return nil
	default:
	}

	select {
	case <-s.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ensureLogger substitutes a discarding logger for nil so waiters can log
// unconditionally.
func ensureLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return logger
}
