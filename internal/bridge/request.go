package bridge

import (
	"context"
	"log/slog"
	"sync"

	"github.com/skyvault/skyvault-go/engine"
)

// RequestWaiter bridges a single request operation. It is handed to the
// engine as the request listener and resolves exactly once, when the terminal
// completion callback arrives. Construct a fresh waiter per engine call.
type RequestWaiter struct {
	done   *Signal
	logger *slog.Logger

	mu     sync.Mutex
	req    *engine.RequestInfo
	status engine.Status
}

// NewRequestWaiter creates a waiter ready to pass to a request-issuing engine
// call. A nil logger discards.
func NewRequestWaiter(logger *slog.Logger) *RequestWaiter {
	return &RequestWaiter{
		done:   NewSignal(),
		logger: ensureLogger(logger),
	}
}

// OnRequestStart implements engine.RequestListener.
func (w *RequestWaiter) OnRequestStart(r engine.Request) {
	w.logger.Debug("request started", slog.String("type", r.Type().String()))
}

// OnRequestFinish captures the terminal outcome. The snapshot is taken while
// the callback arguments are still valid and stored strictly before the
// completion signal is set, so an observed signal always implies populated
// result and status slots.
func (w *RequestWaiter) OnRequestFinish(r engine.Request, st engine.Status) {
	w.mu.Lock()
	w.req = engine.SnapshotRequest(r)
	w.status = st
	w.mu.Unlock()

	w.done.Set()
}

// OnRequestTemporaryError logs transient failures and nothing more: the
// engine retries them itself, and only the terminal callback resolves the
// operation.
func (w *RequestWaiter) OnRequestTemporaryError(r engine.Request, st engine.Status) {
	w.logger.Warn("request temporary error",
		slog.String("type", r.Type().String()),
		slog.Int("code", st.Code),
		slog.String("message", st.Message),
	)
}

// Await blocks until the terminal callback has run, then returns the request
// snapshot, or a *engine.RequestError when the engine reported a non-OK
// status. Canceling ctx abandons the wait; the engine operation itself keeps
// running to completion.
func (w *RequestWaiter) Await(ctx context.Context) (*engine.RequestInfo, error) {
	if err := w.done.Wait(ctx); err != nil {
		return nil, err
	}

	w.mu.Lock()
	req, st := w.req, w.status
	w.mu.Unlock()

	if !st.OK() {
		return nil, &engine.RequestError{Type: req.Type, Code: st.Code, Message: st.Message}
	}

	return req, nil
}
