package bridge

import (
	"context"
	"log/slog"
	"sync"

	"github.com/skyvault/skyvault-go/engine"
)

// ProgressFunc receives a snapshot for each progress notification the engine
// raises. Snapshots arrive in emission order.
type ProgressFunc func(engine.TransferInfo)

// TransferWaiter bridges a single transfer operation, adding progress
// delivery to the request-waiter contract. When a progress callback is
// registered, a per-operation dispatcher goroutine delivers events in
// emission order: direct callbacks run on the dispatcher and all complete
// before Await resolves; async callbacks are launched as independent
// goroutines in emission order and never awaited, so a slow or failing
// callback cannot delay or fail the transfer.
type TransferWaiter struct {
	done   *Signal
	logger *slog.Logger

	onProgress ProgressFunc
	async      bool

	mu       sync.Mutex
	queue    []engine.TransferInfo
	finished bool
	transfer *engine.TransferInfo
	status   engine.Status

	notify       chan struct{} // cap 1, kicks the dispatcher
	dispatchDone chan struct{} // closed when the dispatcher has drained and exited
}

// NewTransferWaiter creates a waiter ready to pass to a transfer-issuing
// engine call. progress may be nil; async selects fire-and-forget goroutine
// delivery for callbacks that may block or suspend.
func NewTransferWaiter(logger *slog.Logger, progress ProgressFunc, async bool) *TransferWaiter {
	w := &TransferWaiter{
		done:       NewSignal(),
		logger:     ensureLogger(logger),
		onProgress: progress,
		async:      async,
	}

	if progress != nil {
		w.notify = make(chan struct{}, 1)
		w.dispatchDone = make(chan struct{})

		go w.dispatchLoop()
	}

	return w
}

// OnTransferStart implements engine.TransferListener.
func (w *TransferWaiter) OnTransferStart(t engine.Transfer) {
	w.logger.Debug("transfer started",
		slog.String("type", t.Type().String()),
		slog.String("name", t.Name()),
		slog.Int64("size", t.Size()),
	)
}

// OnTransferUpdate queues a progress snapshot for the dispatcher. The engine
// goroutine pays only the cost of the hand-off. Updates arriving after the
// terminal callback are dropped; the engine is not supposed to emit them.
func (w *TransferWaiter) OnTransferUpdate(t engine.Transfer) {
	if w.onProgress == nil {
		return
	}

	w.mu.Lock()
	if w.finished {
		w.mu.Unlock()
		w.logger.Debug("progress after terminal callback dropped")

		return
	}

	w.queue = append(w.queue, *engine.SnapshotTransfer(t))
	w.mu.Unlock()

	w.signalNew()
}

// OnTransferFinish captures the terminal outcome. With a progress callback
// registered the completion signal is set by the dispatcher, after every
// earlier progress event has been delivered; without one it is set here.
// Duplicate terminal callbacks are ignored.
func (w *TransferWaiter) OnTransferFinish(t engine.Transfer, st engine.Status) {
	w.mu.Lock()
	if w.finished {
		w.mu.Unlock()

		return
	}

	w.finished = true
	w.transfer = engine.SnapshotTransfer(t)
	w.status = st
	w.mu.Unlock()

	if w.onProgress == nil {
		w.done.Set()

		return
	}

	w.signalNew()
}

// OnTransferTemporaryError logs transient failures; they never resolve the
// operation.
func (w *TransferWaiter) OnTransferTemporaryError(t engine.Transfer, st engine.Status) {
	w.logger.Warn("transfer temporary error",
		slog.String("name", t.Name()),
		slog.Int("code", st.Code),
		slog.String("message", st.Message),
	)
}

// OnTransferData implements engine.TransferListener. Plain transfers deliver
// data to their local destination inside the engine, so nothing arrives here;
// accept and continue.
func (w *TransferWaiter) OnTransferData(t engine.Transfer, data []byte) bool {
	return true
}

// signalNew gives the dispatcher a non-blocking kick. The cap-1 channel
// coalesces kicks; the dispatcher drains the whole queue per wake-up.
func (w *TransferWaiter) signalNew() {
	select {
	case w.notify <- struct{}{}:
	default:
	}
}

// dispatchLoop delivers queued progress events in emission order and resolves
// the completion signal once the terminal snapshot is in place and the queue
// is empty. Runs once per waiter, only when a progress callback is
// registered.
func (w *TransferWaiter) dispatchLoop() {
	defer close(w.dispatchDone)

	for range w.notify {
		for {
			w.mu.Lock()
			if len(w.queue) == 0 {
				fin := w.finished
				w.mu.Unlock()

				if fin {
					w.done.Set()

					return
				}

				break
			}

			ev := w.queue[0]
			w.queue = w.queue[1:]
			w.mu.Unlock()

			w.deliver(ev)
		}
	}
}

// deliver invokes the progress callback for one event. Async callbacks are
// launched in emission order and forgotten; direct callbacks run to
// completion on the dispatcher goroutine.
func (w *TransferWaiter) deliver(ev engine.TransferInfo) {
	if w.async {
		go w.safeInvoke(ev)

		return
	}

	w.safeInvoke(ev)
}

// safeInvoke wraps the progress callback with panic recovery so a broken
// callback cannot take down the dispatcher or the process.
func (w *TransferWaiter) safeInvoke(ev engine.TransferInfo) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("panic in progress callback", slog.Any("panic", r))
		}
	}()

	w.onProgress(ev)
}

// Await blocks until the transfer's terminal callback has run and, when a
// progress callback is registered, until every queued progress event has been
// delivered (direct) or launched (async). Non-OK terminal statuses return a
// *engine.TransferError carrying the engine's code and message unmodified.
// Canceling ctx abandons the wait only.
func (w *TransferWaiter) Await(ctx context.Context) (*engine.TransferInfo, error) {
	if err := w.done.Wait(ctx); err != nil {
		return nil, err
	}

	w.mu.Lock()
	tr, st := w.transfer, w.status
	w.mu.Unlock()

	if !st.OK() {
		return nil, &engine.TransferError{Code: st.Code, Message: st.Message}
	}

	return tr, nil
}
