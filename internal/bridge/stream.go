package bridge

import (
	"io"
	"log/slog"
	"sync"

	"github.com/skyvault/skyvault-go/engine"
)

// StreamWaiter bridges a streaming transfer: the engine pushes chunks from
// its own goroutine and the consumer pulls them through the read end of an
// io.Pipe. The pipe is the bounded conduit: a write returns only once the
// consumer has taken every byte, so backpressure lands on the engine's
// producing goroutine and never on the consumer.
//
// Progress delivery and Await are inherited from TransferWaiter.
type StreamWaiter struct {
	*TransferWaiter

	pr *io.PipeReader
	pw *io.PipeWriter

	closeOnce sync.Once
}

// NewStreamWaiter creates a waiter for one streaming transfer and opens its
// conduit.
func NewStreamWaiter(logger *slog.Logger, progress ProgressFunc, async bool) *StreamWaiter {
	pr, pw := io.Pipe()

	return &StreamWaiter{
		TransferWaiter: NewTransferWaiter(logger, progress, async),
		pr:             pr,
		pw:             pw,
	}
}

// OnTransferData writes the chunk to the conduit in full before returning;
// the engine assumes the chunk was accepted once the callback returns, and
// the pipe's copy semantics mean the ephemeral buffer is fully consumed by
// then. A write failure means the consumer closed the read end; returning
// false tells the engine to abort the transfer.
func (w *StreamWaiter) OnTransferData(t engine.Transfer, data []byte) bool {
	if _, err := w.pw.Write(data); err != nil {
		w.logger.Debug("stream consumer gone, aborting transfer",
			slog.String("error", err.Error()),
		)

		return false
	}

	return true
}

// OnTransferFinish closes the conduit's write end exactly once, then performs
// the usual terminal capture and completion signaling. Closing before
// resolving is what lets the consumer observe end-of-stream deterministically
// and why a failed transfer surfaces its error only after already-delivered
// bytes have been drained.
func (w *StreamWaiter) OnTransferFinish(t engine.Transfer, st engine.Status) {
	w.closeWrite()
	w.TransferWaiter.OnTransferFinish(t, st)
}

func (w *StreamWaiter) closeWrite() {
	// PipeWriter.Close always returns nil.
	w.closeOnce.Do(func() { _ = w.pw.Close() })
}

// Reader returns the conduit's read end. The stream is single-pass. Closing
// the reader abandons the stream: the engine's next data delivery fails and
// the transfer aborts.
func (w *StreamWaiter) Reader() *io.PipeReader {
	return w.pr
}
