package bridge

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/skyvault/skyvault-go/engine"
)

func TestStreamWaiter_RoundTrip(t *testing.T) {
	t.Parallel()

	const (
		totalSize = 5_000_000
		chunkSize = 2_097_152
	)

	payload := make([]byte, totalSize)
	for i := range payload {
		payload[i] = byte(i % 251)
	}

	w := NewStreamWaiter(testLogger(t), nil, false)

	go func() {
		tr := fakeTransfer{typ: engine.TransferDownload, name: "video.bin", size: totalSize, streaming: true}
		w.OnTransferStart(tr)

		for off := 0; off < totalSize; off += chunkSize {
			end := min(off+chunkSize, totalSize)
			if !w.OnTransferData(tr, payload[off:end]) {
				return
			}
		}

		w.OnTransferFinish(tr, engine.Status{Code: engine.StatusOK})
	}()

	var chunks [][]byte

	buf := make([]byte, chunkSize)
	r := w.Reader()

	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			chunks = append(chunks, append([]byte(nil), buf[:n]...))
		}

		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}

		if err != nil {
			t.Fatalf("ReadFull() error = %v", err)
		}
	}

	wantSizes := []int{2_097_152, 2_097_152, 805_696}
	if len(chunks) != len(wantSizes) {
		t.Fatalf("got %d chunks, want %d", len(chunks), len(wantSizes))
	}

	for i, want := range wantSizes {
		if len(chunks[i]) != want {
			t.Errorf("chunk %d size = %d, want %d", i, len(chunks[i]), want)
		}
	}

	if !bytes.Equal(bytes.Join(chunks, nil), payload) {
		t.Error("reassembled stream differs from written payload")
	}

	if _, err := w.Await(awaitCtx(t)); err != nil {
		t.Errorf("Await() error = %v, want nil", err)
	}
}

func TestStreamWaiter_ErrorSurfacesOnlyAfterDrain(t *testing.T) {
	t.Parallel()

	const chunkSize = 2_097_152

	chunk := bytes.Repeat([]byte{0xab}, chunkSize)

	w := NewStreamWaiter(testLogger(t), nil, false)

	go func() {
		tr := fakeTransfer{typ: engine.TransferDownload, name: "denied.bin", size: 5_000_000, streaming: true}
		w.OnTransferStart(tr)

		if !w.OnTransferData(tr, chunk) {
			return
		}

		w.OnTransferFinish(tr, engine.Status{Code: 1, Message: "access denied"})
	}()

	r := w.Reader()
	buf := make([]byte, chunkSize)

	n, err := io.ReadFull(r, buf)
	if err != nil || n != chunkSize {
		t.Fatalf("first chunk read = (%d, %v), want full chunk", n, err)
	}

	if !bytes.Equal(buf, chunk) {
		t.Error("delivered chunk differs from written data")
	}

	// End-of-stream is observed before any error is visible.
	if _, err := r.Read(buf); !errors.Is(err, io.EOF) {
		t.Fatalf("Read() after final chunk = %v, want io.EOF", err)
	}

	_, err = w.Await(awaitCtx(t))

	var trErr *engine.TransferError
	if !errors.As(err, &trErr) {
		t.Fatalf("Await() error = %v (%T), want *engine.TransferError", err, err)
	}

	if trErr.Code != 1 || trErr.Message != "access denied" {
		t.Errorf("error = (%d, %q), want (1, %q)", trErr.Code, trErr.Message, "access denied")
	}
}

func TestStreamWaiter_CloseReaderAbortsProducer(t *testing.T) {
	t.Parallel()

	w := NewStreamWaiter(testLogger(t), nil, false)

	accepted := make(chan bool, 2)

	go func() {
		tr := fakeTransfer{typ: engine.TransferDownload, streaming: true}
		accepted <- w.OnTransferData(tr, []byte("first"))
		accepted <- w.OnTransferData(tr, []byte("second"))
		w.OnTransferFinish(tr, engine.Status{Code: 2, Message: "transfer aborted"})
	}()

	r := w.Reader()

	buf := make([]byte, 5)
	if _, err := io.ReadFull(r, buf); err != nil {
		t.Fatalf("reading first chunk: %v", err)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}

	if got := <-accepted; !got {
		t.Error("first delivery = false, want accepted")
	}

	if got := <-accepted; got {
		t.Error("delivery after reader close = true, want rejected so the engine aborts")
	}

	// The terminal callback still resolves the operation.
	if _, err := w.Await(awaitCtx(t)); err == nil {
		t.Error("Await() = nil, want the abort status error")
	}
}

func TestStreamWaiter_BackpressureBlocksProducer(t *testing.T) {
	t.Parallel()

	w := NewStreamWaiter(testLogger(t), nil, false)

	wrote := make(chan struct{})

	go func() {
		tr := fakeTransfer{typ: engine.TransferDownload, streaming: true}
		w.OnTransferData(tr, []byte("held until the consumer reads"))
		close(wrote)
	}()

	// No consumer yet: the delivery callback must stay blocked.
	select {
	case <-wrote:
		t.Fatal("data callback returned before the consumer read anything")
	case <-time.After(50 * time.Millisecond):
	}

	if _, err := w.Reader().Read(make([]byte, 64)); err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	select {
	case <-wrote:
	case <-time.After(2 * time.Second):
		t.Fatal("data callback still blocked after the consumer read the chunk")
	}
}

func TestStreamWaiter_DuplicateTerminalClosesWriteEndOnce(t *testing.T) {
	t.Parallel()

	w := NewStreamWaiter(testLogger(t), nil, false)
	tr := fakeTransfer{typ: engine.TransferDownload, streaming: true}

	w.OnTransferFinish(tr, engine.Status{Code: engine.StatusOK})
	w.OnTransferFinish(tr, engine.Status{Code: engine.StatusOK})

	if _, err := w.Reader().Read(make([]byte, 1)); !errors.Is(err, io.EOF) {
		t.Errorf("Read() = %v, want io.EOF on closed conduit", err)
	}
}

func TestStreamWaiter_ProgressDelivered(t *testing.T) {
	t.Parallel()

	var got []int64

	w := NewStreamWaiter(testLogger(t), func(ti engine.TransferInfo) {
		got = append(got, ti.Transferred)
	}, false)

	go func() {
		tr := fakeTransfer{typ: engine.TransferDownload, size: 4, streaming: true}
		w.OnTransferStart(tr)

		if !w.OnTransferData(tr, []byte("data")) {
			return
		}

		tr.transferred = 4
		w.OnTransferUpdate(tr)
		w.OnTransferFinish(tr, engine.Status{Code: engine.StatusOK})
	}()

	var sink bytes.Buffer
	if _, err := io.Copy(&sink, w.Reader()); err != nil {
		t.Fatalf("draining stream: %v", err)
	}

	if _, err := w.Await(awaitCtx(t)); err != nil {
		t.Fatalf("Await() error = %v", err)
	}

	if sink.String() != "data" {
		t.Errorf("drained %q, want %q", sink.String(), "data")
	}

	if len(got) != 1 || got[0] != 4 {
		t.Errorf("progress snapshots = %v, want [4]", got)
	}
}
