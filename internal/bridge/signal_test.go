package bridge

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// testLogger returns a debug-level logger that writes to t.Log,
// so all activity appears in CI output.
func testLogger(t *testing.T) *slog.Logger {
	t.Helper()

	return slog.New(slog.NewTextHandler(&testLogWriter{t: t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// testLogWriter adapts testing.T to io.Writer for slog.
type testLogWriter struct {
	t *testing.T
}

func (w *testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))

	return len(p), nil
}

func TestSignal_SetBeforeWait(t *testing.T) {
	t.Parallel()

	s := NewSignal()
	s.Set()

	if !s.IsSet() {
		t.Error("IsSet() = false after Set()")
	}

	if err := s.Wait(context.Background()); err != nil {
		t.Errorf("Wait() = %v, want nil", err)
	}
}

func TestSignal_WaitBlocksUntilSet(t *testing.T) {
	t.Parallel()

	s := NewSignal()

	if s.IsSet() {
		t.Fatal("IsSet() = true before Set()")
	}

	waited := make(chan error, 1)

	go func() {
		waited <- s.Wait(context.Background())
	}()

	// The waiter must still be blocked with the signal unset.
	select {
	case err := <-waited:
		t.Fatalf("Wait() returned %v before Set()", err)
	case <-time.After(50 * time.Millisecond):
	}

	s.Set()

	select {
	case err := <-waited:
		if err != nil {
			t.Errorf("Wait() = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not return after Set()")
	}
}

func TestSignal_SetIdempotent(t *testing.T) {
	t.Parallel()

	s := NewSignal()
	s.Set()
	s.Set()
	s.Set()

	if !s.IsSet() {
		t.Error("IsSet() = false after repeated Set()")
	}

	// Every subsequent wait resolves immediately.
	for range 3 {
		if err := s.Wait(context.Background()); err != nil {
			t.Errorf("Wait() = %v, want nil", err)
		}
	}
}

func TestSignal_ConcurrentSet(t *testing.T) {
	t.Parallel()

	s := NewSignal()

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)

		go func() {
			defer wg.Done()
			s.Set()
		}()
	}

	wg.Wait()

	if err := s.Wait(context.Background()); err != nil {
		t.Errorf("Wait() = %v, want nil", err)
	}
}

func TestSignal_WaitContextCanceled(t *testing.T) {
	t.Parallel()

	s := NewSignal()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Wait(ctx); err != context.Canceled {
		t.Errorf("Wait() = %v, want context.Canceled", err)
	}

	// Abandoning the wait does not set the signal.
	if s.IsSet() {
		t.Error("IsSet() = true after canceled Wait()")
	}
}

func TestSignal_SetWinsOverDoneContext(t *testing.T) {
	t.Parallel()

	s := NewSignal()
	s.Set()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// An already-set signal resolves even when ctx is also done.
	if err := s.Wait(ctx); err != nil {
		t.Errorf("Wait() = %v, want nil for set signal", err)
	}
}

func TestSignal_DoneSelect(t *testing.T) {
	t.Parallel()

	s := NewSignal()

	select {
	case <-s.Done():
		t.Fatal("Done() closed before Set()")
	default:
	}

	s.Set()

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done() not closed after Set()")
	}
}
