package skyvault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/skyvault/skyvault-go/engine"
	"github.com/skyvault/skyvault-go/internal/bridge"
)

// DefaultChunkSize is the chunk size Next yields when none is set with
// WithChunkSize.
const DefaultChunkSize = 2_097_152

// Stream is an in-flight streaming download. It delivers the requested byte
// range in arrival order and applies backpressure to the engine: data is
// produced no faster than it is read. Consume it either as an io.Reader or
// chunk by chunk with Next and Bytes.
//
// A transfer that fails mid-stream still delivers everything received before
// the failure; the final Read then reports the transfer error in place of
// io.EOF. Closing before the end aborts the transfer.
//
// Like sql.Rows, a Stream is bound to the context it was opened with and is
// not safe for concurrent use.
type Stream struct {
	w    *bridge.StreamWaiter
	ctx  context.Context
	ref  string
	info *engine.NodeInfo

	chunkSize int
	buf       []byte
	chunk     []byte
	iterErr   error

	eofSeen   bool
	finalOnce sync.Once
	finalErr  error
}

// OpenStream starts a streaming download of length bytes beginning at
// offset. A negative length means through the end of the file.
func (c *Client) OpenStream(ctx context.Context, ref NodeRef, offset, length int64, opts ...TransferOption) (*Stream, error) {
	o := applyTransferOptions(opts)

	n, err := c.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	if n.IsFolder() {
		return nil, fmt.Errorf("%w: %s is a folder", ErrInvalidArgument, ref)
	}

	if offset < 0 || offset > n.Size() {
		return nil, fmt.Errorf("%w: offset %d out of range for %s", ErrInvalidArgument, offset, ref)
	}

	// Compare against the remainder rather than offset+length, which can
	// overflow for huge lengths.
	if length < 0 || length > n.Size()-offset {
		length = n.Size() - offset
	}

	cs := o.chunkSize
	if cs <= 0 {
		cs = DefaultChunkSize
	}

	w := bridge.NewStreamWaiter(c.logger, o.bridgeProgress(), o.async)
	c.eng.Stream(n, offset, length, w)

	return &Stream{
		w:         w,
		ctx:       ctx,
		ref:       ref.String(),
		info:      engine.SnapshotNode(n),
		chunkSize: cs,
	}, nil
}

// Info returns a snapshot of the streamed node, taken when the stream was
// opened.
func (s *Stream) Info() *engine.NodeInfo { return s.info }

// Read implements io.Reader. At the end of the stream it waits for the
// transfer's terminal status and returns the transfer error if there is one,
// io.EOF otherwise.
func (s *Stream) Read(p []byte) (int, error) {
	n, err := s.w.Reader().Read(p)
	if errors.Is(err, io.EOF) {
		s.eofSeen = true

		if ferr := s.finalize(); ferr != nil {
			return n, ferr
		}
	}

	return n, err
}

// Next advances to the next chunk, which is then available through Bytes.
// It returns false at the end of the stream or on error; Err tells the two
// apart. Chunk boundaries reflect how the data arrived and carry no meaning
// beyond being at most the configured chunk size.
func (s *Stream) Next() bool {
	if s.iterErr != nil {
		return false
	}

	if s.buf == nil {
		s.buf = make([]byte, s.chunkSize)
	}

	for {
		n, err := s.Read(s.buf)
		if n > 0 {
			s.chunk = s.buf[:n]

			if err != nil && !errors.Is(err, io.EOF) {
				s.iterErr = err
			}

			return true
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.iterErr = err
			}

			s.chunk = nil

			return false
		}
	}
}

// Bytes returns the chunk read by the last call to Next. The backing array
// is reused; the slice is valid only until the next call to Next or Read.
func (s *Stream) Bytes() []byte { return s.chunk }

// Err returns the error that ended iteration, or nil if the stream was
// drained to a clean end of file.
func (s *Stream) Err() error { return s.iterErr }

// Close releases the stream, aborting the transfer if it is still running.
// After a complete read to the end it returns the transfer's final error, if
// any; closing early is deliberate abandonment and returns nil.
func (s *Stream) Close() error {
	_ = s.w.Reader().Close()

	err := s.finalize()
	if s.eofSeen {
		return err
	}

	return nil
}

// finalize waits once for the terminal callback and caches the outcome. The
// write end of the conduit is closed before the terminal status is set, so
// by the time a reader sees EOF this wait is short.
func (s *Stream) finalize() error {
	s.finalOnce.Do(func() {
		if _, err := s.w.Await(s.ctx); err != nil {
			s.finalErr = fmt.Errorf("skyvault: streaming %s: %w", s.ref, err)
		}
	})

	return s.finalErr
}
