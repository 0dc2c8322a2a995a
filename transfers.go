package skyvault

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/text/unicode/norm"

	"github.com/skyvault/skyvault-go/engine"
	"github.com/skyvault/skyvault-go/internal/bridge"
)

// Progress is a point-in-time view of a transfer.
type Progress struct {
	Transferred int64
	Total       int64
	Speed       int64
}

// ProgressFunc receives progress updates during a transfer.
type ProgressFunc func(Progress)

// TransferOption configures a single Upload, Download or OpenStream call.
type TransferOption func(*transferOpts)

type transferOpts struct {
	progress   ProgressFunc
	async      bool
	remoteName string
	chunkSize  int
}

// WithProgress delivers progress updates one at a time, in order, all before
// the operation returns. The callback may block; updates queue behind it.
func WithProgress(fn ProgressFunc) TransferOption {
	return func(o *transferOpts) {
		o.progress = fn
		o.async = false
	}
}

// WithAsyncProgress delivers each progress update on its own goroutine.
// Updates are launched in order but may run concurrently, and a slow
// callback never delays the transfer's completion.
func WithAsyncProgress(fn ProgressFunc) TransferOption {
	return func(o *transferOpts) {
		o.progress = fn
		o.async = true
	}
}

// WithRemoteName overrides the remote name of an upload. The default is the
// base name of the local file.
func WithRemoteName(name string) TransferOption {
	return func(o *transferOpts) { o.remoteName = name }
}

// WithChunkSize sets the maximum size of the chunks a stream's Next yields.
// The default is DefaultChunkSize.
func WithChunkSize(n int) TransferOption {
	return func(o *transferOpts) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

func applyTransferOptions(opts []TransferOption) transferOpts {
	var o transferOpts
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// bridgeProgress adapts the public progress callback to the bridge's
// snapshot-based one.
func (o transferOpts) bridgeProgress() bridge.ProgressFunc {
	if o.progress == nil {
		return nil
	}

	fn := o.progress

	return func(ti engine.TransferInfo) {
		fn(Progress{Transferred: ti.Transferred, Total: ti.Size, Speed: ti.Speed})
	}
}

// Upload stores a local file under parent and returns the new node. The zero
// parent means the root folder; the remote name defaults to the local base
// name. An existing file with the same name is replaced.
func (c *Client) Upload(ctx context.Context, localPath string, parent NodeRef, opts ...TransferOption) (*engine.NodeInfo, error) {
	o := applyTransferOptions(opts)

	fi, err := os.Stat(localPath)
	if err != nil {
		return nil, fmt.Errorf("skyvault: upload: %w", err)
	}

	if fi.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidArgument, localPath)
	}

	p, err := c.resolveParent(ctx, parent)
	if err != nil {
		return nil, err
	}

	name := o.remoteName
	if name == "" {
		name = filepath.Base(localPath)
	}
	name = norm.NFC.String(name)

	w := bridge.NewTransferWaiter(c.logger, o.bridgeProgress(), o.async)
	c.eng.Upload(localPath, p, name, w)

	info, err := w.Await(ctx)
	if err != nil {
		return nil, fmt.Errorf("skyvault: uploading %s: %w", localPath, err)
	}

	return c.nodeInfo(info.NodeHandle), nil
}

// Download writes a file node's content to localPath.
func (c *Client) Download(ctx context.Context, ref NodeRef, localPath string, opts ...TransferOption) error {
	o := applyTransferOptions(opts)

	n, err := c.resolve(ctx, ref)
	if err != nil {
		return err
	}

	if n.IsFolder() {
		return fmt.Errorf("%w: %s is a folder", ErrInvalidArgument, ref)
	}

	w := bridge.NewTransferWaiter(c.logger, o.bridgeProgress(), o.async)
	c.eng.Download(n, localPath, w)

	if _, err := w.Await(ctx); err != nil {
		return fmt.Errorf("skyvault: downloading %s: %w", ref, err)
	}

	return nil
}
