package skyvault

import (
	"context"
	"fmt"
	stdpath "path"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/skyvault/skyvault-go/engine"
	"github.com/skyvault/skyvault-go/internal/bridge"
)

// NodeRef identifies a remote node by path, by handle, or by a previously
// returned snapshot, without resolving it. The zero value is invalid except
// where a method documents that it means the root folder.
type NodeRef struct {
	path   string
	handle engine.Handle
}

// ByPath references a node by absolute remote path.
func ByPath(path string) NodeRef { return NodeRef{path: path} }

// ByHandle references a node by its engine handle.
func ByHandle(h engine.Handle) NodeRef { return NodeRef{handle: h} }

// ByInfo references the node a snapshot was taken from. A nil snapshot
// yields the invalid zero reference.
func ByInfo(info *engine.NodeInfo) NodeRef {
	if info == nil {
		return NodeRef{}
	}

	return NodeRef{handle: info.Handle}
}

// Root references the root folder.
func Root() NodeRef { return NodeRef{path: "/"} }

func (r NodeRef) String() string {
	if r.handle != 0 {
		return "handle:" + r.handle.String()
	}

	if r.path != "" {
		return r.path
	}

	return "(empty)"
}

func (r NodeRef) isZero() bool { return r.path == "" && r.handle == 0 }

// normalizePath produces the canonical lookup form: NFC-normalized,
// absolute, cleaned.
func normalizePath(p string) string {
	p = norm.NFC.String(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}

	return stdpath.Clean(p)
}

// resolve maps a reference to a live engine node, fetching the filesystem
// first if needed.
func (c *Client) resolve(ctx context.Context, ref NodeRef) (engine.Node, error) {
	if ref.isZero() {
		return nil, fmt.Errorf("%w: empty node reference", ErrInvalidArgument)
	}

	if err := c.ensureFilesystem(ctx); err != nil {
		return nil, err
	}

	var n engine.Node
	if ref.handle != 0 {
		n = c.eng.NodeByHandle(ref.handle)
	} else {
		n = c.eng.NodeByPath(normalizePath(ref.path))
	}

	if n == nil {
		return nil, &NodeNotFoundError{Ref: ref.String()}
	}

	return n, nil
}

// resolveParent is resolve with the zero reference meaning the root folder.
func (c *Client) resolveParent(ctx context.Context, ref NodeRef) (engine.Node, error) {
	if ref.isZero() {
		ref = Root()
	}

	return c.resolve(ctx, ref)
}

// nodeInfo snapshots the node behind h, falling back to a handle-only info
// when the node is no longer in the snapshot.
func (c *Client) nodeInfo(h engine.Handle) *engine.NodeInfo {
	if info := engine.SnapshotNode(c.eng.NodeByHandle(h)); info != nil {
		return info
	}

	return &engine.NodeInfo{Handle: h}
}

// Info resolves a reference and returns a snapshot of the node.
func (c *Client) Info(ctx context.Context, ref NodeRef) (*engine.NodeInfo, error) {
	n, err := c.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	return engine.SnapshotNode(n), nil
}

// CreateFolder creates a folder under parent and returns the new node. The
// zero parent means the root folder.
func (c *Client) CreateFolder(ctx context.Context, name string, parent NodeRef) (*engine.NodeInfo, error) {
	if name == "" || strings.Contains(name, "/") {
		return nil, fmt.Errorf("%w: folder name %q", ErrInvalidArgument, name)
	}

	p, err := c.resolveParent(ctx, parent)
	if err != nil {
		return nil, err
	}

	w := bridge.NewRequestWaiter(c.logger)
	c.eng.CreateFolder(norm.NFC.String(name), p, w)

	info, err := w.Await(ctx)
	if err != nil {
		return nil, fmt.Errorf("skyvault: creating folder %q: %w", name, err)
	}

	return c.nodeInfo(info.NodeHandle), nil
}

// Remove deletes a node and, for folders, its whole subtree.
func (c *Client) Remove(ctx context.Context, ref NodeRef) error {
	n, err := c.resolve(ctx, ref)
	if err != nil {
		return err
	}

	w := bridge.NewRequestWaiter(c.logger)
	c.eng.Remove(n, w)

	if _, err := w.Await(ctx); err != nil {
		return fmt.Errorf("skyvault: removing %s: %w", ref, err)
	}

	return nil
}

// Move reparents a node under newParent, keeping its name. The zero
// newParent means the root folder. Both references are resolved before the
// engine is involved, and the engine's outcome is awaited, so a failed move
// is reported here and not swallowed.
func (c *Client) Move(ctx context.Context, ref, newParent NodeRef) error {
	n, err := c.resolve(ctx, ref)
	if err != nil {
		return err
	}

	p, err := c.resolveParent(ctx, newParent)
	if err != nil {
		return err
	}

	w := bridge.NewRequestWaiter(c.logger)
	c.eng.Move(n, p, w)

	if _, err := w.Await(ctx); err != nil {
		return fmt.Errorf("skyvault: moving %s: %w", ref, err)
	}

	return nil
}

// Copy deep-copies a node under newParent and returns the new node. The
// zero newParent means the root folder.
func (c *Client) Copy(ctx context.Context, ref, newParent NodeRef) (*engine.NodeInfo, error) {
	n, err := c.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	p, err := c.resolveParent(ctx, newParent)
	if err != nil {
		return nil, err
	}

	w := bridge.NewRequestWaiter(c.logger)
	c.eng.Copy(n, p, w)

	info, err := w.Await(ctx)
	if err != nil {
		return nil, fmt.Errorf("skyvault: copying %s: %w", ref, err)
	}

	return c.nodeInfo(info.NodeHandle), nil
}
