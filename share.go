package skyvault

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/skyvault/skyvault-go/engine"
	"github.com/skyvault/skyvault-go/internal/bridge"
)

// neverExpires is the expiry timestamp for links without one.
const neverExpires = int64(math.MaxInt64)

// ExportOption configures an Export call.
type ExportOption func(*exportOpts)

type exportOpts struct {
	expireAt int64
	writable bool
	hosted   bool
}

// WithExpiry sets the time at which the public link stops working. Links
// never expire by default.
func WithExpiry(t time.Time) ExportOption {
	return func(o *exportOpts) { o.expireAt = t.Unix() }
}

// WithWritable makes the public link writable.
func WithWritable() ExportOption {
	return func(o *exportOpts) { o.writable = true }
}

// WithoutHosting disables serving the content from the provider's hosted
// viewer, leaving a raw link.
func WithoutHosting() ExportOption {
	return func(o *exportOpts) { o.hosted = false }
}

// Export creates a public link for a node.
func (c *Client) Export(ctx context.Context, ref NodeRef, opts ...ExportOption) (string, error) {
	o := exportOpts{expireAt: neverExpires, hosted: true}
	for _, opt := range opts {
		opt(&o)
	}

	n, err := c.resolve(ctx, ref)
	if err != nil {
		return "", err
	}

	w := bridge.NewRequestWaiter(c.logger)
	c.eng.Export(n, o.expireAt, o.writable, o.hosted, w)

	info, err := w.Await(ctx)
	if err != nil {
		return "", fmt.Errorf("skyvault: exporting %s: %w", ref, err)
	}

	return info.Link, nil
}

// Share grants email the given access level on a folder.
func (c *Client) Share(ctx context.Context, ref NodeRef, email string, level engine.AccessLevel) error {
	if email == "" {
		return fmt.Errorf("%w: missing email", ErrInvalidArgument)
	}

	n, err := c.resolve(ctx, ref)
	if err != nil {
		return err
	}

	w := bridge.NewRequestWaiter(c.logger)
	c.eng.Share(n, email, level, w)

	if _, err := w.Await(ctx); err != nil {
		return fmt.Errorf("skyvault: sharing %s with %s: %w", ref, email, err)
	}

	return nil
}

// PublicNode resolves a public link created by Export and returns the node
// behind it.
func (c *Client) PublicNode(ctx context.Context, link string) (*engine.NodeInfo, error) {
	if link == "" {
		return nil, fmt.Errorf("%w: empty link", ErrInvalidArgument)
	}

	w := bridge.NewRequestWaiter(c.logger)
	c.eng.PublicNode(link, w)

	info, err := w.Await(ctx)
	if err != nil {
		return nil, fmt.Errorf("skyvault: resolving public link: %w", err)
	}

	if info.PublicNode == nil {
		return nil, &NodeNotFoundError{Ref: link}
	}

	return info.PublicNode, nil
}
