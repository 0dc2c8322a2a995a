package skyvault

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/skyvault/skyvault-go/engine"
	"github.com/skyvault/skyvault-go/internal/bridge"
)

// Login authenticates the session with the engine.
func (c *Client) Login(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return fmt.Errorf("%w: missing credentials", ErrInvalidArgument)
	}

	w := bridge.NewRequestWaiter(c.logger)
	c.eng.Login(email, password, w)

	if _, err := w.Await(ctx); err != nil {
		return fmt.Errorf("skyvault: login: %w", err)
	}

	c.logger.Debug("logged in", slog.String("email", email))

	return nil
}

// Logout ends the session. Node lookups fail until the next login and fetch.
func (c *Client) Logout(ctx context.Context) error {
	w := bridge.NewRequestWaiter(c.logger)
	c.eng.Logout(w)

	if _, err := w.Await(ctx); err != nil {
		return fmt.Errorf("skyvault: logout: %w", err)
	}

	return nil
}

// FetchNodes downloads the filesystem snapshot. Node operations call it on
// demand, so explicit use is only needed to warm up ahead of time or to
// refresh after a logout. Concurrent calls share one engine request.
func (c *Client) FetchNodes(ctx context.Context) error {
	_, err, _ := c.fetch.Do("fetch-nodes", func() (any, error) {
		w := bridge.NewRequestWaiter(c.logger)
		c.eng.FetchNodes(w)

		_, err := w.Await(ctx)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("skyvault: fetching nodes: %w", err)
	}

	return nil
}

// ensureFilesystem fetches the node tree on first use.
func (c *Client) ensureFilesystem(ctx context.Context) error {
	if c.eng.FilesystemReady() {
		return nil
	}

	return c.FetchNodes(ctx)
}

// AccountDetails reports account identity and quota usage.
func (c *Client) AccountDetails(ctx context.Context) (*engine.AccountDetails, error) {
	w := bridge.NewRequestWaiter(c.logger)
	c.eng.AccountDetails(w)

	info, err := w.Await(ctx)
	if err != nil {
		return nil, fmt.Errorf("skyvault: account details: %w", err)
	}

	if info.Account == nil {
		return &engine.AccountDetails{}, nil
	}

	return info.Account, nil
}

// BlockStatus is the outcome of WhyBlocked.
type BlockStatus struct {
	Blocked bool
	Reason  string
}

// WhyBlocked asks the engine whether the account is blocked and why.
func (c *Client) WhyBlocked(ctx context.Context) (*BlockStatus, error) {
	w := bridge.NewRequestWaiter(c.logger)
	c.eng.WhyBlocked(w)

	info, err := w.Await(ctx)
	if err != nil {
		return nil, fmt.Errorf("skyvault: why blocked: %w", err)
	}

	return &BlockStatus{Blocked: info.Flag, Reason: info.Text}, nil
}

// RetryConnections asks the engine to retry its backend connections.
// disconnect forces existing connections closed first; includeTransfers also
// restarts transfer connections.
func (c *Client) RetryConnections(ctx context.Context, disconnect, includeTransfers bool) error {
	w := bridge.NewRequestWaiter(c.logger)
	c.eng.RetryConnections(disconnect, includeTransfers, w)

	if _, err := w.Await(ctx); err != nil {
		return fmt.Errorf("skyvault: retry connections: %w", err)
	}

	return nil
}
