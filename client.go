package skyvault

import (
	"io"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/skyvault/skyvault-go/engine"
)

// Client is a blocking facade over a callback-driven engine session. All
// methods are safe for concurrent use; overlapping operations run
// independently on the engine's goroutines.
type Client struct {
	eng    engine.Engine
	logger *slog.Logger

	// fetch collapses concurrent first-use filesystem fetches into one
	// engine request.
	fetch singleflight.Group
}

// New wraps an already-constructed engine. A nil logger discards logs.
func New(eng engine.Engine, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{eng: eng, logger: logger}
}

// Open creates a client for a registered engine provider. The provider must
// have been registered, typically by importing its package for side effects.
func Open(provider, dsn string, logger *slog.Logger) (*Client, error) {
	eng, err := engine.Open(provider, dsn)
	if err != nil {
		return nil, err
	}

	return New(eng, logger), nil
}

// Close releases the underlying engine if it supports closing. Operations
// must not be in flight.
func (c *Client) Close() error {
	if closer, ok := c.eng.(io.Closer); ok {
		return closer.Close()
	}

	return nil
}
