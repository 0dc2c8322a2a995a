package skyvault

import (
	"errors"
	"fmt"
)

// Sentinel errors for classification with errors.Is.
var (
	// ErrInvalidArgument reports client-side misuse caught before any
	// engine call, such as an empty folder name or a negative offset.
	ErrInvalidArgument = errors.New("skyvault: invalid argument")

	// ErrNotFound is wrapped by NodeNotFoundError.
	ErrNotFound = errors.New("skyvault: node not found")
)

// NodeNotFoundError reports that a node reference did not resolve, carrying
// the reference for debugging. It wraps ErrNotFound for errors.Is.
type NodeNotFoundError struct {
	Ref string
}

func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("skyvault: node not found: %s", e.Ref)
}

func (e *NodeNotFoundError) Unwrap() error {
	return ErrNotFound
}
