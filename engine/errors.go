package engine

import "fmt"

// RequestError is returned when an engine reports a non-OK terminal status
// for a request operation. Code and Message are the engine's own values,
// passed through unmodified. Check with errors.As:
//
//	var reqErr *engine.RequestError
//	if errors.As(err, &reqErr) { ... }
type RequestError struct {
	Type    RequestType
	Code    int
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("engine: %s request failed: %s (code %d)", e.Type, e.Message, e.Code)
}

// TransferError is the transfer analog of RequestError. For streaming
// transfers it surfaces only after the consumer has drained every byte the
// engine delivered before failing.
type TransferError struct {
	Code    int
	Message string
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("engine: transfer failed: %s (code %d)", e.Message, e.Code)
}
