// ABOUTME: Typed operation errors for the routing engine
// ABOUTME: Maps validation, authorization, and storage failures to error events

package relay

import "fmt"

// ValidationError indicates a malformed or incomplete inbound event.
// Its reason is safe to echo back to the client.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// AuthorizationError indicates the session is not allowed to perform the
// operation. Missing records report as authorization failures too, so a
// probe cannot distinguish "not yours" from "not there".
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return e.Reason
}

// StorageError wraps a store failure. The underlying error is logged
// server-side; clients see only a generic message.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// clientMessage resolves an operation error to the text sent in the
// targeted error event. Storage detail never leaves the process.
func clientMessage(err error) string {
	switch e := err.(type) {
	case *ValidationError:
		return e.Reason
	case *AuthorizationError:
		return e.Reason
	case *StorageError:
		return "internal error, please retry"
	default:
		return "internal error, please retry"
	}
}
