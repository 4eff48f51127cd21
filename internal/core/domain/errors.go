package domain

import (
	"errors"
	"fmt"
)

// Domain errors.
var (
	// ErrAuth indicates an access token could not be acquired.
	ErrAuth = errors.New("authentication failed")
	// ErrNotConnected indicates no credentials are configured for the requested resource.
	ErrNotConnected = errors.New("not connected")
	// ErrInvalidInput indicates invalid command input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrProtocol indicates a response that does not match the expected shape.
	ErrProtocol = errors.New("malformed response")
	// ErrRemoteOperation indicates the remote service reported a failure.
	ErrRemoteOperation = errors.New("remote operation failed")
	// ErrPollCancelled indicates waiting for an operation was cancelled before it completed.
	// The server-side operation keeps running.
	ErrPollCancelled = errors.New("polling cancelled")
	// ErrPollerBusy indicates a poller already has an operation in progress.
	ErrPollerBusy = errors.New("poller already running")
)

// AuthError wraps a token acquisition failure.
type AuthError struct {
	Resource string
	Err      error
}

func (e *AuthError) Error() string {
	if e.Resource == "" {
		return fmt.Sprintf("%v: %v", ErrAuth, e.Err)
	}
	return fmt.Sprintf("%v for %s: %v", ErrAuth, e.Resource, e.Err)
}

func (e *AuthError) Unwrap() []error {
	return []error{ErrAuth, e.Err}
}

// RemoteOperationError carries the ErrorInfo record returned by a CSOM call.
type RemoteOperationError struct {
	Message       string
	Code          int
	TypeName      string
	CorrelationID string
}

// Error returns the server message unchanged so it can be shown to the user verbatim.
func (e *RemoteOperationError) Error() string {
	return e.Message
}

func (e *RemoteOperationError) Is(target error) bool {
	return target == ErrRemoteOperation
}

// ProtocolError reports a response body that could not be interpreted.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", ErrProtocol, e.Reason, e.Err)
	}
	return fmt.Sprintf("%v: %s", ErrProtocol, e.Reason)
}

func (e *ProtocolError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrProtocol}
	}
	return []error{ErrProtocol, e.Err}
}
