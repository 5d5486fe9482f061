package rpc

import (
	"errors"
	"fmt"
)

// Standard errors returned by the transport and the pending table.
var (
	// ErrClosed indicates the transport has been closed or is broken.
	ErrClosed = errors.New("engine transport closed")

	// ErrEngineExited indicates the engine closed its output stream.
	ErrEngineExited = errors.New("engine output closed")

	// ErrUnexpectedResponse indicates a response id with no pending request.
	ErrUnexpectedResponse = errors.New("unexpected response id")

	// ErrDuplicateID indicates an id was registered twice.
	ErrDuplicateID = errors.New("request id already pending")
)

// TransportError wraps an I/O failure on the engine streams.
// It is fatal for the engine connection.
type TransportError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("engine transport %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err ends the engine session.
func IsFatal(err error) bool {
	var te *TransportError
	return errors.As(err, &te) || errors.Is(err, ErrClosed) || errors.Is(err, ErrEngineExited)
}

// RPCError is the error object of an engine response.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`

	// Raw holds the error value verbatim when it is not an object.
	Raw string `json:"-"`
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	if e.Raw != "" {
		return "engine error: " + e.Raw
	}
	if e.Data != nil {
		return fmt.Sprintf("engine error %d: %s (data: %v)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("engine error %d: %s", e.Code, e.Message)
}
