package linecache

import (
	"errors"
	"fmt"
)

// Errors reported for malformed update batches.
var (
	ErrUnknownOpcode = errors.New("unknown opcode")
	ErrMissingCount  = errors.New("missing op count")
	ErrBadCount      = errors.New("op count out of range")
	ErrShortPayload  = errors.New("op carries fewer lines than its count")
	ErrLongPayload   = errors.New("op carries more lines than its count")
	ErrTooLong       = errors.New("update exceeds the line limit")
	ErrPastEnd       = errors.New("op reads past the end of the old cache")
	ErrMalformedOp   = errors.New("malformed op")
)

// OpError reports which op of a batch was rejected. Index is -1 when the
// batch could not be decoded at all.
type OpError struct {
	Index int
	Code  Opcode
	Err   error
}

// Error implements the error interface.
func (e *OpError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("update ops: %v", e.Err)
	}
	return fmt.Sprintf("update op %d (%s): %v", e.Index, e.Code, e.Err)
}

// Unwrap returns the underlying error.
func (e *OpError) Unwrap() error {
	return e.Err
}
