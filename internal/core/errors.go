package core

import (
	"errors"
	"fmt"
)

var (
	// ErrQuit ends Run without error.
	ErrQuit = errors.New("quit requested")

	// ErrStopped is returned by Post after the loop has ended.
	ErrStopped = errors.New("event loop stopped")

	// ErrNoFilePath means a save was asked for a view with no file.
	ErrNoFilePath = errors.New("view has no file path")

	// ErrNoClipboard means a clipboard result arrived with no clipboard set.
	ErrNoClipboard = errors.New("no clipboard")
)

// OperationError reports a failed front-end operation.
type OperationError struct {
	Op     string // e.g. "new_view", "edit", "save"
	Target string // tab, view or file the operation addressed
	Err    error
}

func (e *OperationError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

func opError(op, target string, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{Op: op, Target: target, Err: err}
}
