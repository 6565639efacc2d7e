package extension

import (
	"errors"
	"fmt"
)

// Lifecycle errors
var (
	ErrNilExtension       = errors.New("extension cannot be nil")
	ErrAlreadyBooted      = errors.New("extensions already booted")
	ErrExtensionNotFound  = errors.New("extension not found")
	ErrDuplicateExtension = errors.New("duplicate extension identifier")
	ErrEmptyIdentifier    = errors.New("extension identifier cannot be empty")
)

// AlreadyBootedError is returned by Boot after the first call and by Register
// once the lifecycle has booted.
type AlreadyBootedError struct {
	RunID string
	Op    string
}

func (e *AlreadyBootedError) Error() string {
	return fmt.Sprintf("%s: %s rejected (boot run %s)", ErrAlreadyBooted, e.Op, e.RunID)
}

// Unwrap allows errors.Is(err, ErrAlreadyBooted).
func (e *AlreadyBootedError) Unwrap() error { return ErrAlreadyBooted }

// ExtensionNotFoundError is returned when a configured identifier does not
// resolve to a constructor.
type ExtensionNotFoundError struct {
	ID string
}

func (e *ExtensionNotFoundError) Error() string {
	return fmt.Sprintf("%s: %q", ErrExtensionNotFound, e.ID)
}

// Unwrap allows errors.Is(err, ErrExtensionNotFound).
func (e *ExtensionNotFoundError) Unwrap() error { return ErrExtensionNotFound }

// HookError attributes a failing Register or Boot hook to its extension.
type HookError struct {
	Phase     string // "register" or "boot"
	Extension string
	Index     int
	Err       error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("%s extension %s (#%d): %v", e.Phase, e.Extension, e.Index, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }
