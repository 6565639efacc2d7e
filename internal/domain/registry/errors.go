package registry

import (
	"errors"
	"fmt"
)

// Registry errors
var (
	ErrNoManagers     = errors.New("at least one manager must be declared")
	ErrEmptyName      = errors.New("manager name cannot be empty")
	ErrDuplicateName  = errors.New("duplicate manager name")
	ErrNilFactory     = errors.New("manager factory cannot be nil")
	ErrNilManager     = errors.New("factory returned a nil manager")
	ErrNilConnection  = errors.New("manager returned a nil connection")
	ErrNotRegistered  = errors.New("name is not registered")
	ErrNoClaimingLink = errors.New("no manager claims class")
)

// UnknownManagerError is returned when a manager name is not registered.
type UnknownManagerError struct {
	Name string
}

func (e *UnknownManagerError) Error() string {
	return fmt.Sprintf("unknown manager %q", e.Name)
}

// Unwrap allows errors.Is(err, ErrNotRegistered).
func (e *UnknownManagerError) Unwrap() error { return ErrNotRegistered }

// UnknownConnectionError is returned when a connection name is not registered.
type UnknownConnectionError struct {
	Name string
}

func (e *UnknownConnectionError) Error() string {
	return fmt.Sprintf("unknown connection %q", e.Name)
}

// Unwrap allows errors.Is(err, ErrNotRegistered).
func (e *UnknownConnectionError) Unwrap() error { return ErrNotRegistered }

// NoManagerForClassError is returned when no manager's chain claims a class.
// BuildErrs holds the failures of managers that could not be built while
// searching; one of them may have claimed the class.
type NoManagerForClassError struct {
	Class     string
	BuildErrs []error
}

func (e *NoManagerForClassError) Error() string {
	msg := fmt.Sprintf("%s %q", ErrNoClaimingLink, e.Class)
	if len(e.BuildErrs) == 0 {
		return msg
	}
	return fmt.Sprintf("%s (%d managers failed to build: %v)", msg, len(e.BuildErrs), errors.Join(e.BuildErrs...))
}

// Unwrap exposes ErrNoClaimingLink and every build failure to errors.Is and errors.As.
func (e *NoManagerForClassError) Unwrap() []error {
	return append([]error{ErrNoClaimingLink}, e.BuildErrs...)
}

// DefaultManagerError is returned at construction when the configured
// default manager or connection is not among the declared names.
type DefaultManagerError struct {
	Kind string // "manager" or "connection"
	Name string
}

func (e *DefaultManagerError) Error() string {
	return fmt.Sprintf("default %s %q is not a declared manager", e.Kind, e.Name)
}

// ManagerBuildError attributes an engine failure to the requested manager name.
type ManagerBuildError struct {
	Name string
	Err  error
}

func (e *ManagerBuildError) Error() string {
	return fmt.Sprintf("build manager %s: %v", e.Name, e.Err)
}

func (e *ManagerBuildError) Unwrap() error { return e.Err }

// ConnectionError attributes a connection failure to the requested name.
type ConnectionError struct {
	Name string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("open connection %s: %v", e.Name, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }
