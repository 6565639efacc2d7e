package registry

import (
	"context"

	"github.com/zjrosen/entityreg/internal/domain/persistence"
)

// Reader defines read access to a registry of managers and connections.
// This interface is what extensions receive and allows test doubles to be
// substituted for the concrete Registry.
type Reader interface {
	// Manager returns the manager registered under name, building it on first use.
	// An empty name selects the default manager.
	Manager(ctx context.Context, name string) (persistence.Manager, error)

	// Connection returns the connection of the manager registered under name.
	// An empty name selects the default connection.
	Connection(ctx context.Context, name string) (persistence.Connection, error)

	// ManagerForClass returns the first manager whose chain claims className.
	ManagerForClass(ctx context.Context, className string) (persistence.Manager, error)

	// ManagerNames returns every manager name in declaration order.
	ManagerNames() []string

	// ConnectionNames returns every connection name in declaration order.
	ConnectionNames() []string

	// DefaultManagerName returns the name used when none is given.
	DefaultManagerName() string

	// DefaultConnectionName returns the connection name used when none is given.
	DefaultConnectionName() string
}

// Observer is notified around every manager construction.
// BuildStarted returns the context passed to the factory and a function
// that must be called with the construction result.
type Observer interface {
	BuildStarted(ctx context.Context, name string) (context.Context, func(err error))
}

type noopObserver struct{}

func (noopObserver) BuildStarted(ctx context.Context, _ string) (context.Context, func(error)) {
	return ctx, func(error) {}
}

// Compile-time check that Registry implements Reader.
var _ Reader = (*Registry)(nil)
