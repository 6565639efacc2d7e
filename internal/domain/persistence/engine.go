package persistence

import "context"

// Connection is a live handle to a single backing data store.
// A Connection is owned by exactly one Manager and never shared across manager names.
type Connection interface {
	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases the handle.
	Close() error
}

// Configuration exposes the mutable parts of a manager's setup that this
// module is allowed to touch.
type Configuration interface {
	// DiscoveryStrategy returns the currently installed mapping driver.
	// It may be nil when the engine has no default discovery.
	DiscoveryStrategy() MappingDriver

	// SetDiscoveryStrategy replaces the installed mapping driver.
	SetDiscoveryStrategy(driver MappingDriver)
}

// Manager is a constructed persistence manager for one descriptor.
type Manager interface {
	// Name returns the logical name the manager was built for.
	Name() string

	// Connection returns the manager's connection handle, opening it lazily
	// if the engine defers that work.
	Connection() (Connection, error)

	// Configuration returns the manager's configuration.
	Configuration() Configuration

	// Close releases the manager and its connection.
	Close() error
}

// Builder constructs managers. It is the engine's buildManager(settings) operation.
type Builder interface {
	BuildManager(ctx context.Context, name string, settings Settings) (Manager, error)
}

// BuilderFunc adapts a function to the Builder interface.
type BuilderFunc func(ctx context.Context, name string, settings Settings) (Manager, error)

// BuildManager calls f(ctx, name, settings).
func (f BuilderFunc) BuildManager(ctx context.Context, name string, settings Settings) (Manager, error) {
	return f(ctx, name, settings)
}

// MetadataCompiler is implemented by managers that can persist the metadata
// their installed MappingDriver describes (for example into a metadata table).
type MetadataCompiler interface {
	CompileMetadata(ctx context.Context) (int, error)
}
