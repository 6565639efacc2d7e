package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/zjrosen/entityreg/internal/domain/persistence"
)

// Factory builds the manager described by d. It is called at most once per
// name for the lifetime of a Registry, unless a previous call failed.
type Factory func(ctx context.Context, d Descriptor) (persistence.Manager, error)

// Option configures a Registry.
type Option func(*Registry)

// WithDefaultManager sets the manager used when no name is given.
// When unset, the first-declared manager is the default.
func WithDefaultManager(name string) Option {
	return func(r *Registry) {
		r.defaultManager = name
	}
}

// WithDefaultConnection sets the connection used when no name is given.
// When unset, it follows the default manager.
func WithDefaultConnection(name string) Option {
	return func(r *Registry) {
		r.defaultConnection = name
	}
}

// WithObserver sets the observer notified around manager construction.
func WithObserver(o Observer) Option {
	return func(r *Registry) {
		if o != nil {
			r.observer = o
		}
	}
}

// Registry is a name-keyed, lazily populated collection of managers and
// their connections.
type Registry struct {
	descriptors       *DescriptorSet
	factory           Factory
	observer          Observer
	defaultManager    string
	defaultConnection string

	mu          sync.RWMutex
	managers    map[string]persistence.Manager
	connections map[string]persistence.Connection
	flights     singleflight.Group
}

// New creates a registry over set. Defaults are validated here, before any
// manager is built.
func New(set *DescriptorSet, factory Factory, opts ...Option) (*Registry, error) {
	if set == nil || set.Len() == 0 {
		return nil, ErrNoManagers
	}
	if factory == nil {
		return nil, ErrNilFactory
	}

	r := &Registry{
		descriptors: set,
		factory:     factory,
		observer:    noopObserver{},
		managers:    make(map[string]persistence.Manager),
		connections: make(map[string]persistence.Connection),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.defaultManager == "" {
		r.defaultManager = set.First()
	}
	if !set.Has(r.defaultManager) {
		return nil, &DefaultManagerError{Kind: "manager", Name: r.defaultManager}
	}
	if r.defaultConnection == "" {
		r.defaultConnection = r.defaultManager
	}
	if !set.Has(r.defaultConnection) {
		return nil, &DefaultManagerError{Kind: "connection", Name: r.defaultConnection}
	}
	return r, nil
}

// Manager returns the manager registered under name, building it on first
// use. An empty name selects the default manager.
func (r *Registry) Manager(ctx context.Context, name string) (persistence.Manager, error) {
	if name == "" {
		name = r.defaultManager
	}
	if !r.descriptors.Has(name) {
		return nil, &UnknownManagerError{Name: name}
	}

	if m, ok := r.built(name); ok {
		return m, nil
	}

	v, err, _ := r.flights.Do("manager:"+name, func() (any, error) {
		// Another flight may have completed between the read above and now.
		if m, ok := r.built(name); ok {
			return m, nil
		}
		return r.build(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	return v.(persistence.Manager), nil
}

func (r *Registry) built(name string) (persistence.Manager, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.managers[name]
	return m, ok
}

func (r *Registry) build(ctx context.Context, name string) (persistence.Manager, error) {
	d, _ := r.descriptors.Get(name)

	buildCtx, done := r.observer.BuildStarted(ctx, name)
	m, err := r.factory(buildCtx, d)
	if err == nil && m == nil {
		err = ErrNilManager
	}
	done(err)
	if err != nil {
		return nil, &ManagerBuildError{Name: name, Err: err}
	}

	r.mu.Lock()
	r.managers[name] = m
	r.mu.Unlock()
	return m, nil
}

// Connection returns the connection owned by the manager registered under
// name. An empty name selects the default connection.
func (r *Registry) Connection(ctx context.Context, name string) (persistence.Connection, error) {
	if name == "" {
		name = r.defaultConnection
	}
	if !r.descriptors.Has(name) {
		return nil, &UnknownConnectionError{Name: name}
	}

	r.mu.RLock()
	conn, ok := r.connections[name]
	r.mu.RUnlock()
	if ok {
		return conn, nil
	}

	v, err, _ := r.flights.Do("connection:"+name, func() (any, error) {
		r.mu.RLock()
		conn, ok := r.connections[name]
		r.mu.RUnlock()
		if ok {
			return conn, nil
		}

		m, err := r.Manager(ctx, name)
		if err != nil {
			return nil, err
		}
		conn, err = m.Connection()
		if err == nil && conn == nil {
			err = ErrNilConnection
		}
		if err != nil {
			return nil, &ConnectionError{Name: name, Err: err}
		}

		r.mu.Lock()
		r.connections[name] = conn
		r.mu.Unlock()
		return conn, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(persistence.Connection), nil
}

// ManagerForClass walks managers in declaration order and returns the first
// whose discovery strategy does not report className as transient.
// Managers are built as they are visited. A manager that fails to build is
// skipped; if no later manager claims the class, the build errors are
// carried by the returned NoManagerForClassError.
func (r *Registry) ManagerForClass(ctx context.Context, className string) (persistence.Manager, error) {
	var buildErrs []error
	for _, name := range r.descriptors.Names() {
		m, err := r.Manager(ctx, name)
		if err != nil {
			buildErrs = append(buildErrs, err)
			continue
		}
		cfg := m.Configuration()
		if cfg == nil {
			continue
		}
		driver := cfg.DiscoveryStrategy()
		if driver == nil {
			continue
		}
		if !driver.IsTransient(ctx, className) {
			return m, nil
		}
	}
	return nil, &NoManagerForClassError{Class: className, BuildErrs: buildErrs}
}

// ManagerNames returns every manager name in declaration order.
func (r *Registry) ManagerNames() []string {
	return r.descriptors.Names()
}

// ConnectionNames returns every connection name in declaration order.
// Each manager owns exactly one connection of the same name.
func (r *Registry) ConnectionNames() []string {
	return r.descriptors.Names()
}

// DefaultManagerName returns the name used when none is given.
func (r *Registry) DefaultManagerName() string {
	return r.defaultManager
}

// DefaultConnectionName returns the connection name used when none is given.
func (r *Registry) DefaultConnectionName() string {
	return r.defaultConnection
}

// Descriptor returns the descriptor registered under name.
func (r *Registry) Descriptor(name string) (Descriptor, bool) {
	return r.descriptors.Get(name)
}

// NameOf returns the name m was registered under. Only built managers
// are considered.
func (r *Registry) NameOf(m persistence.Manager) (string, bool) {
	if m == nil {
		return "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for name, built := range r.managers {
		if built == m {
			return name, true
		}
	}
	return "", false
}

// Built returns the names of managers constructed so far, in declaration order.
func (r *Registry) Built() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for _, name := range r.descriptors.Names() {
		if _, ok := r.managers[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// Close closes every built manager in reverse declaration order and forgets
// them. A later access rebuilds from the descriptor.
func (r *Registry) Close() error {
	r.mu.Lock()
	managers := r.managers
	r.managers = make(map[string]persistence.Manager)
	r.connections = make(map[string]persistence.Connection)
	r.mu.Unlock()

	names := r.descriptors.Names()
	var errs []error
	for i := len(names) - 1; i >= 0; i-- {
		m, ok := managers[names[i]]
		if !ok {
			continue
		}
		if err := m.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close manager %s: %w", names[i], err))
		}
	}
	return errors.Join(errs...)
}
