package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/entityreg/internal/cachemanager"
	"github.com/zjrosen/entityreg/internal/config"
	"github.com/zjrosen/entityreg/internal/domain/extension"
	"github.com/zjrosen/entityreg/internal/domain/metadata"
	"github.com/zjrosen/entityreg/internal/domain/persistence"
	"github.com/zjrosen/entityreg/internal/domain/registry"
	"github.com/zjrosen/entityreg/internal/extensions"
	"github.com/zjrosen/entityreg/internal/infrastructure/sqlite"
	"github.com/zjrosen/entityreg/internal/log"
	"github.com/zjrosen/entityreg/internal/metrics"
	"github.com/zjrosen/entityreg/internal/pubsub"
	"github.com/zjrosen/entityreg/internal/tracing"
)

// Service errors
var (
	ErrUnknownDriver  = errors.New("no engine registered for driver")
	ErrCannotCompile  = errors.New("manager cannot compile metadata")
	ErrNoMappingPaths = errors.New("no mapping directories to watch")
)

// Resolution is a class resolved against the chain of the manager that claims it.
type Resolution struct {
	Manager string
	metadata.Resolution
}

// Option configures a Service.
type Option func(*Service)

// WithEngine registers builder for descriptors whose driver is driver.
// The sqlite engine is always registered and may be replaced.
func WithEngine(driver string, builder persistence.Builder) Option {
	return func(s *Service) {
		s.engines[driver] = builder
	}
}

// WithTracer sets the tracer used for build, hook and resolve spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithCollector sets the metrics collector.
func WithCollector(c metrics.Collector) Option {
	return func(s *Service) {
		if c != nil {
			s.collector = c
		}
	}
}

// WithCatalog replaces the built-in extension catalog.
func WithCatalog(c *extension.Catalog) Option {
	return func(s *Service) {
		s.catalog = c
	}
}

// Service owns the registry, the driver chains and the extension lifecycle
// built from one configuration.
type Service struct {
	cfg       config.Config
	engines   map[string]persistence.Builder
	tracer    trace.Tracer
	collector metrics.Collector
	catalog   *extension.Catalog

	chains     *metadata.Chains
	registry   *registry.Registry
	lifecycle  *extension.Lifecycle
	observer   *tracing.Observer
	classNames *cachemanager.ReadThroughCache[string, []string, *metadata.Chain]
	events     *pubsub.Broker[pubsub.RegistryEvent]

	mu     sync.Mutex
	closed bool
}

// NewService validates cfg and wires every component. No manager is built.
func NewService(cfg config.Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	events := pubsub.NewBroker[pubsub.RegistryEvent](pubsub.WithDropHandler(func(t pubsub.EventType) {
		log.Warn(log.CatRegistry, "Event dropped for slow subscriber", "type", t)
	}))
	s := &Service{
		cfg:       cfg,
		engines:   map[string]persistence.Builder{sqlite.DriverName: sqlite.NewEngine()},
		tracer:    noop.NewTracerProvider().Tracer("noop"),
		collector: metrics.Noop(),
		events:    events,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.observer = tracing.NewObserver(s.tracer)

	if s.catalog == nil {
		catalog, err := extensions.NewCatalog(extensions.Options{
			MappingNamespaces: bindings(cfg.Mappings.Namespaces),
			MappingPaths:      cfg.Mappings.Paths,
		})
		if err != nil {
			return nil, err
		}
		s.catalog = catalog
	}

	set, err := descriptors(cfg.Managers)
	if err != nil {
		return nil, err
	}

	if err := s.buildChains(set); err != nil {
		return nil, err
	}

	s.registry, err = registry.New(set, s.buildManager,
		registry.WithDefaultManager(cfg.DefaultManager),
		registry.WithDefaultConnection(cfg.DefaultConnection),
		registry.WithObserver(&buildObserver{
			observers: []registry.Observer{s.observer, s.collector},
			events:    s.events,
		}),
	)
	if err != nil {
		return nil, err
	}

	s.lifecycle = extension.NewLifecycle(s.chains, s.registry,
		extension.WithRunID(uuid.NewString),
		extension.WithObserver(&hookObserver{
			observers: []extension.Observer{s.observer, s.collector},
		}),
	)

	s.classNames = cachemanager.NewReadThroughCache[string, []string, *metadata.Chain](
		cachemanager.NewInMemoryCacheManager[string, []string]("class-names", cfg.Cache.TTL, cachemanager.DefaultCleanupInterval),
		func(ctx context.Context, chain *metadata.Chain) ([]string, error) {
			return chain.ClassNames(ctx)
		},
		cfg.Cache.TTL,
		cachemanager.ReadThroughSliding(cfg.Cache.Sliding),
	)

	log.Debug(log.CatRegistry, "Service ready",
		"managers", set.Names(),
		"default_manager", s.registry.DefaultManagerName(),
		"default_connection", s.registry.DefaultConnectionName())
	return s, nil
}

func descriptors(managers []config.ManagerConfig) (*registry.DescriptorSet, error) {
	out := make([]registry.Descriptor, 0, len(managers))
	for _, m := range managers {
		driver := m.Driver
		if driver == "" {
			driver = sqlite.DriverName
		}
		out = append(out, registry.Descriptor{
			Name:     m.Name,
			Driver:   driver,
			Settings: persistence.Settings(m.Settings),
		})
	}
	return registry.NewDescriptorSet(out...)
}

func bindings(namespaces []config.NamespaceConfig) []metadata.NamespaceBinding {
	out := make([]metadata.NamespaceBinding, 0, len(namespaces))
	for _, ns := range namespaces {
		out = append(out, metadata.NamespaceBinding{Alias: ns.Alias, Namespace: ns.Namespace})
	}
	return out
}

// buildChains creates one chain per manager sharing the metadata cache, then
// seeds each with its configured namespaces and paths. Global namespaces and
// paths go to the default manager's chain.
func (s *Service) buildChains(set *registry.DescriptorSet) error {
	cacheOpts := []cachemanager.MetadataCacheOption{cachemanager.WithLookupRecorder(s.collector)}
	if s.cfg.Cache.Sliding {
		cacheOpts = append(cacheOpts, cachemanager.WithSlidingExpiration())
	}
	cache := cachemanager.NewMetadataCache(
		cachemanager.NewInMemoryCacheManager[string, *persistence.ClassMetadata]("metadata", s.cfg.Cache.TTL, cachemanager.DefaultCleanupInterval),
		s.cfg.Cache.TTL,
		cacheOpts...,
	)

	defaultName := s.cfg.DefaultManager
	if defaultName == "" {
		defaultName = set.First()
	}

	chains, err := metadata.NewChains(defaultName, set.Names(),
		metadata.WithCache(cache),
		metadata.WithInternal(metadata.NewStaticStrategy(InternalClasses()...)),
	)
	if err != nil {
		return err
	}

	for _, m := range s.cfg.Managers {
		chain, err := chains.For(m.Name)
		if err != nil {
			return err
		}
		if err := seedChain(chain, m.Namespaces, m.Paths); err != nil {
			return fmt.Errorf("manager %s: %w", m.Name, err)
		}
	}
	if err := seedChain(chains.Default(), s.cfg.Namespaces, s.cfg.Paths); err != nil {
		return fmt.Errorf("default chain: %w", err)
	}

	s.chains = chains
	return nil
}

func seedChain(chain *metadata.Chain, namespaces []config.NamespaceConfig, paths []string) error {
	for _, ns := range namespaces {
		if err := chain.AddNamespace(ns.Alias, ns.Namespace); err != nil {
			return err
		}
	}
	if len(paths) == 0 {
		return nil
	}
	return chain.AddPaths(paths...)
}

// buildManager is the registry factory: it builds the manager through the
// descriptor's engine and binds the manager's chain to it. The chain stays
// open to extensions until boot completes; a manager rebuilt after Close
// replaces the chain's manager link with its own strategy.
func (s *Service) buildManager(ctx context.Context, d registry.Descriptor) (persistence.Manager, error) {
	builder, ok := s.engines[d.Driver]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, d.Driver)
	}

	m, err := builder.BuildManager(ctx, d.Name, d.Settings)
	if err != nil {
		return nil, err
	}

	chain, err := s.chains.For(d.Name)
	if err != nil {
		_ = m.Close()
		return nil, err
	}
	if err := chain.Bind(m.Configuration()); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("bind chain: %w", err)
	}
	log.Debug(log.CatChain, "Chain bound", "manager", d.Name, "links", len(chain.Links()), "frozen", chain.Installed())
	return m, nil
}

// Registry returns the underlying registry.
func (s *Service) Registry() *registry.Registry {
	return s.registry
}

// Chains returns the driver chains.
func (s *Service) Chains() *metadata.Chains {
	return s.chains
}

// Events returns the broker carrying registry events.
func (s *Service) Events() *pubsub.Broker[pubsub.RegistryEvent] {
	return s.events
}

// Manager returns the named manager, or the default for "".
func (s *Service) Manager(ctx context.Context, name string) (persistence.Manager, error) {
	return s.registry.Manager(ctx, name)
}

// Connection returns the named connection, or the default for "".
func (s *Service) Connection(ctx context.Context, name string) (persistence.Connection, error) {
	return s.registry.Connection(ctx, name)
}

// ManagerForClass returns the first manager whose chain claims className.
func (s *Service) ManagerForClass(ctx context.Context, className string) (persistence.Manager, error) {
	return s.registry.ManagerForClass(ctx, className)
}

// ManagerNames returns every manager name in declaration order.
func (s *Service) ManagerNames() []string {
	return s.registry.ManagerNames()
}

// ConnectionNames returns every connection name in declaration order.
func (s *Service) ConnectionNames() []string {
	return s.registry.ConnectionNames()
}

// RegisterExtension registers ext and runs its Register hook.
func (s *Service) RegisterExtension(ctx context.Context, ext extension.Extension) error {
	if err := s.lifecycle.Register(ctx, ext); err != nil {
		return err
	}
	name := extension.NameOf(ext)
	log.Info(log.CatExt, "Extension registered", "extension", name)
	s.events.Publish(pubsub.ExtensionRegisteredEvent, pubsub.RegistryEvent{Extension: name})
	return nil
}

// RegisterConfigured resolves the configured extension identifiers through
// the catalog and registers them in order.
func (s *Service) RegisterConfigured(ctx context.Context) error {
	exts, err := s.catalog.Resolve(s.cfg.Extensions)
	if err != nil {
		return err
	}
	for _, ext := range exts {
		if err := s.RegisterExtension(ctx, ext); err != nil {
			return err
		}
	}
	return nil
}

// Extensions returns the registered extensions in registration order.
func (s *Service) Extensions() []extension.Extension {
	return s.lifecycle.Extensions()
}

// Boot runs every boot hook once and returns the boot run ID.
func (s *Service) Boot(ctx context.Context) (string, error) {
	err := s.lifecycle.Boot(ctx)
	runID := s.lifecycle.RunID()

	var already *extension.AlreadyBootedError
	if errors.As(err, &already) {
		return runID, err
	}

	// Hooks may have reshaped chains after metadata was cached.
	if invErr := s.Invalidate(ctx); invErr != nil {
		log.ErrorErr(log.CatCache, "Failed to invalidate metadata after boot", invErr, "run_id", runID)
	}

	event := pubsub.RegistryEvent{RunID: runID, Count: len(s.lifecycle.Extensions())}
	if err != nil {
		event.Err = err.Error()
		log.ErrorErr(log.CatExt, "Boot failed", err, "run_id", runID)
	} else {
		log.Info(log.CatExt, "Booted", "run_id", runID, "extensions", event.Count)
	}
	s.events.Publish(pubsub.BootedEvent, event)
	return runID, err
}

// Resolve finds the manager claiming className and the link of its chain
// that serves the class.
func (s *Service) Resolve(ctx context.Context, className string) (*Resolution, error) {
	m, err := s.registry.ManagerForClass(ctx, className)
	if err != nil {
		return nil, err
	}
	name, _ := s.registry.NameOf(m)
	return s.ResolveIn(ctx, name, className)
}

// ResolveIn resolves className against the chain of manager name.
func (s *Service) ResolveIn(ctx context.Context, name, className string) (*Resolution, error) {
	chain, err := s.boundChain(ctx, name)
	if err != nil {
		return nil, err
	}

	ctx, span := s.observer.StartResolve(ctx, chain.Manager(), className)
	res, err := chain.Resolve(ctx, className)
	if err == nil {
		tracing.AnnotateResolution(span, res.Link, res.Origin)
	}
	tracing.End(span, err)
	if err != nil {
		return nil, err
	}
	return &Resolution{Manager: chain.Manager(), Resolution: *res}, nil
}

// Describe returns the metadata of className from the chain of manager
// name, or of the default manager for "".
func (s *Service) Describe(ctx context.Context, name, className string) (*persistence.ClassMetadata, error) {
	chain, err := s.boundChain(ctx, name)
	if err != nil {
		return nil, err
	}
	return chain.Describe(ctx, className)
}

// ClassNames lists the classes claimed by the chain of manager name.
// Results are cached until the mappings change.
func (s *Service) ClassNames(ctx context.Context, name string) ([]string, error) {
	chain, err := s.boundChain(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.classNames.Get(ctx, chain.Manager(), chain)
}

// boundChain builds the manager so its chain is bound.
func (s *Service) boundChain(ctx context.Context, name string) (*metadata.Chain, error) {
	if name == "" {
		name = s.registry.DefaultManagerName()
	}
	if _, err := s.registry.Manager(ctx, name); err != nil {
		return nil, err
	}
	return s.chains.For(name)
}

// Compile persists the metadata of manager name into its engine.
func (s *Service) Compile(ctx context.Context, name string) (int, error) {
	if name == "" {
		name = s.registry.DefaultManagerName()
	}
	m, err := s.registry.Manager(ctx, name)
	if err != nil {
		return 0, err
	}
	compiler, ok := m.(persistence.MetadataCompiler)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrCannotCompile, name)
	}
	n, err := compiler.CompileMetadata(ctx)
	if err != nil {
		return 0, err
	}
	s.events.Publish(pubsub.MetadataCompiledEvent, pubsub.RegistryEvent{Manager: name, Count: n})
	return n, nil
}

// Invalidate flushes the described-metadata and class-name caches.
func (s *Service) Invalidate(ctx context.Context) error {
	return errors.Join(s.chains.Invalidate(ctx), s.classNames.Invalidate(ctx))
}

// Close closes every built manager and the event broker. It is idempotent.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.registry.Close()
	s.events.Close()
	return err
}
