package metadata

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/zjrosen/entityreg/internal/domain/persistence"
)

// InternalNamespace is the framework namespace appended to every chain when
// it is first bound. Users cannot remove it and it never takes priority over
// user-registered namespaces.
const InternalNamespace = `Entityreg\Internal`

// Chain errors
var (
	ErrChainInstalled  = errors.New("chain already installed")
	ErrNoLinkForClass  = errors.New("no chain link claims class")
	ErrEmptyNamespace  = errors.New("namespace cannot be empty")
	ErrEmptyLocation   = errors.New("location cannot be empty")
	ErrUnknownAlias    = errors.New("unknown namespace alias")
	ErrNilStrategy     = errors.New("strategy cannot be nil")
	ErrNoConfiguration = errors.New("configuration cannot be nil")
)

// ResolutionError reports that no link of a manager's chain claimed a class.
type ResolutionError struct {
	Manager string
	Class   string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s: %s (manager %s)", ErrNoLinkForClass, e.Class, e.Manager)
}

// Unwrap allows errors.Is(err, ErrNoLinkForClass).
func (e *ResolutionError) Unwrap() error {
	return ErrNoLinkForClass
}

// Link is one element of a chain.
type Link struct {
	strategy  SourceStrategy
	bindings  []NamespaceBinding
	locations SourceLocationSet
	origin    string
}

// covers reports whether any binding covers namespace.
func (l *Link) covers(namespace string) bool {
	for _, b := range l.bindings {
		if b.Covers(namespace) {
			return true
		}
	}
	return false
}

// LinkView is a read-only snapshot of a link for diagnostics.
type LinkView struct {
	Index      int
	Origin     string
	Strategy   string
	Namespaces []NamespaceBinding
	Locations  []string
}

// Resolution is the outcome of resolving a class against a chain.
type Resolution struct {
	Class  string
	Link   int
	Origin string
	Source string

	strategy SourceStrategy
}

// Option configures a Chain.
type Option func(*Chain)

// WithCache routes Describe results through cache.
func WithCache(cache MetadataCache) Option {
	return func(c *Chain) {
		if cache != nil {
			c.cache = cache
		}
	}
}

// WithInternal sets the strategy serving InternalNamespace.
func WithInternal(strategy SourceStrategy) Option {
	return func(c *Chain) {
		c.internal = strategy
	}
}

// Chain is the ordered composition of discovery strategies for one manager.
// A bound chain already serves its manager; a frozen (installed) chain also
// rejects mutation.
type Chain struct {
	mu        sync.RWMutex
	manager   string
	links     []*Link
	fallback  *Link
	installed bool
	internal  SourceStrategy
	cache     MetadataCache
}

// all returns the user links followed by the internal fallback, if bound.
// Callers hold c.mu.
func (c *Chain) all() []*Link {
	if c.fallback == nil {
		return c.links
	}
	out := make([]*Link, 0, len(c.links)+1)
	return append(append(out, c.links...), c.fallback)
}

// NewChain creates a chain for manager. Its first link has no strategy until
// Bind wraps the manager's existing discovery strategy.
func NewChain(manager string, opts ...Option) *Chain {
	c := &Chain{
		manager: manager,
		links:   []*Link{{origin: "manager"}},
		cache:   noopCache{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Manager returns the manager name this chain belongs to.
func (c *Chain) Manager() string {
	return c.manager
}

// AddNamespace binds namespace (optionally under alias) to the active link.
func (c *Chain) AddNamespace(alias, namespace string) error {
	binding, err := NewNamespaceBinding(alias, namespace)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.installed {
		return fmt.Errorf("%w: add namespace %s to %s", ErrChainInstalled, binding.Namespace, c.manager)
	}

	active := c.links[len(c.links)-1]
	for _, existing := range active.bindings {
		if existing == binding {
			return nil
		}
	}
	active.bindings = append(active.bindings, binding)
	return nil
}

// AddPaths appends locations to the active link, dropping duplicates.
func (c *Chain) AddPaths(paths ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.installed {
		return fmt.Errorf("%w: add paths to %s", ErrChainInstalled, c.manager)
	}
	_, err := c.links[len(c.links)-1].locations.Add(paths...)
	return err
}

// AddLink appends a new link served by strategy and makes it the active link.
// Links added later have lower priority.
func (c *Chain) AddLink(origin string, strategy SourceStrategy) error {
	if strategy == nil {
		return ErrNilStrategy
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.installed {
		return fmt.Errorf("%w: add link %s to %s", ErrChainInstalled, origin, c.manager)
	}
	c.links = append(c.links, &Link{strategy: strategy, origin: origin})
	return nil
}

// Bind makes the chain cfg's discovery strategy. The manager link wraps
// cfg's current strategy, replacing whatever an earlier Bind left there, and
// the internal fallback link is added on first use. Binding does not freeze
// the chain: extensions may keep shaping it until Freeze.
func (c *Chain) Bind(cfg persistence.Configuration) error {
	if cfg == nil {
		return ErrNoConfiguration
	}

	c.mu.Lock()
	existing := cfg.DiscoveryStrategy()
	if _, self := existing.(*Chain); !self {
		c.links[0].strategy = FromDriver(existing)
	}
	if c.fallback == nil && c.internal != nil {
		c.fallback = &Link{
			strategy: c.internal,
			origin:   "internal",
			bindings: []NamespaceBinding{{Alias: InternalNamespace, Namespace: InternalNamespace}},
		}
	}
	c.mu.Unlock()

	cfg.SetDiscoveryStrategy(c)
	return nil
}

// Freeze rejects every later AddNamespace, AddPaths and AddLink. It is
// idempotent. A frozen chain can still be re-bound to a rebuilt manager.
func (c *Chain) Freeze() {
	c.mu.Lock()
	c.installed = true
	c.mu.Unlock()
}

// Install binds the chain to cfg and freezes it.
func (c *Chain) Install(cfg persistence.Configuration) error {
	if cfg == nil {
		return ErrNoConfiguration
	}
	if c.Installed() {
		return fmt.Errorf("%w: %s", ErrChainInstalled, c.manager)
	}
	if err := c.Bind(cfg); err != nil {
		return err
	}
	c.Freeze()
	return nil
}

// Installed reports whether the chain has been frozen.
func (c *Chain) Installed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.installed
}

// Driver returns the composed discovery strategy suitable for installation
// into an engine configuration.
func (c *Chain) Driver() persistence.MappingDriver {
	return c
}

// Links returns a snapshot of the chain's links in priority order.
func (c *Chain) Links() []LinkView {
	c.mu.RLock()
	defer c.mu.RUnlock()

	links := c.all()
	views := make([]LinkView, 0, len(links))
	for i, l := range links {
		strategy := "<unbound>"
		if l.strategy != nil {
			strategy = fmt.Sprintf("%T", l.strategy)
		}
		views = append(views, LinkView{
			Index:      i,
			Origin:     l.origin,
			Strategy:   strategy,
			Namespaces: append([]NamespaceBinding(nil), l.bindings...),
			Locations:  l.locations.Paths(),
		})
	}
	return views
}

// Paths returns every location across all links, in link order.
func (c *Chain) Paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []string
	for _, l := range c.all() {
		out = append(out, l.locations.Paths()...)
	}
	return out
}

// ExpandAlias rewrites Alias:Short into Namespace\Short.
// Names without an alias are returned unchanged.
func (c *Chain) ExpandAlias(className string) (string, error) {
	alias, short, found := strings.Cut(className, persistence.AliasSeparator)
	if !found {
		return className, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, l := range c.all() {
		for _, b := range l.bindings {
			if b.Alias == alias {
				return b.Namespace + persistence.NamespaceSeparator + short, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownAlias, alias)
}

// Resolve walks links in order and returns the first that claims className.
func (c *Chain) Resolve(ctx context.Context, className string) (*Resolution, error) {
	class, err := c.ExpandAlias(className)
	if err != nil {
		return nil, err
	}
	namespace := persistence.NamespaceOf(class)

	c.mu.RLock()
	defer c.mu.RUnlock()
	for i, l := range c.all() {
		if l.strategy == nil || !l.covers(namespace) {
			continue
		}
		if source, ok := l.strategy.Locate(ctx, class, l.locations.Paths()); ok {
			return &Resolution{
				Class:    class,
				Link:     i,
				Origin:   l.origin,
				Source:   source,
				strategy: l.strategy,
			}, nil
		}
	}
	return nil, &ResolutionError{Manager: c.manager, Class: class}
}

// Describe returns the metadata of className from the claiming link.
func (c *Chain) Describe(ctx context.Context, className string) (*persistence.ClassMetadata, error) {
	res, err := c.Resolve(ctx, className)
	if err != nil {
		return nil, err
	}

	key := cacheKey(c.manager, res.Class)
	if md, ok := c.cache.Get(ctx, key); ok {
		return md, nil
	}

	md, err := res.strategy.Load(ctx, res.Class, res.Source)
	if err != nil {
		return nil, fmt.Errorf("load %s from %s: %w", res.Class, res.Source, err)
	}
	if md.Class == "" {
		md.Class = res.Class
	}
	c.cache.Set(ctx, key, md)
	return md, nil
}

// ClassNames lists every class claimed by some link. A class scanned by
// several links is reported once, for the first link.
func (c *Chain) ClassNames(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, l := range c.all() {
		if l.strategy == nil || len(l.bindings) == 0 {
			continue
		}
		names, err := l.strategy.Scan(ctx, l.locations.Paths())
		if err != nil {
			return nil, fmt.Errorf("scan %s link of %s: %w", l.origin, c.manager, err)
		}
		sort.Strings(names)
		for _, name := range names {
			if seen[name] || !l.covers(persistence.NamespaceOf(name)) {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out, nil
}

// IsTransient reports whether no link claims className.
func (c *Chain) IsTransient(ctx context.Context, className string) bool {
	_, err := c.Resolve(ctx, className)
	return err != nil
}

// Invalidate flushes cached metadata.
func (c *Chain) Invalidate(ctx context.Context) error {
	return c.cache.Flush(ctx)
}

// Compile-time check that Chain can be installed as a discovery strategy.
var _ persistence.MappingDriver = (*Chain)(nil)
