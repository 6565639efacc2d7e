package metadata

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownChain is returned when no chain exists for a manager name.
var ErrUnknownChain = errors.New("no chain for manager")

// Chains holds one chain per manager name, in declaration order.
// It is the chain surface handed to extensions.
type Chains struct {
	order       []string
	byName      map[string]*Chain
	defaultName string
	cache       MetadataCache
}

// NewChains creates an empty chain for every name. All chains share the
// same options, including the metadata cache.
func NewChains(defaultName string, names []string, opts ...Option) (*Chains, error) {
	s := &Chains{
		byName:      make(map[string]*Chain, len(names)),
		defaultName: defaultName,
		cache:       noopCache{},
	}
	scratch := &Chain{cache: noopCache{}}
	for _, opt := range opts {
		opt(scratch)
	}
	s.cache = scratch.cache

	for _, name := range names {
		if _, dup := s.byName[name]; dup {
			return nil, fmt.Errorf("duplicate chain for manager %s", name)
		}
		s.order = append(s.order, name)
		s.byName[name] = NewChain(name, opts...)
	}
	if _, ok := s.byName[defaultName]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChain, defaultName)
	}
	return s, nil
}

// For returns the chain of manager name.
func (s *Chains) For(name string) (*Chain, error) {
	c, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChain, name)
	}
	return c, nil
}

// Default returns the chain of the default manager.
func (s *Chains) Default() *Chain {
	return s.byName[s.defaultName]
}

// Names returns manager names in declaration order.
func (s *Chains) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Paths returns the de-duplicated union of every chain's locations.
func (s *Chains) Paths() []string {
	seen := make(map[string]bool)
	var out []string
	for _, name := range s.order {
		for _, p := range s.byName[name].Paths() {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}

// Freeze freezes every chain.
func (s *Chains) Freeze() {
	for _, name := range s.order {
		s.byName[name].Freeze()
	}
}

// Invalidate flushes the shared metadata cache.
func (s *Chains) Invalidate(ctx context.Context) error {
	return s.cache.Flush(ctx)
}
