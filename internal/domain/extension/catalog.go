package extension

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Constructor builds a fresh extension instance.
type Constructor func() (Extension, error)

// Catalog maps configured identifiers to constructors.
type Catalog struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{ctors: make(map[string]Constructor)}
}

// Add registers ctor under id.
func (c *Catalog) Add(id string, ctor Constructor) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrEmptyIdentifier
	}
	if ctor == nil {
		return fmt.Errorf("%w: constructor for %s", ErrNilExtension, id)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.ctors[id]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateExtension, id)
	}
	c.ctors[id] = ctor
	return nil
}

// Resolve constructs one extension per id, in order. The first unknown
// identifier fails the whole call with *ExtensionNotFoundError.
func (c *Catalog) Resolve(ids []string) ([]Extension, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Extension, 0, len(ids))
	for _, id := range ids {
		ctor, ok := c.ctors[strings.TrimSpace(id)]
		if !ok {
			return nil, &ExtensionNotFoundError{ID: id}
		}
		ext, err := ctor()
		if err != nil {
			return nil, fmt.Errorf("construct extension %s: %w", id, err)
		}
		if ext == nil {
			return nil, fmt.Errorf("construct extension %s: %w", id, ErrNilExtension)
		}
		out = append(out, ext)
	}
	return out, nil
}

// IDs returns every registered identifier, sorted.
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.ctors))
	for id := range c.ctors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
