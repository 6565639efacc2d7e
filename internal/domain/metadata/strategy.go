package metadata

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/zjrosen/entityreg/internal/domain/persistence"
)

// SourceStrategy is the inner discovery strategy wrapped by a chain link.
// Locations are owned by the link and passed in on every call.
type SourceStrategy interface {
	// Locate returns where the definition of className lives under locations.
	Locate(ctx context.Context, className string, locations []string) (string, bool)

	// Load reads the definition of className found at source.
	Load(ctx context.Context, className, source string) (*persistence.ClassMetadata, error)

	// Scan lists every class defined under locations.
	Scan(ctx context.Context, locations []string) ([]string, error)
}

// FromDriver adapts a plain MappingDriver into a SourceStrategy.
// Drivers that already implement SourceStrategy are returned unchanged;
// otherwise link locations are ignored because the driver owns its sources.
func FromDriver(driver persistence.MappingDriver) SourceStrategy {
	if driver == nil {
		return nil
	}
	if s, ok := driver.(SourceStrategy); ok {
		return s
	}
	return &driverStrategy{driver: driver}
}

type driverStrategy struct {
	driver persistence.MappingDriver
}

func (d *driverStrategy) Locate(ctx context.Context, className string, _ []string) (string, bool) {
	if d.driver.IsTransient(ctx, className) {
		return "", false
	}
	return fmt.Sprintf("driver:%T", d.driver), true
}

func (d *driverStrategy) Load(ctx context.Context, className, _ string) (*persistence.ClassMetadata, error) {
	return d.driver.Describe(ctx, className)
}

func (d *driverStrategy) Scan(ctx context.Context, _ []string) ([]string, error) {
	return d.driver.ClassNames(ctx)
}

// StaticStrategy serves class metadata registered in memory.
// It backs the internal fallback link and programmatic registrations.
type StaticStrategy struct {
	mu      sync.RWMutex
	classes map[string]*persistence.ClassMetadata
}

// NewStaticStrategy creates a strategy seeded with classes.
func NewStaticStrategy(classes ...*persistence.ClassMetadata) *StaticStrategy {
	s := &StaticStrategy{classes: make(map[string]*persistence.ClassMetadata, len(classes))}
	for _, md := range classes {
		s.Add(md)
	}
	return s
}

// Add registers or replaces the metadata for md.Class.
func (s *StaticStrategy) Add(md *persistence.ClassMetadata) {
	if md == nil || md.Class == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classes[md.Class] = md
}

// Locate ignores locations; static definitions live in memory.
func (s *StaticStrategy) Locate(_ context.Context, className string, _ []string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.classes[className]; !ok {
		return "", false
	}
	return "static:" + className, true
}

// Load returns a copy of the registered metadata.
func (s *StaticStrategy) Load(_ context.Context, className, source string) (*persistence.ClassMetadata, error) {
	s.mu.RLock()
	md, ok := s.classes[className]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoLinkForClass, className)
	}
	clone := *md
	clone.Fields = append([]persistence.FieldMetadata(nil), md.Fields...)
	clone.Source = source
	return &clone, nil
}

// Scan returns every registered class, sorted.
func (s *StaticStrategy) Scan(_ context.Context, _ []string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.classes))
	for name := range s.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
