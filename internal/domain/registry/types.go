package registry

import (
	"fmt"
	"strings"

	"github.com/zjrosen/entityreg/internal/domain/persistence"
)

// Descriptor is one named manager configuration. It carries no behavior.
type Descriptor struct {
	Name     string               // e.g., "default", "reporting"
	Driver   string               // engine key, e.g., "sqlite"
	Settings persistence.Settings // opaque to this package
}

// DescriptorSet holds descriptors in declaration order.
type DescriptorSet struct {
	descriptors []Descriptor
	index       map[string]int
}

// NewDescriptorSet validates names and preserves declaration order.
func NewDescriptorSet(descriptors ...Descriptor) (*DescriptorSet, error) {
	if len(descriptors) == 0 {
		return nil, ErrNoManagers
	}
	set := &DescriptorSet{
		descriptors: make([]Descriptor, 0, len(descriptors)),
		index:       make(map[string]int, len(descriptors)),
	}
	for i, d := range descriptors {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			return nil, fmt.Errorf("descriptor %d: %w", i, ErrEmptyName)
		}
		if _, dup := set.index[name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}
		set.index[name] = len(set.descriptors)
		set.descriptors = append(set.descriptors, Descriptor{
			Name:     name,
			Driver:   d.Driver,
			Settings: d.Settings.Clone(),
		})
	}
	return set, nil
}

// Names returns descriptor names in declaration order.
func (s *DescriptorSet) Names() []string {
	names := make([]string, len(s.descriptors))
	for i, d := range s.descriptors {
		names[i] = d.Name
	}
	return names
}

// Get returns the descriptor registered under name.
func (s *DescriptorSet) Get(name string) (Descriptor, bool) {
	i, ok := s.index[name]
	if !ok {
		return Descriptor{}, false
	}
	d := s.descriptors[i]
	d.Settings = d.Settings.Clone()
	return d, true
}

// Has reports whether name is declared.
func (s *DescriptorSet) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// First returns the first-declared descriptor name.
func (s *DescriptorSet) First() string {
	return s.descriptors[0].Name
}

// Len returns the number of descriptors.
func (s *DescriptorSet) Len() int {
	return len(s.descriptors)
}
