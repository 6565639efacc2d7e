// Package testutil provides test utilities for mapping files and configuration.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/entityreg/internal/domain/persistence"
	"github.com/zjrosen/entityreg/internal/infrastructure/yamlmapping"
)

// Builder accumulates class mappings and writes them as mapping files.
type Builder struct {
	t       *testing.T
	dir     string
	classes []*persistence.ClassMetadata
}

// NewBuilder creates a builder writing into dir.
func NewBuilder(t *testing.T, dir string) *Builder {
	t.Helper()
	return &Builder{t: t, dir: dir}
}

// WithClass adds a class with optional configuration.
func (b *Builder) WithClass(class string, opts ...ClassOption) *Builder {
	md := defaultClass(class)
	for _, opt := range opts {
		opt(md)
	}
	b.classes = append(b.classes, md)
	return b
}

// Classes returns the accumulated metadata in insertion order.
func (b *Builder) Classes() []*persistence.ClassMetadata {
	return b.classes
}

// Build writes one mapping file per class and returns their paths.
func (b *Builder) Build() []string {
	b.t.Helper()
	paths := make([]string, 0, len(b.classes))
	for _, md := range b.classes {
		path, err := yamlmapping.Write(b.dir, md)
		require.NoError(b.t, err)
		paths = append(paths, path)
	}
	return paths
}
