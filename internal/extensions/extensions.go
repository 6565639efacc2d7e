// Package extensions holds the built-in extensions that configuration can
// name by identifier.
package extensions

import (
	"github.com/zjrosen/entityreg/internal/domain/extension"
	"github.com/zjrosen/entityreg/internal/domain/metadata"
)

// Built-in extension identifiers.
const (
	ConnectionCheckID = "connection-check"
	MetadataWarmupID  = "metadata-warmup"
	MappingPathsID    = "mapping-paths"
)

// Options carries the host configuration the built-ins need.
type Options struct {
	// MappingNamespaces and MappingPaths feed the mapping-paths extension.
	MappingNamespaces []metadata.NamespaceBinding
	MappingPaths      []string
}

// Register adds every built-in extension to catalog.
func Register(catalog *extension.Catalog, opts Options) error {
	builtins := []struct {
		id   string
		ctor extension.Constructor
	}{
		{ConnectionCheckID, func() (extension.Extension, error) { return NewConnectionCheck(), nil }},
		{MetadataWarmupID, func() (extension.Extension, error) { return NewMetadataWarmup(), nil }},
		{MappingPathsID, func() (extension.Extension, error) {
			return NewMappingPaths(opts.MappingNamespaces, opts.MappingPaths)
		}},
	}
	for _, b := range builtins {
		if err := catalog.Add(b.id, b.ctor); err != nil {
			return err
		}
	}
	return nil
}

// NewCatalog returns a catalog holding every built-in extension.
func NewCatalog(opts Options) (*extension.Catalog, error) {
	catalog := extension.NewCatalog()
	if err := Register(catalog, opts); err != nil {
		return nil, err
	}
	return catalog, nil
}
