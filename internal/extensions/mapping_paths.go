package extensions

import (
	"context"
	"errors"

	"github.com/zjrosen/entityreg/internal/domain/extension"
	"github.com/zjrosen/entityreg/internal/domain/metadata"
	"github.com/zjrosen/entityreg/internal/domain/registry"
	"github.com/zjrosen/entityreg/internal/infrastructure/yamlmapping"
)

// ErrNoMappingPaths is returned when mapping-paths is configured without paths.
var ErrNoMappingPaths = errors.New("mapping-paths requires at least one path")

// MappingPaths appends a YAML mapping link to the default chain.
type MappingPaths struct {
	namespaces []metadata.NamespaceBinding
	paths      []string
}

var (
	_ extension.Extension = (*MappingPaths)(nil)
	_ extension.Named     = (*MappingPaths)(nil)
)

// NewMappingPaths creates the mapping-paths extension.
func NewMappingPaths(namespaces []metadata.NamespaceBinding, paths []string) (*MappingPaths, error) {
	if len(paths) == 0 {
		return nil, ErrNoMappingPaths
	}
	return &MappingPaths{
		namespaces: append([]metadata.NamespaceBinding(nil), namespaces...),
		paths:      append([]string(nil), paths...),
	}, nil
}

// Name implements extension.Named.
func (*MappingPaths) Name() string { return MappingPathsID }

// Register adds the link, its namespace bindings and its locations.
func (p *MappingPaths) Register(_ context.Context, chains *metadata.Chains, _ registry.Reader) error {
	chain := chains.Default()
	if err := chain.AddLink(MappingPathsID, yamlmapping.NewFileDriver()); err != nil {
		return err
	}
	for _, ns := range p.namespaces {
		if err := chain.AddNamespace(ns.Alias, ns.Namespace); err != nil {
			return err
		}
	}
	return chain.AddPaths(p.paths...)
}
