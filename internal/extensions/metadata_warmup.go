package extensions

import (
	"context"
	"fmt"

	"github.com/zjrosen/entityreg/internal/domain/extension"
	"github.com/zjrosen/entityreg/internal/domain/metadata"
	"github.com/zjrosen/entityreg/internal/domain/persistence"
	"github.com/zjrosen/entityreg/internal/domain/registry"
	"github.com/zjrosen/entityreg/internal/log"
)

// MetadataWarmup describes every class of every chain at boot, filling the
// metadata cache, then asks engines that can persist metadata to compile it.
type MetadataWarmup struct {
	described map[string]int
	compiled  map[string]int
}

var (
	_ extension.Extension = (*MetadataWarmup)(nil)
	_ extension.Booter    = (*MetadataWarmup)(nil)
	_ extension.Named     = (*MetadataWarmup)(nil)
)

// NewMetadataWarmup creates the metadata-warmup extension.
func NewMetadataWarmup() *MetadataWarmup {
	return &MetadataWarmup{
		described: make(map[string]int),
		compiled:  make(map[string]int),
	}
}

// Name implements extension.Named.
func (*MetadataWarmup) Name() string { return MetadataWarmupID }

// Register has nothing to contribute.
func (*MetadataWarmup) Register(context.Context, *metadata.Chains, registry.Reader) error {
	return nil
}

// Boot builds each manager so its chain is bound, describes the chain's
// classes and compiles them when the manager supports it.
func (w *MetadataWarmup) Boot(ctx context.Context, chains *metadata.Chains, reg registry.Reader) error {
	for _, name := range chains.Names() {
		m, err := reg.Manager(ctx, name)
		if err != nil {
			return err
		}
		chain, err := chains.For(name)
		if err != nil {
			return err
		}

		classes, err := chain.ClassNames(ctx)
		if err != nil {
			return fmt.Errorf("list classes of %s: %w", name, err)
		}
		for _, class := range classes {
			if _, err := chain.Describe(ctx, class); err != nil {
				return fmt.Errorf("describe %s: %w", class, err)
			}
		}
		w.described[name] = len(classes)

		if compiler, ok := m.(persistence.MetadataCompiler); ok {
			n, err := compiler.CompileMetadata(ctx)
			if err != nil {
				return fmt.Errorf("compile metadata of %s: %w", name, err)
			}
			w.compiled[name] = n
		}
		log.Debug(log.CatExt, "Metadata warmed", "manager", name, "classes", len(classes))
	}
	return nil
}

// Described returns the number of classes described per manager.
func (w *MetadataWarmup) Described() map[string]int {
	return copyCounts(w.described)
}

// Compiled returns the number of classes compiled per manager. Managers that
// cannot compile metadata are absent.
func (w *MetadataWarmup) Compiled() map[string]int {
	return copyCounts(w.compiled)
}

func copyCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
