package extension

import (
	"context"
	"fmt"

	"github.com/zjrosen/entityreg/internal/domain/metadata"
	"github.com/zjrosen/entityreg/internal/domain/registry"
)

// Extension contributes namespaces, paths and links to the driver chains.
type Extension interface {
	Register(ctx context.Context, chains *metadata.Chains, reg registry.Reader) error
}

// Booter is implemented by extensions that need a boot phase.
// Boot may perform side effects; all registrations have completed by then.
type Booter interface {
	Boot(ctx context.Context, chains *metadata.Chains, reg registry.Reader) error
}

// Named is implemented by extensions that report a stable name.
type Named interface {
	Name() string
}

// NameOf returns the name of ext, falling back to its dynamic type.
func NameOf(ext Extension) string {
	if n, ok := ext.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", ext)
}

// Func adapts a plain function into a register-only Extension.
type Func func(ctx context.Context, chains *metadata.Chains, reg registry.Reader) error

// Register calls f.
func (f Func) Register(ctx context.Context, chains *metadata.Chains, reg registry.Reader) error {
	return f(ctx, chains, reg)
}
