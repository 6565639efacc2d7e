package extensions

import (
	"context"
	"fmt"

	"github.com/zjrosen/entityreg/internal/domain/extension"
	"github.com/zjrosen/entityreg/internal/domain/metadata"
	"github.com/zjrosen/entityreg/internal/domain/registry"
	"github.com/zjrosen/entityreg/internal/log"
)

// ConnectionCheck pings every declared connection at boot.
type ConnectionCheck struct{}

var (
	_ extension.Extension = (*ConnectionCheck)(nil)
	_ extension.Booter    = (*ConnectionCheck)(nil)
	_ extension.Named     = (*ConnectionCheck)(nil)
)

// NewConnectionCheck creates the connection-check extension.
func NewConnectionCheck() *ConnectionCheck {
	return &ConnectionCheck{}
}

// Name implements extension.Named.
func (*ConnectionCheck) Name() string { return ConnectionCheckID }

// Register has nothing to contribute.
func (*ConnectionCheck) Register(context.Context, *metadata.Chains, registry.Reader) error {
	return nil
}

// Boot opens and pings each connection in declaration order.
func (*ConnectionCheck) Boot(ctx context.Context, _ *metadata.Chains, reg registry.Reader) error {
	for _, name := range reg.ConnectionNames() {
		conn, err := reg.Connection(ctx, name)
		if err != nil {
			return err
		}
		if err := conn.Ping(ctx); err != nil {
			return fmt.Errorf("ping connection %s: %w", name, err)
		}
		log.Debug(log.CatExt, "Connection reachable", "connection", name)
	}
	return nil
}
