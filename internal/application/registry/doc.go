// Package registry implements the application layer of entityreg.
//
// Service turns a loaded configuration into a running registry:
//   - one descriptor per configured manager, in declaration order
//   - one driver chain per manager, seeded with the configured namespaces
//     and paths and sharing the described-metadata cache
//   - a manager factory that picks the engine for the descriptor's driver
//     and binds the manager's chain to the built configuration
//   - an extension lifecycle fed from the built-in catalog; chains stay
//     open to extensions until Boot returns, then they are frozen
//
// Tracing, metrics, logging and event publishing hang off the domain
// observers, so the domain packages stay free of I/O concerns.
//
// # Import Aliasing
//
// This package has the same name as the domain registry package. When
// importing both, alias one of them:
//
//	import (
//	    domainreg "github.com/zjrosen/entityreg/internal/domain/registry"
//	    appreg "github.com/zjrosen/entityreg/internal/application/registry"
//	)
package registry
