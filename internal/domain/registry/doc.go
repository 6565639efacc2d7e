// Package registry implements the domain layer for the manager/connection registry.
//
// This package follows Domain-Driven Design (DDD) principles:
//   - Contains only pure Go code (standard library plus golang.org/x/sync)
//   - Defines the Descriptor value object and the ordered DescriptorSet
//   - Implements lazy, memoized, name-keyed construction of managers and connections
//   - Has no knowledge of a concrete persistence engine (see internal/domain/persistence)
//
// # Core Types
//
// Descriptor is one named manager configuration. DescriptorSet keeps descriptors
// in declaration order, which also decides the default manager when none is
// configured and the order ManagerForClass walks managers in.
//
// Registry builds each manager at most once, on first access, through a Factory
// supplied by the application layer. Concurrent first access to the same name
// results in exactly one Factory call; every caller observes the same instance.
// Connections are never built independently: a connection is always obtained
// from its owning manager and shares the manager's name.
//
// Reader is the read-only view of a Registry handed to extensions.
//
// # Errors
//
// Lookups of unregistered names fail with *UnknownManagerError or
// *UnknownConnectionError. Engine failures are returned as *ManagerBuildError
// or *ConnectionError, which unwrap to the engine's error.
package registry
