// Package metadata implements the metadata driver chain: an ordered,
// namespace-scoped composition of discovery strategies.
//
// This package follows Domain-Driven Design (DDD) principles:
//   - Contains only pure Go code with standard library imports (plus the persistence contracts)
//   - Defines the Chain entity and its value objects (NamespaceBinding, SourceLocationSet)
//   - Implements first-match-wins resolution of class names to links
//   - Has no knowledge of mapping file formats or cache backends
//
// # Core Types
//
// Chain is an ordered list of links. Each link pairs one SourceStrategy with
// the namespaces it is responsible for and the locations it searches. A class
// is claimed by the first link whose namespaces cover the class namespace and
// whose strategy locates a definition under the link's locations.
//
// The first link of every chain is bound to the manager's pre-existing
// discovery strategy when the chain is bound to the manager's configuration.
// Binding also adds the internal fallback link, which always stays last, so
// internally shipped types are always discoverable but never shadow user
// namespaces. A rebuilt manager is bound again and replaces the first link.
//
// Chains is the per-manager set of chains handed to extensions.
//
// # Lifecycle
//
// Chains are mutable (AddNamespace, AddPaths, AddLink) until they are
// frozen, either by Install or by Chains.Freeze once extensions have booted.
// A bound but unfrozen chain serves lookups and still accepts mutation. Any
// mutation after freezing returns ErrChainInstalled.
package metadata
