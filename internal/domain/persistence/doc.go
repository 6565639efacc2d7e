// Package persistence defines the contracts this module consumes from a
// persistence engine.
//
// This package follows the same domain-layer rules as the other packages under
// internal/domain:
//   - Contains only pure Go code with standard library imports
//   - Defines the engine-facing interfaces (Builder, Manager, Connection, Configuration)
//   - Defines the MappingDriver contract installed into a manager's Configuration
//   - Has no knowledge of a concrete engine, driver, or storage format
//
// # Engine Contracts
//
// Builder produces a fully configured Manager for one named set of Settings.
// Each Manager owns exactly one Connection and exposes a Configuration whose
// MappingDriver can be read and replaced before the manager is first used.
//
// ClassMetadata is the engine-neutral description of one persistent class as
// returned by a MappingDriver. Its shape is intentionally small; engines
// attach anything else they need through Options.
package persistence
