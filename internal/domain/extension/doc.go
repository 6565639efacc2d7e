// Package extension implements the two-phase extension lifecycle.
//
// Extensions contribute to the per-manager driver chains and may read the
// manager registry. The lifecycle moves Idle → Registered → Booted:
//
//   - Register appends an extension and runs its Register hook immediately.
//     Hooks run in registration order and should only shape the chains.
//   - Boot runs exactly once. Every extension implementing Booter is booted in
//     registration order, after all registrations are complete.
//
// Extensions are handed to the lifecycle already constructed. Mapping a
// configured identifier to a constructor is the job of a Catalog owned by the
// application layer.
package extension
