// Package engine reconciles slicer filament configuration files against
// the Spoolman inventory.
//
// One sync cycle fetches the inventory snapshot, expands it into output
// units (filament x variant x suffix, or per-spool variants thereof),
// renders each unit through the user's templates, and applies the
// minimal set of writes and deletes to make the output directory match
// the desired file set.
//
// # Reconciliation rules
//
//   - Only filaments with at least one active (non-archived) spool
//     produce files.
//   - Content is compared by hash; an unchanged render touches nothing.
//   - Writes are atomic (temp file + rename).
//   - Only tool-managed paths are ever deleted: a path produced by this
//     engine's own desired-set computation in this or a prior cycle of
//     the same process. Unrelated files in the output directory are
//     never removed, except in delete-all mode which clears files by
//     suffix before the first cycle.
//   - Two units rendering to the same path is a configuration error
//     (*CollisionError); neither file is written.
//   - Per-unit failures are recorded in the SyncSummary and do not stop
//     other units; only fetch failures abort a cycle.
//
// The cache is an explicit per-Engine object, so multiple independent
// engines can run concurrently with isolated state.
package engine
