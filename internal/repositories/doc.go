// Package repositories implements SQLite persistence for archived runs.
//
// [RunRepository] stores each compile with its seed, tunables, and ordered tracks, so a collab can be
// inspected or rebuilt later. Runs are soft-deleted via a deleted_at timestamp and excluded from queries
// once deleted.
//
// Sequence numbers provide stable, human-readable handles (run #7) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
