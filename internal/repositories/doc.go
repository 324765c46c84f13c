// Package repositories implements persistence for progress cursors and run history.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// Run records support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [ProgressRepository] : SQLite cursor store, one row per file path
//   - [FileProgressStore] : JSON document cursor store for runs without a database
//   - [RunRepository] : Run history with status, counters and the line that halted a run
//
// Sequence numbers provide stable, human-readable ordering (e.g., run #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
