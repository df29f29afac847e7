// Package catalog resolves table names to column descriptors.
//
// Two implementations of Reader are provided:
//   - Memory: an in-process map, safe for concurrent readers
//   - Store: a SQLite-backed persistent catalog
//
// Analysis never reads from Store directly. Callers take a Snapshot, which
// loads every table into a Memory catalog that stays immutable for the
// lifetime of the analyses using it.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Column rows are deleted with their table
//
// All listing queries order by keyspace and name with COLLATE BINARY so
// snapshots are deterministic.
package catalog
