// Package store keeps a SQLite history of comparison runs.
//
// Each run records where both traces came from, their content digests, the
// per-kind diff counts, every diff, and a msgpack snapshot of both traces so
// a run can be re-rendered or re-compared without the original log files.
//
// # Ordering
//
// Runs are ordered by seq, a logical counter assigned at insert time, never by
// wall time. Diffs keep the comparator's traversal order through idx. Every
// query carries an explicit ORDER BY.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
