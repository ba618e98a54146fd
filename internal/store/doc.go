// Package store provides the SQL-backed record store for app package records.
//
// The store is generic over a queryir.Table: every operation is built as a
// statement IR, validated against the table's column allow-list, compiled by
// querysql and rebound to the driver's placeholder style by sqlx.
//
// # Operations
//
//   - Select: equality filters joined with AND, ordered by key. Soft-deleted
//     rows are included; callers filter on status explicitly.
//   - Insert: one row, returns the assigned key
//   - Update: requires the key in the record; without it the call is a no-op
//   - SoftDelete: sets status = 0; a non-positive key is a no-op
//
// Each operation runs in its own transaction under a bounded statement
// timeout. Failures are returned wrapped in ErrStore (SQL failure) or
// ErrInvalid (rejected by the allow-list) and logged via log/slog.
//
// # Drivers
//
//   - sqlite3 (mattn/go-sqlite3): WAL mode, busy_timeout=5000, single writer
//   - postgres (lib/pq): pooled connections, INSERT ... RETURNING for keys
//
// Open applies the embedded schema for the driver. It is idempotent.
package store
