package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/roach88/toolserve/internal/ir"
	"github.com/roach88/toolserve/internal/queryir"
)

// Select returns the rows whose columns equal every field of filter, ordered
// by key. An empty filter returns all rows, soft-deleted ones included.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) Select(ctx context.Context, filter ir.Row) ([]ir.Row, error) {
	stmt := queryir.Select{
		From:    s.table.Name,
		Columns: s.table.ColumnNames(),
		Filter:  queryir.Conjunction(filter),
		OrderBy: s.table.Key,
	}
	query, params, err := s.prepare(stmt)
	if err != nil {
		return nil, err
	}

	var result []ir.Row
	err = s.inTx(ctx, "select", func(ctx context.Context, tx *sqlx.Tx) error {
		rows, err := tx.QueryxContext(ctx, tx.Rebind(query), params...)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			values, err := rows.SliceScan()
			if err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			row, err := s.toRow(stmt.Columns, values)
			if err != nil {
				return err
			}
			result = append(result, row)
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Return empty slice instead of nil
	if result == nil {
		result = []ir.Row{}
	}
	return result, nil
}

// Insert adds record as a new row and returns its assigned key.
// Columns are written in record order; omitted columns take their defaults.
func (s *Store) Insert(ctx context.Context, record ir.Row) (int64, error) {
	query, params, err := s.prepare(queryir.Insert{Into: s.table.Name, Values: record})
	if err != nil {
		return 0, err
	}

	var id int64
	err = s.inTx(ctx, "insert", func(ctx context.Context, tx *sqlx.Tx) error {
		if s.compiler.Returning != "" {
			if err := tx.QueryRowxContext(ctx, tx.Rebind(query), params...).Scan(&id); err != nil {
				return fmt.Errorf("exec: %w", err)
			}
			return nil
		}

		res, err := tx.ExecContext(ctx, tx.Rebind(query), params...)
		if err != nil {
			return fmt.Errorf("exec: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Debug("record inserted", "id", id)
	return id, nil
}

// Update sets the non-key columns of record on the row identified by the
// record's key field. Returns the number of rows changed.
//
// A record without the key field is a no-op: nothing is executed and
// (0, nil) is returned.
func (s *Store) Update(ctx context.Context, record ir.Row) (int64, error) {
	set, key, ok := record.Without(s.table.Key)
	if !ok {
		s.logger.Debug("update skipped: no key", "key", s.table.Key)
		return 0, nil
	}

	stmt := queryir.Update{
		Table: s.table.Name,
		Set:   set,
		Where: queryir.Equals{Field: s.table.Key, Value: key},
	}
	return s.execAffected(ctx, "update", stmt)
}

// SoftDelete marks the row with the given key inactive (status = 0).
// The row stays retrievable. A non-positive id is a no-op returning (0, nil).
func (s *Store) SoftDelete(ctx context.Context, id int64) (int64, error) {
	if id <= 0 {
		s.logger.Debug("soft delete skipped: no id", "id", id)
		return 0, nil
	}
	return s.execAffected(ctx, "soft_delete", queryir.SoftDelete(s.table, id))
}

// Count returns the total number of rows, soft-deleted ones included.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.inTx(ctx, "count", func(ctx context.Context, tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+s.table.Name)
	})
	return n, err
}

// execAffected runs a non-query statement and reports rows affected.
func (s *Store) execAffected(ctx context.Context, op string, stmt queryir.Statement) (int64, error) {
	query, params, err := s.prepare(stmt)
	if err != nil {
		return 0, err
	}

	var affected int64
	err = s.inTx(ctx, op, func(ctx context.Context, tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(query), params...)
		if err != nil {
			return fmt.Errorf("exec: %w", err)
		}
		affected, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Debug("records changed", "op", op, "affected", affected)
	return affected, nil
}

// prepare validates stmt against the table allow-list and compiles it.
func (s *Store) prepare(stmt queryir.Statement) (string, []any, error) {
	if err := queryir.Validate(stmt, s.table).Err(); err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	query, params, err := s.compiler.Compile(stmt)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return query, params, nil
}

// inTx runs fn in its own transaction bounded by the statement timeout.
// The transaction commits when fn succeeds and rolls back otherwise.
func (s *Store) inTx(ctx context.Context, op string, fn func(ctx context.Context, tx *sqlx.Tx) error) (err error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		s.observer.ObserveStatement(op, time.Since(start), err)
		if err != nil {
			s.logger.Error("store operation failed", "op", op, "error", err)
		}
	}()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %s: begin: %w", ErrStore, op, err)
	}
	defer tx.Rollback() // No-op if committed

	if err := fn(ctx, tx); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %s: commit: %w", ErrStore, op, err)
	}
	return nil
}

// toRow converts scanned driver values into a typed row.
func (s *Store) toRow(columns []string, values []any) (ir.Row, error) {
	if len(values) != len(columns) {
		return nil, fmt.Errorf("scan: got %d values for %d columns", len(values), len(columns))
	}
	row := make(ir.Row, len(columns))
	for i, name := range columns {
		col, _ := s.table.Column(name)
		v, err := ir.FromSQL(col.Kind, values[i])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		row[i] = ir.F(name, v)
	}
	return row, nil
}
