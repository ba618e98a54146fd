package store

import "errors"

var (
	// ErrStore marks failures raised by the database: connectivity,
	// constraint violations, timeouts.
	ErrStore = errors.New("store failure")

	// ErrInvalid marks statements rejected by the table's column allow-list
	// before reaching the database.
	ErrInvalid = errors.New("invalid statement")
)
