package store

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/toolserve/internal/querysql"
	"github.com/roach88/toolserve/internal/queryir"
)

//go:embed schema_sqlite.sql
var sqliteSchemaSQL string

//go:embed schema_postgres.sql
var postgresSchemaSQL string

// Schema version tracking (SQLite user_version):
// 1 - Initial app_package schema
const currentSchemaVersion = 1

// Supported driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// DefaultStatementTimeout bounds every store operation unless overridden.
const DefaultStatementTimeout = 5 * time.Second

// Observer receives the outcome of every executed store operation.
type Observer interface {
	ObserveStatement(op string, elapsed time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveStatement(string, time.Duration, error) {}

// Options configures a Store.
type Options struct {
	Driver string // DriverSQLite (default) or DriverPostgres
	DSN    string // File path for SQLite, connection string for Postgres

	// Table is the table the store operates on. Defaults to queryir.AppPackage.
	Table queryir.Table

	StatementTimeout time.Duration // Defaults to DefaultStatementTimeout
	MaxOpenConns     int           // Postgres only; SQLite always uses one

	Logger   *slog.Logger // Defaults to slog.Default()
	Observer Observer     // Optional metrics hook
}

// Store provides generic record access to one table.
type Store struct {
	db       *sqlx.DB
	table    queryir.Table
	compiler *querysql.SQLCompiler
	timeout  time.Duration
	logger   *slog.Logger
	observer Observer
}

// Open connects to the database described by opts, applies the driver's
// pragmas and the embedded schema, and returns a ready Store.
//
// SQLite is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - A single connection (one writer at a time)
//
// This function is idempotent - safe to call multiple times.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Driver == "" {
		opts.Driver = DriverSQLite
	}
	if opts.DSN == "" {
		return nil, fmt.Errorf("open %s: empty DSN", opts.Driver)
	}

	var schemaSQL string
	switch opts.Driver {
	case DriverSQLite:
		schemaSQL = sqliteSchemaSQL
	case DriverPostgres:
		schemaSQL = postgresSchemaSQL
	default:
		return nil, fmt.Errorf("unsupported driver %q", opts.Driver)
	}

	db, err := sqlx.Open(opts.Driver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if opts.Driver == DriverSQLite {
		// SQLite only supports one writer at a time, so limit connections
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
		db.SetMaxIdleConns(opts.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if opts.Driver == DriverSQLite {
		if err := applyPragmas(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %w", err)
		}
	}

	if err := applySchema(ctx, db, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s, err := New(db, opts)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection without touching its schema.
// The driver name of db selects the placeholder style and key retrieval.
func New(db *sqlx.DB, opts Options) (*Store, error) {
	table := opts.Table
	if table.Name == "" {
		table = queryir.AppPackage
	}
	if err := table.Check(); err != nil {
		return nil, fmt.Errorf("invalid table: %w", err)
	}

	compiler := querysql.NewSQLCompiler()
	if db.DriverName() == DriverPostgres {
		compiler.Returning = table.Key
	}

	timeout := opts.StatementTimeout
	if timeout <= 0 {
		timeout = DefaultStatementTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var observer Observer = nopObserver{}
	if opts.Observer != nil {
		observer = opts.Observer
	}

	return &Store{
		db:       db,
		table:    table,
		compiler: compiler,
		timeout:  timeout,
		logger:   logger.With("table", table.Name),
		observer: observer,
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Table returns the table definition the store operates on.
func (s *Store) Table() queryir.Table {
	return s.table
}

// Ping verifies the database is reachable within the statement timeout.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping: %w", ErrStore, err)
	}
	return nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(ctx context.Context, db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist.
// This function is idempotent.
func applySchema(ctx context.Context, db *sqlx.DB, schemaSQL string) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if db.DriverName() != DriverSQLite {
		return nil
	}

	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version >= currentSchemaVersion {
		return nil
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}
