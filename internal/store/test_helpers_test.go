package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/toolserve/internal/ir"
)

// createTestStore creates a new SQLite store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(context.Background(), Options{DSN: path})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRecord builds an insertable app_package record.
func createTestRecord(appName, notes string, status int64) ir.Row {
	return ir.Row{
		ir.F("app_name", ir.NewString(appName)),
		ir.F("notes", ir.NewString(notes)),
		ir.F("status", ir.Int(status)),
	}
}

// mustInsert inserts a record and fails the test on error.
func mustInsert(t *testing.T, s *Store, record ir.Row) int64 {
	t.Helper()
	id, err := s.Insert(context.Background(), record)
	if err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}
	return id
}
