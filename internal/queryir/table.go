package queryir

import (
	"fmt"
	"regexp"

	"github.com/roach88/toolserve/internal/ir"
)

// Status values stored in a table's status column.
const (
	StatusDeleted = 0
	StatusActive  = 1
)

// identifierPattern matches table and column names that are safe to
// interpolate into SQL. Values are always parameterized; identifiers cannot be.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Column is one allow-listed column of a table.
type Column struct {
	Name string
	Kind ir.Kind
}

// Table is the allow-list of columns a statement may reference.
type Table struct {
	Name         string
	Key          string // Integer primary key, assigned by the store
	StatusColumn string // Integer column flipped to StatusDeleted on soft delete
	Columns      []Column
}

// AppPackage is the app_package table.
var AppPackage = Table{
	Name:         "app_package",
	Key:          "id",
	StatusColumn: "status",
	Columns: []Column{
		{Name: "id", Kind: ir.KindInt},
		{Name: "app_name", Kind: ir.KindString},
		{Name: "notes", Kind: ir.KindString},
		{Name: "status", Kind: ir.KindInt},
	},
}

// Column returns the column definition for name.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns all column names in declaration order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Check verifies the table definition itself: identifiers are safe and the
// key and status columns exist as integer columns.
func (t Table) Check() error {
	if !IsIdentifier(t.Name) {
		return fmt.Errorf("invalid table name %q", t.Name)
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %q has no columns", t.Name)
	}
	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if !IsIdentifier(c.Name) {
			return fmt.Errorf("table %q: invalid column name %q", t.Name, c.Name)
		}
		if seen[c.Name] {
			return fmt.Errorf("table %q: duplicate column %q", t.Name, c.Name)
		}
		seen[c.Name] = true
	}
	for _, name := range []string{t.Key, t.StatusColumn} {
		c, ok := t.Column(name)
		if !ok {
			return fmt.Errorf("table %q: missing column %q", t.Name, name)
		}
		if c.Kind != ir.KindInt {
			return fmt.Errorf("table %q: column %q must be %s", t.Name, name, ir.KindInt)
		}
	}
	return nil
}

// IsIdentifier reports whether s is a safe SQL identifier.
func IsIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}
