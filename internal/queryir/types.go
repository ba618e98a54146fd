package queryir

import "github.com/roach88/toolserve/internal/ir"

// Statement represents one SQL statement in the IR.
//
// This is a sealed interface - only types in this package implement it.
type Statement interface {
	statementNode() // Marker method - seals interface to this package
}

// Predicate represents a filter condition in the IR.
//
// This is a sealed interface - only types in this package implement it.
//
// Predicate types:
//   - Equals: field = literal_value
//   - And: all predicates must be true
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Select reads rows from a table.
//
// Semantics:
//
//	SELECT <columns> FROM <from> [WHERE <filter>] ORDER BY <order_by> ASC
//
// A nil Filter selects every row, soft-deleted ones included.
type Select struct {
	From    string    // Table name
	Columns []string  // Explicit column list (no SELECT *)
	Filter  Predicate // WHERE conditions (nil = no filter)
	OrderBy string    // Column for deterministic ordering (usually the key)
}

func (Select) statementNode() {}

// Insert adds one row to a table.
//
// Semantics:
//
//	INSERT INTO <into> (<columns>) VALUES (?, ...)
//
// Columns are emitted in Values order.
type Insert struct {
	Into   string // Table name
	Values ir.Row // Column values in insertion order
}

func (Insert) statementNode() {}

// Update changes columns of the rows matching Where.
//
// Semantics:
//
//	UPDATE <table> SET <c1> = ?, ... WHERE <where>
//
// Where is required; a table-wide update cannot be expressed.
type Update struct {
	Table string    // Table name
	Set   ir.Row    // Assignments in SET order
	Where Predicate // Row selection (required)
}

func (Update) statementNode() {}

// Equals represents a column-equals-literal predicate.
//
// Semantics:
//
//	<field> = ?
//
// The value is always bound as a parameter, never interpolated.
type Equals struct {
	Field string   // Column name
	Value ir.Value // Literal value
}

func (Equals) predicateNode() {}

// And represents a conjunction of predicates (all must be true).
// Empty Predicates means "always true".
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Conjunction builds an And of Equals predicates from a row, preserving the
// row's column order. An empty row yields nil (no filter).
func Conjunction(row ir.Row) Predicate {
	if len(row) == 0 {
		return nil
	}
	preds := make([]Predicate, len(row))
	for i, f := range row {
		preds[i] = Equals{Field: f.Column, Value: f.Value}
	}
	return And{Predicates: preds}
}

// SoftDelete builds the Update that marks the row with the given key inactive.
func SoftDelete(t Table, id int64) Update {
	return Update{
		Table: t.Name,
		Set:   ir.Row{ir.F(t.StatusColumn, ir.Int(StatusDeleted))},
		Where: Equals{Field: t.Key, Value: ir.Int(id)},
	}
}
