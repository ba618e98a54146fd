package queryir

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/toolserve/internal/ir"
)

// ValidationResult contains the allow-list analysis of a statement.
type ValidationResult struct {
	// Valid indicates the statement only references allow-listed columns
	// with values of the declared kinds.
	Valid bool

	// Problems lists every violation found. Empty when Valid is true.
	Problems []string
}

// Err returns nil for a valid result, otherwise an error joining all problems.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return errors.New(strings.Join(r.Problems, "; "))
}

// Validate checks a statement against the table's column allow-list.
//
// Rules:
//  1. The statement targets t by name
//  2. Every referenced column is declared in t
//  3. Every value matches its column's kind (no NULL writes or comparisons)
//  4. Insert and Update assign at least one column, each at most once
//  5. The key column is never assigned; the store owns it
//  6. Update always carries a Where predicate
//
// Validate is a pure function with no side effects.
func Validate(stmt Statement, t Table) ValidationResult {
	v := &validator{
		table:    t,
		problems: []string{},
	}
	v.validateStatement(stmt)

	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	table    Table
	problems []string
}

// addProblem appends a problem message.
func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateStatement(s Statement) {
	if s == nil {
		v.addProblem("nil statement")
		return
	}

	switch stmt := s.(type) {
	case Select:
		v.validateSelect(stmt)
	case *Select:
		v.validateSelect(*stmt)
	case Insert:
		v.validateInsert(stmt)
	case *Insert:
		v.validateInsert(*stmt)
	case Update:
		v.validateUpdate(stmt)
	case *Update:
		v.validateUpdate(*stmt)
	default:
		v.addProblem("unknown statement type: %T", s)
	}
}

func (v *validator) validateTarget(name string) {
	if name != v.table.Name {
		v.addProblem("unknown table %q", name)
	}
}

func (v *validator) validateSelect(sel Select) {
	v.validateTarget(sel.From)

	if len(sel.Columns) == 0 {
		v.addProblem("select requires an explicit column list")
	}
	for _, name := range sel.Columns {
		if _, ok := v.table.Column(name); !ok {
			v.addProblem("unknown column %q", name)
		}
	}
	if sel.OrderBy != "" {
		if _, ok := v.table.Column(sel.OrderBy); !ok {
			v.addProblem("unknown order column %q", sel.OrderBy)
		}
	}

	if sel.Filter != nil {
		v.validatePredicate(sel.Filter)
	}
}

func (v *validator) validateInsert(ins Insert) {
	v.validateTarget(ins.Into)

	if len(ins.Values) == 0 {
		v.addProblem("insert requires at least one column")
	}
	v.validateAssignments(ins.Values)
}

func (v *validator) validateUpdate(upd Update) {
	v.validateTarget(upd.Table)

	if len(upd.Set) == 0 {
		v.addProblem("update requires at least one column to set")
	}
	v.validateAssignments(upd.Set)

	if upd.Where == nil {
		v.addProblem("update requires a where predicate")
		return
	}
	v.validatePredicate(upd.Where)
}

// validateAssignments checks the column/value pairs of an Insert or Update.
func (v *validator) validateAssignments(row ir.Row) {
	seen := make(map[string]bool, len(row))
	for _, f := range row {
		if seen[f.Column] {
			v.addProblem("column %q assigned more than once", f.Column)
			continue
		}
		seen[f.Column] = true

		if f.Column == v.table.Key {
			v.addProblem("column %q is assigned by the store", f.Column)
			continue
		}
		v.validateValue(f.Column, f.Value)
	}
}

// validatePredicate recursively validates a predicate node.
func (v *validator) validatePredicate(p Predicate) {
	if p == nil {
		return // nil predicates are valid (no filter)
	}

	switch pred := p.(type) {
	case Equals:
		v.validateValue(pred.Field, pred.Value)
	case *Equals:
		v.validateValue(pred.Field, pred.Value)
	case And:
		v.validateAnd(pred)
	case *And:
		v.validateAnd(*pred)
	default:
		v.addProblem("unknown predicate type: %T", p)
	}
}

func (v *validator) validateAnd(and And) {
	for _, sub := range and.Predicates {
		v.validatePredicate(sub)
	}
}

// validateValue checks that column exists and value matches its kind.
func (v *validator) validateValue(column string, value ir.Value) {
	col, ok := v.table.Column(column)
	if !ok {
		v.addProblem("unknown column %q", column)
		return
	}
	if _, isNull := value.(ir.Null); isNull || value == nil {
		v.addProblem("column %q: null is not allowed", column)
		return
	}
	if !col.Kind.Accepts(value) {
		v.addProblem("column %q: expected %s, got %T", column, col.Kind, value)
	}
}
