package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/toolserve/internal/ir"
	"github.com/roach88/toolserve/internal/queryir"
)

// SQLCompiler compiles statement IR to parameterized SQL using "?"
// placeholders. Callers targeting other bindvar styles rebind the result
// (sqlx.Rebind).
//
// CRITICAL: All values are parameterized (never interpolated).
// Identifiers are checked against queryir.IsIdentifier before use.
type SQLCompiler struct {
	// Returning names a column to return from INSERT via a RETURNING clause.
	// Empty means the driver reports the new key through LastInsertId.
	Returning string
}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a statement to parameterized SQL.
// Returns (sql, params, error) tuple.
func (c *SQLCompiler) Compile(s queryir.Statement) (string, []any, error) {
	if s == nil {
		return "", nil, fmt.Errorf("cannot compile nil statement")
	}

	switch stmt := s.(type) {
	case queryir.Select:
		return c.compileSelect(stmt)
	case *queryir.Select:
		return c.compileSelect(*stmt)
	case queryir.Insert:
		return c.compileInsert(stmt)
	case *queryir.Insert:
		return c.compileInsert(*stmt)
	case queryir.Update:
		return c.compileUpdate(stmt)
	case *queryir.Update:
		return c.compileUpdate(*stmt)
	default:
		return "", nil, fmt.Errorf("unsupported statement type: %T", s)
	}
}

// compileSelect compiles a queryir.Select to SQL.
func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	if err := checkIdentifiers(q.From); err != nil {
		return "", nil, err
	}
	if len(q.Columns) == 0 {
		return "", nil, fmt.Errorf("select from %s: no columns", q.From)
	}
	if err := checkIdentifiers(q.Columns...); err != nil {
		return "", nil, err
	}

	var whereClause string
	var params []any
	if q.Filter != nil {
		filterSQL, filterParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		whereClause = " WHERE " + filterSQL
		params = filterParams
	}

	var orderByClause string
	if q.OrderBy != "" {
		if err := checkIdentifiers(q.OrderBy); err != nil {
			return "", nil, err
		}
		orderByClause = " ORDER BY " + q.OrderBy + " ASC"
	}

	sql := fmt.Sprintf("SELECT %s FROM %s%s%s",
		strings.Join(q.Columns, ", "),
		q.From,
		whereClause,
		orderByClause)

	return sql, params, nil
}

// compileInsert compiles a queryir.Insert to SQL.
// Columns appear in the order of the Values row.
func (c *SQLCompiler) compileInsert(q queryir.Insert) (string, []any, error) {
	if err := checkIdentifiers(q.Into); err != nil {
		return "", nil, err
	}
	if len(q.Values) == 0 {
		return "", nil, fmt.Errorf("insert into %s: no columns", q.Into)
	}

	columns := q.Values.Columns()
	if err := checkIdentifiers(columns...); err != nil {
		return "", nil, err
	}

	params, err := rowParams(q.Values)
	if err != nil {
		return "", nil, err
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		q.Into,
		strings.Join(columns, ", "),
		placeholders)

	if c.Returning != "" {
		if err := checkIdentifiers(c.Returning); err != nil {
			return "", nil, err
		}
		sql += " RETURNING " + c.Returning
	}

	return sql, params, nil
}

// compileUpdate compiles a queryir.Update to SQL.
// SET parameters precede WHERE parameters.
func (c *SQLCompiler) compileUpdate(q queryir.Update) (string, []any, error) {
	if err := checkIdentifiers(q.Table); err != nil {
		return "", nil, err
	}
	if len(q.Set) == 0 {
		return "", nil, fmt.Errorf("update %s: no columns to set", q.Table)
	}
	if isVacuous(q.Where) {
		return "", nil, fmt.Errorf("update %s: where predicate must constrain rows", q.Table)
	}

	assignments := make([]string, len(q.Set))
	for i, f := range q.Set {
		if err := checkIdentifiers(f.Column); err != nil {
			return "", nil, err
		}
		assignments[i] = f.Column + " = ?"
	}

	params, err := rowParams(q.Set)
	if err != nil {
		return "", nil, err
	}

	whereSQL, whereParams, err := c.compilePredicate(q.Where)
	if err != nil {
		return "", nil, fmt.Errorf("compile where: %w", err)
	}

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		q.Table,
		strings.Join(assignments, ", "),
		whereSQL)

	return sql, append(params, whereParams...), nil
}

// compilePredicate compiles a queryir.Predicate to SQL WHERE clause fragment.
// Returns (sql, params, error).
// CRITICAL: Values NEVER interpolated - always use ? placeholders.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	if p == nil {
		return "1 = 1", nil, nil // Always true
	}

	switch pred := p.(type) {
	case queryir.Equals:
		return c.compileEquals(pred)
	case *queryir.Equals:
		return c.compileEquals(*pred)
	case queryir.And:
		return c.compileAnd(pred)
	case *queryir.And:
		return c.compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileEquals compiles an Equals predicate to "field = ?".
func (c *SQLCompiler) compileEquals(eq queryir.Equals) (string, []any, error) {
	if err := checkIdentifiers(eq.Field); err != nil {
		return "", nil, err
	}

	param, err := ir.Param(eq.Value)
	if err != nil {
		return "", nil, fmt.Errorf("convert value for %s: %w", eq.Field, err)
	}

	return eq.Field + " = ?", []any{param}, nil
}

// compileAnd compiles an And predicate to conjunction with AND.
func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil // Always true (vacuous truth)
	}

	var sqlParts []string
	var allParams []any

	for _, pred := range and.Predicates {
		sql, params, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		sqlParts = append(sqlParts, sql)
		allParams = append(allParams, params...)
	}

	return strings.Join(sqlParts, " AND "), allParams, nil
}

// isVacuous reports whether p matches every row.
func isVacuous(p queryir.Predicate) bool {
	switch pred := p.(type) {
	case nil:
		return true
	case queryir.And:
		return allVacuous(pred.Predicates)
	case *queryir.And:
		return pred == nil || allVacuous(pred.Predicates)
	default:
		return false
	}
}

func allVacuous(preds []queryir.Predicate) bool {
	for _, p := range preds {
		if !isVacuous(p) {
			return false
		}
	}
	return true
}

// rowParams converts row values to SQL parameters in row order.
func rowParams(row ir.Row) ([]any, error) {
	params := make([]any, len(row))
	for i, f := range row {
		p, err := ir.Param(f.Value)
		if err != nil {
			return nil, fmt.Errorf("convert value for %s: %w", f.Column, err)
		}
		params[i] = p
	}
	return params, nil
}

// checkIdentifiers rejects names that are not safe to interpolate.
func checkIdentifiers(names ...string) error {
	for _, name := range names {
		if !queryir.IsIdentifier(name) {
			return fmt.Errorf("invalid identifier %q", name)
		}
	}
	return nil
}
