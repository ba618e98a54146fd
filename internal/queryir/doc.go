// Package queryir provides the statement intermediate representation (IR)
// used by the record store.
//
// Every store operation is expressed as a Statement before it is compiled to
// SQL by package querysql:
//
//	[store operation] → [Statement IR] → [querysql] → parameterized SQL
//
// STATEMENTS:
//   - Select(from, columns, filter, order) - read rows with equality filters
//   - Insert(into, values) - add one row
//   - Update(table, set, where) - change columns of matching rows
//
// Soft delete is an Update that sets the table's status column to 0; see
// SoftDelete.
//
// Predicates are limited to Equals and And. There is no OR, no range
// comparison and no subquery.
//
// SEALED INTERFACES:
//
// Statement and Predicate are sealed interfaces using the marker method
// pattern, so backends can switch exhaustively:
//
//	switch s := stmt.(type) {
//	case Select:
//	case Insert:
//	case Update:
//	}
//
// ALLOW-LIST:
//
// Column names arrive from request payloads. Validate checks every column a
// statement references against the Table definition, and every value against
// the column's declared kind, before the statement reaches the compiler.
package queryir
