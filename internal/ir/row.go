package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field is one column/value pair of a Row.
type Field struct {
	Column string
	Value  Value
}

// F is a shorthand for Field for ergonomic construction.
// Example: Row{F("app_name", NewString("calc")), F("status", NewInt(1))}
func F(column string, value Value) Field {
	return Field{Column: column, Value: value}
}

// Row is an ordered sequence of fields. Order is significant: it drives the
// column order of generated SQL and of the JSON object.
type Row []Field

// Get returns the value stored under column.
func (r Row) Get(column string) (Value, bool) {
	for _, f := range r {
		if f.Column == column {
			return f.Value, true
		}
	}
	return nil, false
}

// Columns returns the column names in row order.
func (r Row) Columns() []string {
	cols := make([]string, len(r))
	for i, f := range r {
		cols[i] = f.Column
	}
	return cols
}

// Without returns a copy of the row with column removed, along with the
// removed value. The receiver is never modified.
func (r Row) Without(column string) (Row, Value, bool) {
	var removed Value
	found := false
	out := make(Row, 0, len(r))
	for _, f := range r {
		if f.Column == column && !found {
			removed = f.Value
			found = true
			continue
		}
		out = append(out, f)
	}
	return out, removed, found
}

// MarshalJSON encodes the row as a JSON object with keys in row order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(f.Column)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", f.Column, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := MarshalValue(f.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", f.Column, err)
		}
		buf.Write(valBytes)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
