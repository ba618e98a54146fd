package ir

import (
	"encoding/json"
	"fmt"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// Value is a sealed interface representing a single column value.
// Only Null, String and Int implement it.
type Value interface {
	irValue() // Sealed - only these types implement it
}

// Null represents a SQL NULL read back from the store.
type Null struct{}

func (Null) irValue() {}

// String represents a text column value.
type String string

func (String) irValue() {}

// Int represents an integer column value.
// Always int64, never float64.
type Int int64

func (Int) irValue() {}

// Kind is the declared type of a column.
type Kind int

const (
	KindInt Kind = iota + 1
	KindString
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Accepts reports whether v may be stored in a column of kind k.
// Null is never accepted; columns are written with concrete values only.
func (k Kind) Accepts(v Value) bool {
	switch v.(type) {
	case Int:
		return k == KindInt
	case String:
		return k == KindString
	default:
		return false
	}
}

// NewString creates a String value in Unicode normalization form C.
func NewString(s string) String {
	return String(norm.NFC.String(s))
}

// NewInt creates an Int value.
func NewInt(n int64) Int {
	return Int(n)
}

// Param converts a Value to a Go native type for use as a SQL parameter.
func Param(v Value) (any, error) {
	switch val := v.(type) {
	case String:
		return string(val), nil
	case Int:
		return int64(val), nil
	case Null:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported value type for SQL parameter: %T", v)
	}
}

// FromSQL converts a value scanned from a driver into a Value of kind k.
// Drivers differ in how they surface TEXT (string or []byte) and INTEGER
// (int64, or text when SQLite affinity could not convert), so both are accepted.
func FromSQL(k Kind, src any) (Value, error) {
	if src == nil {
		return Null{}, nil
	}

	switch k {
	case KindInt:
		switch val := src.(type) {
		case int64:
			return Int(val), nil
		case int32:
			return Int(val), nil
		case int:
			return Int(val), nil
		case []byte:
			return parseInt(string(val))
		case string:
			return parseInt(val)
		}
	case KindString:
		switch val := src.(type) {
		case string:
			return String(val), nil
		case []byte:
			return String(val), nil
		case int64:
			return String(strconv.FormatInt(val, 10)), nil
		}
	}
	return nil, fmt.Errorf("cannot convert %T to %s", src, k)
}

func parseInt(s string) (Value, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("not an integer: %q", s)
	}
	return Int(n), nil
}

// MarshalValue marshals a Value to JSON bytes.
func MarshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case Null:
		return []byte("null"), nil
	case String:
		return json.Marshal(string(val))
	case Int:
		return json.Marshal(int64(val))
	default:
		return nil, fmt.Errorf("unknown value type: %T", v)
	}
}
