package dispatch

import (
	"net/http"

	"github.com/roach88/toolserve/internal/ir"
)

// Operation is one record store call. It is a closed set: Select, Insert,
// Update and SoftDelete.
type Operation interface {
	operation() // Marker method - seals interface to this package
}

// Select reads the records matching every field of Filter.
type Select struct {
	Filter ir.Row
}

// Insert adds Record as a new row.
type Insert struct {
	Record ir.Row
}

// Update changes the record identified by ID to the values in Set.
type Update struct {
	ID  int64
	Set ir.Row
}

// SoftDelete marks the record identified by ID inactive.
type SoftDelete struct {
	ID int64
}

func (Select) operation()     {}
func (Insert) operation()     {}
func (Update) operation()     {}
func (SoftDelete) operation() {}

// Methods lists the HTTP methods with an operation, in dispatch table order.
var Methods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}

// Supported reports whether method maps to an operation.
func Supported(method string) bool {
	for _, m := range Methods {
		if m == method {
			return true
		}
	}
	return false
}

// Plan selects the operation for method and payload.
//
// The payload has already been decoded and typed by the caller; Plan only
// enforces the per-method shape:
//   - POST needs at least one field
//   - PUT needs a positive integer id and at least one other field
//   - DELETE needs exactly a positive integer id
func Plan(method string, payload ir.Row, key string) (Operation, error) {
	switch method {
	case http.MethodGet:
		return Select{Filter: payload}, nil

	case http.MethodPost:
		if len(payload) == 0 {
			return nil, NewError(KindValidation, "record has no fields")
		}
		return Insert{Record: payload}, nil

	case http.MethodPut:
		set, v, ok := payload.Without(key)
		if !ok {
			return nil, NewError(KindValidation, "missing "+key)
		}
		id, err := positiveID(key, v)
		if err != nil {
			return nil, err
		}
		if len(set) == 0 {
			return nil, NewError(KindValidation, "no fields to update")
		}
		return Update{ID: id, Set: set}, nil

	case http.MethodDelete:
		rest, v, ok := payload.Without(key)
		if !ok {
			return nil, NewError(KindValidation, "missing "+key)
		}
		if len(rest) > 0 {
			return nil, NewError(KindValidation, "unexpected fields: delete takes only "+key)
		}
		id, err := positiveID(key, v)
		if err != nil {
			return nil, err
		}
		return SoftDelete{ID: id}, nil

	default:
		return nil, NewError(KindUnsupportedMethod, "unsupported method "+method)
	}
}

// positiveID checks that v is an integer key greater than zero.
// Zero is treated as absent.
func positiveID(key string, v ir.Value) (int64, error) {
	n, ok := v.(ir.Int)
	if !ok {
		return 0, NewError(KindValidation, key+" must be an integer")
	}
	if n <= 0 {
		return 0, NewError(KindValidation, key+" must be positive")
	}
	return int64(n), nil
}
