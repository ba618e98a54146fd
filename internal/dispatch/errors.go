package dispatch

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorizes dispatch failures.
type Kind string

const (
	// KindDecode indicates the payload could not be parsed at all.
	KindDecode Kind = "DECODE_ERROR"

	// KindUnsupportedMethod indicates no operation exists for the method.
	KindUnsupportedMethod Kind = "UNSUPPORTED_METHOD"

	// KindValidation indicates a well-formed payload that cannot be applied:
	// missing or mistyped id, unknown column, nothing to write.
	KindValidation Kind = "VALIDATION_ERROR"

	// KindStore indicates the database rejected or failed the statement.
	KindStore Kind = "STORE_ERROR"
)

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindDecode:
		return http.StatusBadRequest
	case KindUnsupportedMethod:
		return http.StatusMethodNotAllowed
	case KindValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Error is a categorized dispatch failure.
type Error struct {
	Kind    Kind   // Failure category
	Message string // Client-facing description
	Err     error  // Underlying error (optional, not shown to clients)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an Error of the given kind.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError creates an Error of the given kind wrapping err.
func WrapError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind from err.
// Returns KindStore if err is not (and does not wrap) an *Error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindStore
}
