package cli

import (
	"errors"
	"fmt"
)

// Process exit statuses returned by Execute.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the command ran and failed (query or server error)
	ExitCommandError = 2 // the command could not start (config, filter, database)
)

// Error codes printed with a failed command.
const (
	CodeUsage  = "USAGE_ERROR"  // bad arguments or flags, reported by cobra
	CodeConfig = "CONFIG_ERROR" // .env, config file or validation failure
	CodeFilter = "FILTER_ERROR" // malformed --filter
	CodeStore  = "STORE_ERROR"  // opening or querying the database
	CodeServer = "SERVER_ERROR" // the HTTP server stopped with an error
)

// ExitError is a command failure with its exit status and error code.
// Details carries context safe to print, such as the driver or config path.
type ExitError struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// with adds a detail and returns e for chaining.
func (e *ExitError) with(key string, value any) *ExitError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// commandError reports a command that could not start.
func commandError(code, message string, err error) *ExitError {
	return &ExitError{Status: ExitCommandError, Code: code, Message: message, Err: err}
}

// runtimeError reports a command that started and then failed.
func runtimeError(code, message string, err error) *ExitError {
	return &ExitError{Status: ExitFailure, Code: code, Message: message, Err: err}
}

// asExitError classifies err. Errors that are not an ExitError come from
// cobra's argument and flag parsing and are reported as usage errors.
func asExitError(err error) *ExitError {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	return &ExitError{Status: ExitCommandError, Code: CodeUsage, Message: err.Error()}
}

// ExitStatus returns the process exit status for err.
func ExitStatus(err error) int {
	if err == nil {
		return ExitSuccess
	}
	return asExitError(err).Status
}
