package dispatch

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrBindingCycle is returned when binding transforms depend on each other in a loop.
	ErrBindingCycle = errors.New("binding cycle detected")
	// ErrInvalidScope is returned (as a panic) for malformed filter scopes.
	ErrInvalidScope = errors.New("invalid filter scope")
	// ErrNilFunc is returned (as a panic) when registering a nil handler, filter or transform.
	ErrNilFunc = errors.New("nil function")
	// ErrReservedKey is returned when writing a session key used internally.
	ErrReservedKey = errors.New("reserved session key")
	// ErrNoRenderer is returned by Render and Partial when no renderer is configured.
	ErrNoRenderer = errors.New("no renderer configured")
	// ErrNoSpool is returned by RequestBodyRef when no body spool is configured.
	ErrNoSpool = errors.New("no body spool configured")
	// ErrNoStore is returned by session operations when no session store is configured.
	ErrNoStore = errors.New("no session store configured")
)

// StatusError is an error carrying an HTTP status. Returning one from a handler,
// filter or binding produces that status instead of 500.
type StatusError struct {
	Code    int
	Message string
}

// NewError creates a StatusError. An empty message uses the default message for code.
func NewError(code int, message string) *StatusError {
	return &StatusError{Code: code, Message: message}
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Code)
}

// StatusCode returns the HTTP status code for the error.
func (e *StatusError) StatusCode() int {
	return e.Code
}

// PanicError wraps a value recovered from a panicking handler, filter or transform.
type PanicError struct {
	value any
	stack []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

// Value returns the original panic value.
func (e *PanicError) Value() any {
	return e.value
}

// Stack returns the stack trace captured at recovery.
func (e *PanicError) Stack() []byte {
	return e.stack
}

// Unwrap allows errors.Is/As to work with wrapped panics.
func (e *PanicError) Unwrap() error {
	if err, ok := e.value.(error); ok {
		return err
	}
	return nil
}
