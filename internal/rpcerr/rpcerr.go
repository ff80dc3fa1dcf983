package rpcerr

import (
	"errors"
	"fmt"

	"shroud/internal/status"
)

// Error is a structured failure report: a status code, a human-readable
// message, and optionally the literal JSON payload the peer sent.
//
// Values are immutable after construction, so they may be shared across
// goroutines and cloned freely.
type Error struct {
	status   status.Status
	message  string
	response string
}

// New builds an error with no peer payload.
func New(st status.Status, message string) *Error {
	return &Error{status: st, message: message}
}

// Newf builds an error with no peer payload from a format string.
func Newf(st status.Status, format string, args ...any) *Error {
	return &Error{status: st, message: fmt.Sprintf(format, args...)}
}

// Wrap builds an error whose message includes the cause. The cause is
// flattened into the message rather than chained: these errors cross a
// boundary where Go error chains do not survive.
func Wrap(st status.Status, message string, cause error) *Error {
	if cause == nil {
		return New(st, message)
	}
	return &Error{status: st, message: message + ": " + cause.Error()}
}

// WithResponse builds an error carrying the literal peer-supplied JSON
// payload. The payload is preserved byte for byte.
func WithResponse(st status.Status, message, response string) *Error {
	return &Error{status: st, message: message, response: response}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "(nil rpc error)"
	}
	return e.message
}

// Status returns the status code. A nil error maps to Internal, since only a
// library bug hands a nil *Error to a caller expecting a failure.
func (e *Error) Status() status.Status {
	if e == nil {
		return status.Internal
	}
	return e.status
}

// Response returns the literal peer-supplied JSON payload, if any. Purely
// local errors report false.
func (e *Error) Response() (string, bool) {
	if e == nil || e.response == "" {
		return "", false
	}
	return e.response, true
}

// Clone returns an independent copy that remains valid after the original is
// discarded.
func (e *Error) Clone() *Error {
	if e == nil {
		return nil
	}
	cp := *e
	return &cp
}

// From coerces any error into an *Error. Errors that are not already
// structured are reported as Internal: by the time an error reaches the
// boundary, anything unclassified is a library bug.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(status.Internal, "unexpected error", err)
}

// StatusOf reports the status carried by err, Success for nil, and Internal
// for unstructured errors.
func StatusOf(err error) status.Status {
	if err == nil {
		return status.Success
	}
	return From(err).Status()
}
