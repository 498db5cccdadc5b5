// Package apperr defines the coded errors shared by the relay components.
package apperr

import (
	"errors"
	"fmt"
)

type Code string

const (
	NotFound     Code = "NOT_FOUND"
	Transport    Code = "TRANSPORT_ERROR"
	RemoteCall   Code = "REMOTE_CALL_ERROR"
	Persistence  Code = "PERSISTENCE_ERROR"
	InvalidInput Code = "INVALID_INPUT"
)

// Error is a failure tagged with the component-level category it belongs to.
type Error struct {
	Code   Code
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a coded error. err may be nil.
func New(code Code, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// Newf creates a coded error with a formatted reason and no cause.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code of the first *Error in err's chain, or "" if there is none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// Reason returns the human readable reason of a coded error, falling back to err.Error().
func Reason(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Reason, e.Err)
		}
		return e.Reason
	}
	return err.Error()
}

// Summary returns only the coded reason, without the wrapped cause, for text shown
// to end users. Uncoded errors get a generic message.
func Summary(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return "unexpected error"
}
