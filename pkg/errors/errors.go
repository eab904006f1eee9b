// Package errors defines the coded errors shared by the supportree CLI and
// HTTP server.
//
// Every failure that reaches a user carries a [Code]. The CLI prints
// [UserMessage] and the server maps the code to a status, so neither has to
// match on error strings. Codes starting with INVALID_ describe bad input,
// codes ending in NOT_FOUND describe missing resources and the rest are
// backend or internal failures.
//
//	if err := p.Validate(); errors.Is(err, errors.ErrCodeInvalidJunction) {
//	    ...
//	}
package errors

import (
	stderrors "errors"
	"fmt"
)

// Code is a machine-readable error class.
type Code string

const (
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidPath     Code = "INVALID_PATH"
	ErrCodeInvalidGraph    Code = "INVALID_GRAPH"
	ErrCodeInvalidJunction Code = "INVALID_JUNCTION"
	ErrCodeInvalidBounds   Code = "INVALID_BOUNDS"

	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"
	ErrCodeRunNotFound  Code = "RUN_NOT_FOUND"
	ErrCodeTreeNotFound Code = "TREE_NOT_FOUND"

	ErrCodeBackend     Code = "BACKEND_ERROR"
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error pairs a [Code] with a message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an *Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return Wrap(code, nil, format, args...)
}

// Wrap returns an *Error that keeps cause reachable through errors.Is and
// errors.As.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// first returns the outermost *Error in err's chain.
func first(err error) (*Error, bool) {
	var e *Error
	ok := stderrors.As(err, &e)
	return e, ok
}

// Is reports whether the outermost *Error in err's chain has code.
func Is(err error, code Code) bool {
	e, ok := first(err)
	return ok && e.Code == code
}

// GetCode returns the code of the outermost *Error in err's chain, or "".
func GetCode(err error) Code {
	if e, ok := first(err); ok {
		return e.Code
	}
	return ""
}

// UserMessage renders err without its code prefix.
func UserMessage(err error) string {
	e, ok := first(err)
	switch {
	case !ok:
		return err.Error()
	case e.Cause != nil:
		return e.Message + ": " + e.Cause.Error()
	default:
		return e.Message
	}
}
