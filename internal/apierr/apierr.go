// Package apierr defines the error taxonomy used at HTTP boundaries.
//
// Every handler-reachable failure is wrapped in an *Error carrying a Kind;
// the HTTP layer maps Kind to a status code via errors.As instead of
// string-matching messages.
package apierr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the purpose of HTTP status mapping.
type Kind int

// Error kinds, mapped to HTTP status codes in httpapi.
const (
	KindInternal Kind = iota
	KindBadRequest
	KindNotFound
	KindConflict
	KindServiceUnavailable
	KindUpstream
	KindInvalidPath
)

// Error is a kind-tagged error with an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func newErr(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// BadRequest builds a 400-mapped error.
func BadRequest(msg string) *Error { return newErr(KindBadRequest, msg, nil) }

// NotFound builds a 404-mapped error.
func NotFound(msg string) *Error { return newErr(KindNotFound, msg, nil) }

// Conflict builds a 409-mapped error.
func Conflict(msg string) *Error { return newErr(KindConflict, msg, nil) }

// ServiceUnavailable builds a 503-mapped error.
func ServiceUnavailable(msg string) *Error { return newErr(KindServiceUnavailable, msg, nil) }

// Upstream builds a 502-mapped error, wrapping the transport/status cause.
func Upstream(msg string, cause error) *Error { return newErr(KindUpstream, msg, cause) }

// Internal builds a 500-mapped error, wrapping the underlying cause.
func Internal(msg string, cause error) *Error { return newErr(KindInternal, msg, cause) }

// InvalidPath builds a 400-mapped path-safety error.
func InvalidPath(msg string) *Error { return newErr(KindInvalidPath, msg, nil) }

// KindOf extracts the Kind of err if it is (or wraps) an *Error, defaulting
// to KindInternal for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
