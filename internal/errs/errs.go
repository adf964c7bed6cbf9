// Package errs defines the error kinds shared across the service and how they
// surface at the HTTP boundary.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorizes an error by how callers are expected to react to it.
type Kind string

const (
	// KindTransport covers network timeouts and non-2xx responses from external APIs.
	// These are degraded locally (empty result, missing embedding) and never surface to clients.
	KindTransport Kind = "transport"
	// KindProvider covers failures reported by the embedding or completion provider.
	// They are logged and turned into user-visible text.
	KindProvider Kind = "provider"
	// KindValidation covers malformed input. Raised before any external call.
	KindValidation Kind = "validation"
	// KindNotFound is returned when a requested record does not exist.
	KindNotFound Kind = "not_found"
	// KindUnauthorized is returned when the shared API key is missing or wrong.
	KindUnauthorized Kind = "unauthorized"
	// KindInternal is everything else.
	KindInternal Kind = "internal"
)

// Error carries a Kind, a client-safe message, and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind, so errors.Is(err, errs.Validation("")) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New returns an error of the given kind.
func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation returns a KindValidation error.
func Validation(message string) *Error {
	return New(KindValidation, message, nil)
}

// Transport wraps err as a KindTransport error.
func Transport(message string, err error) *Error {
	return New(KindTransport, message, err)
}

// Provider wraps err as a KindProvider error.
func Provider(message string, err error) *Error {
	return New(KindProvider, message, err)
}

// NotFound returns a KindNotFound error.
func NotFound(message string) *Error {
	return New(KindNotFound, message, nil)
}

// KindOf returns the Kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err (or anything it wraps) has the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the client-safe message of err. Non-taxonomy errors get a generic message.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}

// HTTPStatus maps an error to the status code handlers should respond with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindTransport, KindProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
