// Package apperror defines the error kinds the service reports to callers.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error so the transport layer can map it to a status.
type Kind int

const (
	Internal Kind = iota
	Validation
	Unauthenticated
	Forbidden
	NotFound
	Conflict
	RateLimited
	UpstreamInvalid
	UpstreamTimeout
)

// Code returns the wire code for the kind.
func (k Kind) Code() string {
	switch k {
	case Validation:
		return "VALIDATION"
	case Unauthenticated:
		return "UNAUTHENTICATED"
	case Forbidden:
		return "FORBIDDEN"
	case NotFound:
		return "NOT_FOUND"
	case Conflict:
		return "CONFLICT"
	case RateLimited:
		return "RATE_LIMITED"
	case UpstreamInvalid:
		return "UPSTREAM_INVALID"
	case UpstreamTimeout:
		return "UPSTREAM_TIMEOUT"
	default:
		return "INTERNAL"
	}
}

// Error carries a kind, a human readable message and optional structured
// details for the response body.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]interface{}
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error of kind with a message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an Error of kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of kind around err, keeping err reachable for
// errors.Is and errors.As.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithDetail attaches one structured detail and returns the same error so
// calls can be chained.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// KindOf reports the kind of err, or Internal when err carries none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// MessageOf returns the user facing message of err, or a generic message for
// errors that do not carry one.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}

// DetailsOf returns the structured details of err, or nil.
func DetailsOf(err error) map[string]interface{} {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Details
	}
	return nil
}
