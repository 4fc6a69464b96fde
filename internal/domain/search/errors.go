package search

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed operation. The retry policy consults the
// kind rather than matching error strings.
type ErrorKind string

const (
	KindAuthentication ErrorKind = "authentication"
	KindRateLimited    ErrorKind = "rate_limited"
	KindTimeout        ErrorKind = "timeout"
	KindNetwork        ErrorKind = "network"
	KindUpstream       ErrorKind = "upstream"        // provider 5xx
	KindInvalidRequest ErrorKind = "invalid_request" // provider 4xx other than 401/403/429
	KindValidation     ErrorKind = "validation"      // rejected before any network call
	KindUnavailable    ErrorKind = "unavailable"     // circuit breaker open, gate cancelled
)

// Error is the typed failure surfaced by every search operation.
type Error struct {
	Kind       ErrorKind
	Op         string // e.g. "tavily_search"
	StatusCode int    // upstream HTTP status when applicable
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (status %d): %s", e.Op, e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Transient reports whether a retry is expected to help.
func (e *Error) Transient() bool {
	switch e.Kind {
	case KindRateLimited, KindTimeout, KindNetwork, KindUpstream:
		return true
	default:
		return false
	}
}

// NewError builds a typed error for an operation.
func NewError(op string, kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// NewStatusError builds a typed error carrying the upstream HTTP status.
func NewStatusError(op string, kind ErrorKind, status int, message string) *Error {
	return &Error{Kind: kind, Op: op, StatusCode: status, Message: message}
}

// NewValidationError builds a pre-dispatch validation failure.
func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Op: "validate", Message: message}
}

// KindOf extracts the kind from an error chain, defaulting to KindUpstream
// for untyped errors so that unknown failures stay retryable.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUpstream
}

// IsTransient reports whether err should trigger a retry.
func IsTransient(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Transient()
	}
	// Untyped errors are treated as transient upstream trouble.
	return err != nil
}
