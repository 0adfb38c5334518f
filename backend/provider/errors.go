package provider

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind is the normalized provider error taxonomy, mapped from each
// backend's own status codes and error types.
type ErrorKind string

const (
	ErrorKindAuth            ErrorKind = "auth_error"
	ErrorKindBadRequest      ErrorKind = "bad_request"
	ErrorKindRateLimit       ErrorKind = "rate_limit_error"
	ErrorKindServer          ErrorKind = "server_error"
	ErrorKindTimeout         ErrorKind = "timeout_error"
	ErrorKindConnection      ErrorKind = "connection_error"
	ErrorKindUnknown         ErrorKind = "error"
)

// Error is the single error type every Provider method returns on failure.
type Error struct {
	Provider   string
	Kind       ErrorKind
	RetryAfter time.Duration
	Err        error
}

func NewError(provider string, kind ErrorKind, err error) *Error {
	return &Error{Provider: provider, Kind: kind, Err: err}
}

// Retryable reports whether the retry loop should retry this error. The
// provider-directed delay, if any, is carried separately in RetryAfter.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case ErrorKindRateLimit, ErrorKindServer, ErrorKindTimeout, ErrorKindConnection:
		return true
	default:
		return false
	}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Err.Error())
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AsError unwraps err into a *Error, normalizing a non-Error into an
// ErrorKindUnknown wrapper so callers can always switch on Kind.
func AsError(provider string, err error) *Error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	return NewError(provider, ErrorKindUnknown, err)
}
