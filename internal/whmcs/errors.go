package whmcs

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of failure classes the client can report.
// The retry policy keys off Retryable() only, so a kind added without a
// retryable tag is never retried.
type ErrorKind string

const (
	// ErrKindAuthentication means the API rejected the credentials. Permanent.
	ErrKindAuthentication ErrorKind = "authentication"
	// ErrKindValidation means the caller supplied invalid input. Permanent.
	ErrKindValidation ErrorKind = "validation"
	// ErrKindConnection means the API could not be reached. Transient.
	ErrKindConnection ErrorKind = "connection"
	// ErrKindTimeout means the request exceeded its deadline. Transient.
	ErrKindTimeout ErrorKind = "timeout"
	// ErrKindAPI means the API returned an application-level error,
	// e.g. an unknown product ID or a malformed payload. Permanent.
	ErrKindAPI ErrorKind = "api"
)

// Retryable reports whether a failure of this kind may be retried.
func (k ErrorKind) Retryable() bool {
	switch k {
	case ErrKindConnection, ErrKindTimeout:
		return true
	}
	return false
}

// Error is the error type returned by the client.
type Error struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("whmcs: %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("whmcs: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// IsKind reports whether err is a client error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// IsRetryable reports whether err is a client error with a retryable kind.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind.Retryable()
}
