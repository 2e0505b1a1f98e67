// Package apperror defines the error taxonomy shared by the auth core.
// Services return precise kinds; the auth service collapses credential and
// session failures to KindAuthentication at its public boundary so callers
// cannot tell which check failed.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for propagation and retry decisions.
type Kind string

const (
	// KindValidation is malformed input (length/format).
	KindValidation Kind = "validation"
	// KindConflict is a uniqueness conflict (e.g. email already registered).
	KindConflict Kind = "conflict"
	// KindAuthentication is bad credentials or an invalid/expired/revoked
	// session. Deliberately undifferentiated at the public boundary.
	KindAuthentication Kind = "authentication"
	// KindAuthorization is a valid session with insufficient organization
	// role or membership.
	KindAuthorization Kind = "authorization"
	// KindTransientStorage is a persistence timeout or unavailability; safe
	// for the caller to retry with backoff.
	KindTransientStorage Kind = "transient_storage"
	// KindInternal is an invariant violation. Always logged, never retried
	// automatically.
	KindInternal Kind = "internal"
)

// Error carries a Kind, a caller-safe message, and an optional wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an Error with the given kind and message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap returns an Error with the given kind and message wrapping cause.
// Returns nil if cause is nil.
func Wrap(kind Kind, msg string, cause error) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// Validation returns a KindValidation error.
func Validation(msg string) *Error { return New(KindValidation, msg) }

// Conflict returns a KindConflict error.
func Conflict(msg string) *Error { return New(KindConflict, msg) }

// Authentication returns a KindAuthentication error. The message must not
// reveal which check failed.
func Authentication(msg string) *Error { return New(KindAuthentication, msg) }

// Authorization returns a KindAuthorization error.
func Authorization(msg string) *Error { return New(KindAuthorization, msg) }

// Transient returns a KindTransientStorage error wrapping cause.
func Transient(msg string, cause error) *Error {
	return &Error{Kind: KindTransientStorage, Msg: msg, Err: cause}
}

// Internal returns a KindInternal error wrapping cause.
func Internal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Msg: msg, Err: cause}
}

// KindOf returns the Kind of err, walking the wrap chain. Errors that carry
// no Kind classify as KindInternal; nil classifies as the zero Kind.
func KindOf(err error) Kind {
	if err == nil {
		return Kind("")
	}
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

// Retryable reports whether the caller may retry the operation. Only
// transient storage failures qualify.
func Retryable(err error) bool {
	return IsKind(err, KindTransientStorage)
}
