// Package apperr defines the error kinds the card service reports to its callers.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error
type Kind string

const (
	KindNotFound      Kind = "not_found"
	KindInvalidInput  Kind = "invalid_input"
	KindCardNotActive Kind = "card_not_active"
	KindLimitExceeded Kind = "limit_exceeded"
	KindStore         Kind = "store_error"
	KindUnauthorized  Kind = "unauthorized"
	KindConflict      Kind = "conflict"
)

// Sentinels usable with errors.Is
var (
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrInvalidInput  = &Error{Kind: KindInvalidInput}
	ErrCardNotActive = &Error{Kind: KindCardNotActive}
	ErrLimitExceeded = &Error{Kind: KindLimitExceeded}
	ErrStore         = &Error{Kind: KindStore}
	ErrUnauthorized  = &Error{Kind: KindUnauthorized}
	ErrConflict      = &Error{Kind: KindConflict}
)

// Error is a domain error carrying a short, user presentable message
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return string(e.Kind)
	}
	return e.Msg
}

// Is matches any *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing card, operation, alert or client
func NotFound(format string, args ...any) error { return newf(KindNotFound, format, args...) }

// InvalidInput reports a malformed or out-of-range argument
func InvalidInput(format string, args ...any) error { return newf(KindInvalidInput, format, args...) }

// CardNotActive reports an operation attempted on a card that is not ACTIVE
func CardNotActive(format string, args ...any) error { return newf(KindCardNotActive, format, args...) }

// LimitExceeded reports an amount above the card's remaining limit
func LimitExceeded(format string, args ...any) error { return newf(KindLimitExceeded, format, args...) }

// Unauthorized reports missing or rejected operator credentials
func Unauthorized(format string, args ...any) error { return newf(KindUnauthorized, format, args...) }

// Conflict reports a unique constraint clash such as a reused email
func Conflict(format string, args ...any) error { return newf(KindConflict, format, args...) }

// Store wraps a persistence failure. Domain errors pass through untouched;
// anything else is reduced to "failed to <op>" so driver details never
// reach the caller. Log the original error before wrapping it.
func Store(op string, err error) error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	return &Error{Kind: KindStore, Msg: "failed to " + op}
}

// KindOf returns the kind of err, or KindStore for foreign errors
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindStore
}
