package apperr

import (
	"errors"
	"fmt"
)

// Sentinel failure classes raised by the settlement and subscription
// services. Controllers and webhook handlers translate them to HTTP
// status codes; everything else maps to a 500-class upstream failure.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidState = errors.New("invalid state")
	ErrAlreadyUsed  = errors.New("already used")
	ErrTooSoon      = errors.New("too soon")
	ErrPlanMismatch = errors.New("plan mismatch")
	ErrUpstream     = errors.New("upstream failure")
)

// Error couples a failure class with a human-readable message and an
// optional client redirect hint.
type Error struct {
	Kind     error
	Message  string
	Redirect string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Kind }

// New builds an Error of the given class.
func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an Error with a formatted message.
func Newf(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithRedirect attaches a client redirect hint.
func (e *Error) WithRedirect(path string) *Error {
	e.Redirect = path
	return e
}

// IsNotFound reports whether err is a not-found failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// RedirectOf extracts the redirect hint from err, if any.
func RedirectOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Redirect
	}
	return ""
}

// MessageOf returns the user-facing message for err. Unexpected errors
// collapse to a generic message so internals never leak to clients.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	for _, kind := range []error{ErrNotFound, ErrUnauthorized, ErrInvalidState, ErrAlreadyUsed, ErrTooSoon, ErrPlanMismatch} {
		if errors.Is(err, kind) {
			return err.Error()
		}
	}
	return "Something went wrong"
}
