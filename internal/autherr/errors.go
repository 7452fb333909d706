package autherr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure the way callers branch on it. Every error that
// crosses a public operation boundary carries exactly one kind.
type Kind string

const (
	// KindIO covers socket and stream failures.
	KindIO Kind = "io"
	// KindAuthFailed covers missing or invalid authorization parameters,
	// rejected token exchanges, and worker panics during an exchange.
	KindAuthFailed Kind = "authentication_failed"
	// KindConfiguration covers invalid caller input.
	KindConfiguration Kind = "configuration"
	// KindNetwork covers bind failures, browser-launch failures, and HTTP
	// transport failures.
	KindNetwork Kind = "network"
)

func (k Kind) label() string {
	switch k {
	case KindIO:
		return "io error"
	case KindAuthFailed:
		return "authentication failed"
	case KindConfiguration:
		return "configuration error"
	case KindNetwork:
		return "network error"
	}
	return string(k)
}

// Error is the typed error returned by every component boundary.
type Error struct {
	Kind  Kind
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind.label(), e.msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind.label(), e.msg)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a typed error without an underlying cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, msg: msg}
}

// Wrap creates a typed error carrying an underlying cause for errors.Is/As.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, msg: msg, cause: cause}
}

// Authf creates an authentication-failed error.
func Authf(format string, args ...any) *Error {
	return &Error{Kind: KindAuthFailed, msg: fmt.Sprintf(format, args...)}
}

// Configf creates a configuration error.
func Configf(format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, msg: fmt.Sprintf(format, args...)}
}

// Netf creates a network error.
func Netf(format string, args ...any) *Error {
	return &Error{Kind: KindNetwork, msg: fmt.Sprintf(format, args...)}
}

// IOf creates an io error.
func IOf(format string, args ...any) *Error {
	return &Error{Kind: KindIO, msg: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is (or wraps) a typed error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
