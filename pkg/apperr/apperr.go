// Package apperr defines the error taxonomy shared by the engine, the
// session coordinator, and the HTTP surface.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the HTTP collaborator
type Kind string

// error kinds
const (
	NotFound        Kind = "not_found"
	Unauthorized    Kind = "unauthorized"
	InvalidState    Kind = "invalid_state"
	InvalidArgument Kind = "invalid_argument"
	Conflict        Kind = "conflict"
	Transient       Kind = "transient"
	Internal        Kind = "internal"
)

// Error is a tagged failure with a short machine-readable reason
type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string {
	return e.Reason
}

// Is reports kind equality so errors.Is(err, apperr.E(kind, "")) works on the kind alone
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}

	return e.Kind == other.Kind
}

// E returns a new tagged error
func E(kind Kind, format string, a ...interface{}) *Error {
	return &Error{
		Kind:   kind,
		Reason: fmt.Sprintf(format, a...),
	}
}

// KindOf returns the kind of err, or Internal if err carries no kind
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return Internal
}
