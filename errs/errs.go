// Package errs defines the failure kinds surfaced to hosts.
//
// Every command failure carries exactly one Kind. Hosts turn it into a
// (code, message) pair with Code and err.Error().
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	InvalidState        Kind = "invalid_state"
	NotFound            Kind = "not_found"
	ResourceUnavailable Kind = "resource_unavailable"
	EngineError         Kind = "engine_error"
	InternalTimeout     Kind = "internal_timeout"
)

// Error is a classified failure of operation Op.
type Error struct {
	Kind   Kind
	Op     string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind, so errors.Is(err, &Error{Kind: NotFound}) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Detail == "" && t.Err == nil
}

// Code returns the kind of err, or an empty string if err is not classified.
func Code(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return Code(err) == kind
}

func Invalid(op string, format string, args ...any) error {
	return &Error{Kind: InvalidState, Op: op, Detail: fmt.Sprintf(format, args...)}
}

func Missing(op string, id int64) error {
	return &Error{Kind: NotFound, Op: op, Detail: fmt.Sprintf("session %d", id)}
}

func Unavailable(op string, err error) error {
	return &Error{Kind: ResourceUnavailable, Op: op, Err: err}
}

func Engine(op string, err error) error {
	return &Error{Kind: EngineError, Op: op, Err: err}
}

func Timeout(op string, format string, args ...any) error {
	return &Error{Kind: InternalTimeout, Op: op, Detail: fmt.Sprintf(format, args...)}
}
