// Package nexuserr implements a small, closed set of observable error kinds
// shared across every component, each carrying a stable code and human
// message instead of a native stack trace, and mapping to the CLI's
// process exit-status contract.
package nexuserr

import (
	"errors"
	"fmt"
)

// Kind is one of the taxonomy's observable error kinds.
type Kind int

const (
	KindInvalidInput Kind = iota
	KindMalformedEvent
	KindIOError
	KindStoreCorrupted
	KindStoreConnectionFailed
	KindTransactionFailed
	KindFutureDateRejected
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "InvalidInput"
	case KindMalformedEvent:
		return "MalformedEventLine"
	case KindIOError:
		return "IoError"
	case KindStoreCorrupted:
		return "StoreCorrupted"
	case KindStoreConnectionFailed:
		return "StoreConnectionFailed"
	case KindTransactionFailed:
		return "TransactionFailed"
	case KindFutureDateRejected:
		return "FutureDateRejected"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type carried across component boundaries.
type Error struct {
	Kind    Kind
	Path    string // file path, when applicable
	Line    int    // line number, when applicable (0 = n/a)
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Path != "" {
		msg = fmt.Sprintf("%s (path=%s)", msg, e.Path)
	}
	if e.Line > 0 {
		msg = fmt.Sprintf("%s (line=%d)", msg, e.Line)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// ExitCode maps a Kind to the process exit status:
// 0 success, 1 generic error, 2 invalid usage, 3 store corrupted/recoverable,
// 4 IO error.
func (e *Error) ExitCode() int {
	switch e.Kind {
	case KindInvalidInput, KindFutureDateRejected:
		return 2
	case KindStoreCorrupted:
		return 3
	case KindIOError:
		return 4
	default:
		return 1
	}
}

// New builds an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind around an existing cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WithPath attaches a file path to an Error, returning the receiver.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithLine attaches a line number to an Error, returning the receiver.
func (e *Error) WithLine(line int) *Error {
	e.Line = line
	return e
}

// IsKind reports whether err (or any error it wraps) is a *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}

// ExitCode returns the process exit status for any error, defaulting to 1
// (generic error) for errors outside the taxonomy, and 0 for nil.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return e.ExitCode()
	}
	return 1
}
