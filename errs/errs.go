// Package errs holds the failure taxonomy shared by every pms-finder package.
//
// A Kind is itself an error, so callers branch with errors.Is:
//
//	if errors.Is(err, errs.PartitionNotFound) { ... fall back to a vendor ... }
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	SchemaViolation        Kind = "schema violation"
	UnresolvedColor        Kind = "unresolved color"
	UpstreamUnavailable    Kind = "upstream unavailable"
	UpstreamTimeout        Kind = "upstream timeout"
	MalformedUpstreamShape Kind = "malformed upstream shape"
	PartitionNotFound      Kind = "partition not found"
	InvalidInput           Kind = "invalid input"
	FormulaNotFound        Kind = "formula not found"
)

func (k Kind) Error() string { return string(k) }

// Error is a classified failure with a human-readable message.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

// New builds a classified error. err may be nil.
func New(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// Newf is New with a formatted message and no cause.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the error's own kind. A timeout also counts as unavailable.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	if !ok {
		return false
	}
	if k == e.Kind {
		return true
	}
	return k == UpstreamUnavailable && e.Kind == UpstreamTimeout
}

// KindOf returns the kind of the first classified error in the chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	var k Kind
	if errors.As(err, &k) {
		return k, true
	}
	return "", false
}

// IsRetryable reports whether the caller may retry the failed operation as-is.
func IsRetryable(err error) bool {
	return errors.Is(err, UpstreamTimeout)
}

// Message returns the human-readable part of a classified error, or err.Error().
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
