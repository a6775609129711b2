// Package fault is the error taxonomy every mutating operation in the core
// reports through. UI callers need to distinguish "you may not do this"
// (Denied) from "this no longer exists" (NotFound) from "the backing store
// failed" (Transient), and they need a human-readable reason string; nothing
// in this layer raises an unstructured fault across the API boundary.
package fault

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindDenied Kind = iota
	KindNotFound
	KindTransient
)

type Error struct {
	Kind   Kind
	Reason string
	Err    error // underlying store error, Transient only
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *Error) Unwrap() error { return e.Err }

// Denied builds a permission failure with a user-facing reason.
func Denied(reason string) error {
	return &Error{Kind: KindDenied, Reason: reason}
}

func Deniedf(format string, args ...any) error {
	return &Error{Kind: KindDenied, Reason: fmt.Sprintf(format, args...)}
}

func NotFound(reason string) error {
	return &Error{Kind: KindNotFound, Reason: reason}
}

// Transient wraps a backing-store failure. Gating reads treat it as Denied
// (fail closed); the API layer surfaces it distinctly so UIs can tell a
// network error from a permission error.
func Transient(reason string, err error) error {
	return &Error{Kind: KindTransient, Reason: reason, Err: err}
}

func kindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}

func IsDenied(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindDenied
}

func IsNotFound(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindNotFound
}

func IsTransient(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindTransient
}

// Reason extracts the user-facing reason, falling back to the raw error text
// for errors that did not come through this package.
func Reason(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Reason
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
