package aura

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures of the keyboard LED subsystem.
type ErrorKind string

// ErrorKind constants.
const (
	// KindCapabilityMissing means the hardware lacks a node or feature. Usually degrades, rarely fatal.
	KindCapabilityMissing ErrorKind = "CAPABILITY_MISSING"

	// KindNodeMissing means an expected sysfs or device path is absent at runtime.
	// It can be transient across a kernel module reload.
	KindNodeMissing ErrorKind = "NODE_MISSING"

	KindIO           ErrorKind = "IO"
	KindParse        ErrorKind = "PARSE"
	KindNotSupported ErrorKind = "NOT_SUPPORTED"
	KindEnumeration  ErrorKind = "ENUMERATION"
)

// Error is the error type returned by the aura, store and led packages.
type Error struct {
	Kind    ErrorKind
	Message string
	Path    string
	Cause   error
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrCapabilityMissing = &Error{Kind: KindCapabilityMissing}
	ErrNodeMissing       = &Error{Kind: KindNodeMissing}
	ErrIO                = &Error{Kind: KindIO}
	ErrParse             = &Error{Kind: KindParse}
	ErrNotSupported      = &Error{Kind: KindNotSupported}
	ErrEnumeration       = &Error{Kind: KindEnumeration}
)

// NewError creates a new error of the given kind.
func NewError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// NewPathError creates a new error of the given kind bound to a filesystem path.
func NewPathError(kind ErrorKind, path, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Path: path, Cause: cause}
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" (%s)", e.Path)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches sentinel errors by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message == "" && t.Path == "" && t.Cause == nil {
		return e.Kind == t.Kind
	}
	return e == t
}

// IsKind reports whether any error in err's chain is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
