// Package status defines the closed set of outcome codes returned by
// core operations (storage navigation, booking, quality tests,
// transport, run control). A Code is an error, so it can be returned
// and compared directly the way the teacher returns sentinel errors
// from internal/tree and internal/storage.
package status

import "fmt"

// Code is a result of a core operation. The zero value is not a valid
// code; use Success for the affirmative case.
type Code int

const (
	// Success indicates the operation completed as requested.
	Success Code = iota + 1
	// Unchanged indicates the operation was a no-op because the state
	// already matched what was requested. It is a success variant, not
	// a failure: callers that only care about success should accept
	// both Success and Unchanged.
	Unchanged
	// Failure is a generic, otherwise unclassified failure.
	Failure
	// NotFound indicates a lookup found nothing at the given address.
	NotFound
	// NotAllowed indicates the operation is forbidden given the
	// current state (e.g., wrong password, component not open).
	NotAllowed
	// InvalidParameter indicates a caller-supplied argument is
	// malformed or out of its documented domain.
	InvalidParameter
	// InvalidPointer indicates a required handle was nil.
	InvalidPointer
	// OutOfRange indicates a numeric argument fell outside its
	// documented bounds.
	OutOfRange
	// AlreadyPresent indicates a duplicate insertion was rejected.
	AlreadyPresent
	// NotInitialized indicates the component has not completed setup.
	NotInitialized
	// Timeout indicates a blocking operation did not complete before
	// its deadline.
	Timeout
)

var names = map[Code]string{
	Success:          "SUCCESS",
	Unchanged:        "UNCHANGED",
	Failure:          "FAILURE",
	NotFound:         "NOT_FOUND",
	NotAllowed:       "NOT_ALLOWED",
	InvalidParameter: "INVALID_PARAMETER",
	InvalidPointer:   "INVALID_PTR",
	OutOfRange:       "OUT_OF_RANGE",
	AlreadyPresent:   "ALREADY_PRESENT",
	NotInitialized:   "NOT_INITIALIZED",
	Timeout:          "TIMEOUT",
}

// String implements fmt.Stringer.
func (c Code) String() string {
	if s, ok := names[c]; ok {
		return s
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// Error implements the error interface so a Code can be returned
// wherever an error is expected, and compared with errors.Is against
// another Code or a wrapped one.
func (c Code) Error() string {
	return c.String()
}

// Is lets errors.Is(err, status.NotFound) succeed when err wraps a
// Code via Wrap, without requiring the wrapped error to literally be
// the same Code value through equality.
func (c Code) Is(target error) bool {
	other, ok := target.(Code)
	return ok && other == c
}

// Ok reports whether c is a success variant (Success or Unchanged).
func (c Code) Ok() bool {
	return c == Success || c == Unchanged
}

// causeError pairs a Code with a causing error, so the code remains
// the thing callers switch on while the message keeps the detail.
type causeError struct {
	code  Code
	cause error
}

func (e *causeError) Error() string {
	if e.cause == nil {
		return e.code.String()
	}
	return fmt.Sprintf("%s: %v", e.code, e.cause)
}

func (e *causeError) Unwrap() error {
	return e.cause
}

func (e *causeError) Is(target error) bool {
	other, ok := target.(Code)
	return ok && other == e.code
}

// Wrap attaches cause to code, preserving code for errors.Is(err, code)
// while keeping cause reachable via errors.Unwrap / errors.As.
func Wrap(code Code, cause error) error {
	if cause == nil {
		return code
	}
	return &causeError{code: code, cause: cause}
}

// Wrapf is Wrap with a formatted cause, mirroring the errorf helpers
// used throughout the teacher's packages (internal/tree/error.go,
// internal/block/error.go).
func Wrapf(code Code, format string, a ...interface{}) error {
	return Wrap(code, fmt.Errorf(format, a...))
}

// From extracts the Code carried by err, if any, via errors.As-style
// unwrapping. ok is false if err does not carry a Code at all.
func From(err error) (Code, bool) {
	if err == nil {
		return Success, true
	}
	if c, ok := err.(Code); ok {
		return c, true
	}
	if ce, ok := err.(*causeError); ok {
		return ce.code, true
	}
	type unwrapper interface{ Unwrap() error }
	if u, ok := err.(unwrapper); ok {
		return From(u.Unwrap())
	}
	return Failure, false
}
