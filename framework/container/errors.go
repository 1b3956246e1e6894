package container

import "fmt"

// ErrorCode classifies container failures so callers can branch on them
// with errors.Is without parsing messages.
type ErrorCode string

const (
	// ErrCodeInvalidStrategy: an explicit strategy does not fit the definition.
	ErrCodeInvalidStrategy ErrorCode = "INVALID_STRATEGY"
	// ErrCodeUnknownStrategy: a recipe carries a strategy with no resolver.
	ErrCodeUnknownStrategy ErrorCode = "UNKNOWN_STRATEGY"
	// ErrCodeUnrealized: a recipe value was read before it was realized.
	ErrCodeUnrealized ErrorCode = "UNREALIZED"
	// ErrCodeMissingRequired: Open found required placeholders with no value.
	ErrCodeMissingRequired ErrorCode = "MISSING_REQUIRED"
	// ErrCodeDuplicateOverride: an override was supplied twice, or while open.
	ErrCodeDuplicateOverride ErrorCode = "DUPLICATE_OVERRIDE"
	// ErrCodeUnknownOverride: an override names no registered recipe.
	ErrCodeUnknownOverride ErrorCode = "UNKNOWN_OVERRIDE"
	// ErrCodeReplacement: double replacement or a leaked replacement value.
	ErrCodeReplacement ErrorCode = "REPLACEMENT_MISUSE"
	// ErrCodeNotOpen: Close was called more times than Open.
	ErrCodeNotOpen ErrorCode = "NOT_OPEN"
	// ErrCodeStillOpen: the operation needs a container with no visitors.
	ErrCodeStillOpen ErrorCode = "STILL_OPEN"
	// ErrCodeNotFound: no recipe is registered under the name.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeAccessor: an attribute or index step could not be applied.
	ErrCodeAccessor ErrorCode = "ACCESSOR"
	// ErrCodeNotIterable: a deferred accessor was used as a sequence.
	ErrCodeNotIterable ErrorCode = "NOT_ITERABLE"
	// ErrCodeBadCall: realized arguments do not fit the callable.
	ErrCodeBadCall ErrorCode = "BAD_CALL"
)

// Sentinels for errors.Is. Matching is done on the code only.
var (
	ErrInvalidStrategy   = &Error{Code: ErrCodeInvalidStrategy}
	ErrUnknownStrategy   = &Error{Code: ErrCodeUnknownStrategy}
	ErrUnrealized        = &Error{Code: ErrCodeUnrealized}
	ErrMissingRequired   = &Error{Code: ErrCodeMissingRequired}
	ErrDuplicateOverride = &Error{Code: ErrCodeDuplicateOverride}
	ErrUnknownOverride   = &Error{Code: ErrCodeUnknownOverride}
	ErrReplacement       = &Error{Code: ErrCodeReplacement}
	ErrNotOpen           = &Error{Code: ErrCodeNotOpen}
	ErrStillOpen         = &Error{Code: ErrCodeStillOpen}
	ErrNotFound          = &Error{Code: ErrCodeNotFound}
	ErrAccessor          = &Error{Code: ErrCodeAccessor}
	ErrNotIterable       = &Error{Code: ErrCodeNotIterable}
	ErrBadCall           = &Error{Code: ErrCodeBadCall}
)

// Error is the structured error returned by the container.
type Error struct {
	Code    ErrorCode
	Message string
	// Recipe is the formatted recipe or container the error is about.
	Recipe string
	Cause  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Recipe != "" {
		msg = e.Recipe + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap returns the underlying cause for errors.Is and errors.As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func newError(code ErrorCode, subject fmt.Stringer, format string, args ...any) *Error {
	e := &Error{Code: code, Message: fmt.Sprintf(format, args...)}
	if subject != nil {
		e.Recipe = subject.String()
	}
	return e
}

func wrapError(code ErrorCode, subject fmt.Stringer, cause error, format string, args ...any) *Error {
	e := newError(code, subject, format, args...)
	e.Cause = cause
	return e
}
