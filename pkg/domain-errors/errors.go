// Package domainerrors provides coded domain errors.
//
// Services and domain logic return *Error values carrying a machine-readable
// Code plus a human-readable message. Transport layers translate codes into
// HTTP statuses; callers branch on codes via HasCode without string matching.
//
// Infrastructure layers (stores, clients) return pkg/platform/sentinel errors
// instead; services translate those into coded errors at the boundary.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies a class of domain error.
type Code string

const (
	// Request shape and validation.
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeValidation   Code = "validation"

	// Resource state.
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInvariantViolation Code = "invariant_violation"

	// Reconciliation-specific.
	CodeLockedRecord   Code = "locked_record"
	CodeRoleMismatch   Code = "role_mismatch"
	CodeMalformedGuess Code = "malformed_guess"

	// Infrastructure.
	CodeTimeout  Code = "timeout"
	CodeInternal Code = "internal"
)

// Error is a coded domain error. It may wrap an underlying cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New constructs a coded error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. The cause remains
// reachable through errors.Unwrap for logging; callers should branch on the
// code, not the cause.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err or any error in its chain carries the given code.
func HasCode(err error, code Code) bool {
	var domainErr *Error
	for errors.As(err, &domainErr) {
		if domainErr.Code == code {
			return true
		}
		err = domainErr.Err
		if err == nil {
			return false
		}
	}
	return false
}

// Is is an alias for HasCode kept for call-site readability:
//
//	if dErrors.Is(err, dErrors.CodeNotFound) { ... }
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code in err's chain, or CodeInternal when err
// carries no code.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}
