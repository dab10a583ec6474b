// Package errors provides structured error types for tilegrid.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP API and the library
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - *_NOT_FOUND: Resource not found
//   - CONTENT_ERROR: Media that could not be loaded or probed
//   - INTERNAL_*: Unexpected internal errors
//
// Layout code itself does not return errors for odd numeric options. Those are
// clamped (see the grid packages). Errors are reserved for inputs that cannot be
// interpreted at all: an unknown grid kind, a malformed frame template, a
// selector matching nothing.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidKind, "unknown grid kind: %s", name)
//	if errors.Is(err, errors.ErrCodeInvalidKind) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeContent, origErr, "probe %s", src)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidOption   Code = "INVALID_OPTION"
	ErrCodeInvalidKind     Code = "INVALID_KIND"
	ErrCodeInvalidFrame    Code = "INVALID_FRAME"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidSelector Code = "INVALID_SELECTOR"
	ErrCodeInvalidStatus   Code = "INVALID_STATUS"

	// Resource not found errors
	ErrCodeNotFound          Code = "NOT_FOUND"
	ErrCodeContainerNotFound Code = "CONTAINER_NOT_FOUND"
	ErrCodeSnapshotNotFound  Code = "SNAPSHOT_NOT_FOUND"

	// Content and lifecycle errors
	ErrCodeContent   Code = "CONTENT_ERROR"
	ErrCodeTimeout   Code = "TIMEOUT"
	ErrCodeDestroyed Code = "DESTROYED"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// HTTPStatus maps an error code to the status used by the HTTP API.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidOption, ErrCodeInvalidKind, ErrCodeInvalidFrame,
		ErrCodeInvalidFormat, ErrCodeInvalidSelector, ErrCodeInvalidStatus:
		return 400
	case ErrCodeNotFound, ErrCodeContainerNotFound, ErrCodeSnapshotNotFound:
		return 404
	case ErrCodeContent:
		return 422
	case ErrCodeTimeout:
		return 504
	case ErrCodeUnsupported:
		return 501
	default:
		return 500
	}
}
