// Package errors provides structured error types for thoughtgraph.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the terminal viewer and the HTTP API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages for the viewer's error banner
//   - Error wrapping with context preservation
//
// # Taxonomy
//
// Three codes describe everything that can go wrong while turning a file into a graph:
//   - FILE_NOT_FOUND: the input path does not resolve to a readable file
//   - INVALID_JSON: the input is not syntactically valid JSON
//   - INVALID_SCHEMA: an entry lacks its identifier, or an edge references
//     an identifier that is not a declared node
//
// All three are recoverable: the viewer shows the message and the user retries
// with another file.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeSchema, "node entry %d has no identifier", i)
//	if errors.Is(err, errors.ErrCodeSchema) {
//	    // Handle schema error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeFileNotFound, origErr, "cannot read %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidJSON  Code = "INVALID_JSON"
	ErrCodeSchema       Code = "INVALID_SCHEMA"
	ErrCodeInvalidPath  Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

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

// NotFound reports an input path that does not resolve to a readable file.
func NotFound(cause error, format string, args ...any) *Error {
	return Wrap(ErrCodeFileNotFound, cause, format, args...)
}

// Parse reports input that is not syntactically valid JSON.
func Parse(cause error, format string, args ...any) *Error {
	return Wrap(ErrCodeInvalidJSON, cause, format, args...)
}

// Schema reports valid JSON that cannot be interpreted as a graph.
func Schema(format string, args ...any) *Error {
	return New(ErrCodeSchema, format, args...)
}

// Is reports whether err has the given error code.
// It returns the code of the outermost *Error in the chain.
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

// Title returns a short heading for the error code, used by the viewer banner.
func Title(code Code) string {
	switch code {
	case ErrCodeFileNotFound:
		return "File not found"
	case ErrCodeInvalidJSON:
		return "Invalid JSON file"
	case ErrCodeSchema:
		return "Unexpected document shape"
	case ErrCodeNotFound:
		return "Not found"
	case ErrCodeInvalidInput, ErrCodeInvalidPath:
		return "Invalid request"
	default:
		return "Error"
	}
}
