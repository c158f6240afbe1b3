// Package errors provides structured error types for vkmsctl.
//
// This package defines error codes and types that enable:
//   - Consistent error handling between the control-tree core and the CLI
//   - Machine-readable error codes mapped to distinct process exit codes
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Each failure kind of the core has its own code:
//   - INVALID_TOPOLOGY: structural violations found by the validator
//   - ALREADY_EXISTS / NOT_FOUND: identity conflicts against the control tree
//   - CORRUPT_STATE: control-tree contents violate the expected schema
//   - MATERIALIZE_FAILED: a create step was rejected by the filesystem
//   - DEVICE_BUSY: a removal step was rejected by the filesystem
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNotFound, "device %q does not exist", name)
//	if errors.Is(err, errors.ErrCodeNotFound) {
//	    // Handle missing device
//	}
//
//	// Wrap filesystem errors
//	err := errors.Wrap(errors.ErrCodeDeviceBusy, origErr, "remove %s", path)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"
	ErrCodeInvalidName     Code = "INVALID_NAME"
	ErrCodeInvalidTopology Code = "INVALID_TOPOLOGY"

	// Identity conflicts against the control tree
	ErrCodeAlreadyExists Code = "ALREADY_EXISTS"
	ErrCodeNotFound      Code = "NOT_FOUND"

	// Control-tree state errors
	ErrCodeCorruptState      Code = "CORRUPT_STATE"
	ErrCodeMaterializeFailed Code = "MATERIALIZE_FAILED"
	ErrCodeDeviceBusy        Code = "DEVICE_BUSY"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code     // Machine-readable error code
	Message string   // Human-readable message
	Path    string   // Control-tree path involved (optional)
	Details []string // Extra lines, e.g. residual paths (optional)
	Cause   error    // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	if e.Path != "" {
		fmt.Fprintf(&b, " (%s)", e.Path)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithPath sets the control-tree path and returns e.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithDetails appends detail lines and returns e.
func (e *Error) WithDetails(details ...string) *Error {
	e.Details = append(e.Details, details...)
	return e
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
// It unwraps the error chain looking for an *Error with a matching code,
// and treats a *ValidationError as ErrCodeInvalidTopology.
func Is(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}

// GetCode extracts the error code from an error, if available.
// The outermost coded error in the chain wins.
// Returns empty string if no coded error is found.
func GetCode(err error) Code {
	for err != nil {
		switch e := err.(type) {
		case *Error:
			return e.Code
		case *ValidationError:
			return ErrCodeInvalidTopology
		}
		err = errors.Unwrap(err)
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Path != "" {
			return fmt.Sprintf("%s (%s)", e.Message, e.Path)
		}
		return e.Message
	}
	return err.Error()
}

// DetailLines collects the detail lines attached anywhere in the error chain,
// including every violation of a *ValidationError.
func DetailLines(err error) []string {
	var lines []string
	for err != nil {
		switch e := err.(type) {
		case *Error:
			lines = append(lines, e.Details...)
		case *ValidationError:
			for _, v := range e.Violations {
				lines = append(lines, v.String())
			}
		}
		err = errors.Unwrap(err)
	}
	return lines
}
