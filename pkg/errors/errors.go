package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"

	// Atom and metadata errors
	ErrAtomInvalid   ErrorCode = "ATOM_INVALID"
	ErrMetadataQuery ErrorCode = "METADATA_QUERY"

	// REQUIRED_USE errors
	ErrConstraintParse ErrorCode = "CONSTRAINT_PARSE"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"

	// Override file errors
	ErrOverrideDir   ErrorCode = "OVERRIDE_DIR"
	ErrOverrideWrite ErrorCode = "OVERRIDE_WRITE"

	// Execution errors
	ErrBuildSpawn ErrorCode = "BUILD_SPAWN"

	// Report errors
	ErrReportWrite ErrorCode = "REPORT_WRITE"
)

// ToolError represents a structured error with code and details
type ToolError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *ToolError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *ToolError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *ToolError) Is(target error) bool {
	var targetErr *ToolError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new ToolError with the given code and message
func New(code ErrorCode, message string) *ToolError {
	return &ToolError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new ToolError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *ToolError {
	return &ToolError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a ToolError
func Wrap(err error, code ErrorCode, message string) *ToolError {
	if err == nil {
		return nil
	}
	return &ToolError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *ToolError {
	if err == nil {
		return nil
	}
	return &ToolError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *ToolError) WithDetail(key string, value interface{}) *ToolError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a ToolError
func GetErrorCode(err error) ErrorCode {
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr.Code
	}
	return ErrUnknown
}
