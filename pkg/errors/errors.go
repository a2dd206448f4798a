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
	ErrUnknown       ErrorCode = "UNKNOWN"
	ErrInternal      ErrorCode = "INTERNAL"
	ErrInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrNotFound      ErrorCode = "NOT_FOUND"
	ErrAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"

	// Trigger errors
	ErrTriggerInvalid ErrorCode = "TRIGGER_INVALID"
	ErrTriggerLoad    ErrorCode = "TRIGGER_LOAD"

	// Handler errors
	ErrHandlerNotFound ErrorCode = "HANDLER_NOT_FOUND"
	ErrHandlerExecute  ErrorCode = "HANDLER_EXECUTE"
	ErrValidation      ErrorCode = "VALIDATION"

	// Storage errors
	ErrStorage          ErrorCode = "STORAGE"
	ErrSequenceConflict ErrorCode = "SEQUENCE_CONFLICT"

	// Collaborator errors
	ErrDirectoryLookup ErrorCode = "DIRECTORY_LOOKUP"
	ErrMailSend        ErrorCode = "MAIL_SEND"
)

// AutomatError represents a structured error with code and details
type AutomatError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *AutomatError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *AutomatError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *AutomatError) Is(target error) bool {
	var targetErr *AutomatError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new AutomatError with the given code and message
func New(code ErrorCode, message string) *AutomatError {
	return &AutomatError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new AutomatError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *AutomatError {
	return &AutomatError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with an AutomatError
func Wrap(err error, code ErrorCode, message string) *AutomatError {
	if err == nil {
		return nil
	}
	return &AutomatError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AutomatError {
	if err == nil {
		return nil
	}
	return &AutomatError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *AutomatError) WithDetail(key string, value interface{}) *AutomatError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var automatErr *AutomatError
	if errors.As(err, &automatErr) {
		return automatErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not an AutomatError
func GetErrorCode(err error) ErrorCode {
	var automatErr *AutomatError
	if errors.As(err, &automatErr) {
		return automatErr.Code
	}
	return ErrUnknown
}
