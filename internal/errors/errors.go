// FilePath: internal/errors/errors.go
package errors

import (
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Error types
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeFilesystem ErrorType = "filesystem"
	ErrorTypeTool       ErrorType = "external_tool"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeInternal   ErrorType = "internal"
)

// Numeric codes surfaced to callers. The values are part of the protocol and
// match the codes existing clients already interpret.
const (
	CodeUnknownResource = 6001
	CodeWrongUnitKind   = 6006
	CodeMissingPayload  = 6007
	CodeBadFormat       = 6008
	CodeNothingProduced = 6010
	CodeFilesystem      = 6100
	CodeToolFailure     = 6200
	CodeInternal        = 6500
)

// StorageError represents a structured storage engine error
type StorageError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
	err     error     // Internal error for logging
}

// Error implements the error interface
func (e *StorageError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s [%d]: %s (internal: %v)", e.Type, e.Code, e.Message, e.err)
	}
	return fmt.Sprintf("%s [%d]: %s", e.Type, e.Code, e.Message)
}

// Unwrap exposes the wrapped internal error
func (e *StorageError) Unwrap() error {
	return e.err
}

// NewUnknownResourceError creates an error for a resource id with no registry entry
func NewUnknownResourceError(msg string, err error) *StorageError {
	return &StorageError{
		Type:    ErrorTypeNotFound,
		Message: msg,
		Code:    CodeUnknownResource,
		err:     err,
	}
}

// NewWrongUnitKindError creates an error for a data unit of the wrong variant
func NewWrongUnitKindError(msg string, err error) *StorageError {
	return &StorageError{
		Type:    ErrorTypeValidation,
		Message: msg,
		Code:    CodeWrongUnitKind,
		err:     err,
	}
}

// NewMissingPayloadError creates an error for a command missing a required payload
func NewMissingPayloadError(msg string, err error) *StorageError {
	return &StorageError{
		Type:    ErrorTypeValidation,
		Message: msg,
		Code:    CodeMissingPayload,
		err:     err,
	}
}

// NewBadFormatError creates an error for an unsupported file format
func NewBadFormatError(msg string, err error) *StorageError {
	return &StorageError{
		Type:    ErrorTypeValidation,
		Message: msg,
		Code:    CodeBadFormat,
		err:     err,
	}
}

// NewNothingProducedError creates an error for an operation that yielded no output
func NewNothingProducedError(msg string, err error) *StorageError {
	return &StorageError{
		Type:    ErrorTypeInternal,
		Message: msg,
		Code:    CodeNothingProduced,
		err:     err,
	}
}

// NewFilesystemError creates an error for a failed file operation
func NewFilesystemError(msg string, err error) *StorageError {
	return &StorageError{
		Type:    ErrorTypeFilesystem,
		Message: msg,
		Code:    CodeFilesystem,
		err:     err,
	}
}

// NewToolError creates an error for a failed external video tool invocation
func NewToolError(msg string, err error) *StorageError {
	return &StorageError{
		Type:    ErrorTypeTool,
		Message: msg,
		Code:    CodeToolFailure,
		err:     err,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(msg string, err error) *StorageError {
	return &StorageError{
		Type:    ErrorTypeInternal,
		Message: msg,
		Code:    CodeInternal,
		err:     err,
	}
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	if se, ok := err.(*StorageError); ok {
		return se.Type == ErrorTypeValidation
	}
	return false
}

// IsNotFound checks if an error is a not-found error
func IsNotFound(err error) bool {
	if se, ok := err.(*StorageError); ok {
		return se.Type == ErrorTypeNotFound
	}
	return false
}

// CodeOf returns the numeric code of a storage error, or CodeInternal for
// any other error.
func CodeOf(err error) int {
	if se, ok := err.(*StorageError); ok {
		return se.Code
	}
	return CodeInternal
}
