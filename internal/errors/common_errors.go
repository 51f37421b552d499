package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies application errors
type ErrorType string

const (
	// ErrTypeFileLoad means the data source could not be reached or read
	ErrTypeFileLoad ErrorType = "FILE_LOAD"
	// ErrTypeEmptyDataset means the source parsed but produced no usable rows
	ErrTypeEmptyDataset ErrorType = "EMPTY_DATASET"
	// ErrTypeNoData means a country exists but has no usable GDP value
	ErrTypeNoData     ErrorType = "NO_DATA"
	ErrTypeParsing    ErrorType = "PARSING"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeConfig     ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to reach the cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// TypeOf returns the type of the first AppError in err's chain
func TypeOf(err error) (ErrorType, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type, true
	}
	return "", false
}

// IsType reports whether err's chain holds an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	t, ok := TypeOf(err)
	return ok && t == errType
}

// NewFileLoadError reports an unreachable or unreadable data source
func NewFileLoadError(source string, cause error) *AppError {
	return NewAppError(ErrTypeFileLoad, fmt.Sprintf("failed to load %s", source), cause).
		WithContext("source", source)
}

// NewEmptyDatasetError reports a source without usable rows
func NewEmptyDatasetError(source string, cause error) *AppError {
	return NewAppError(ErrTypeEmptyDataset, fmt.Sprintf("%s contains no usable rows", source), cause).
		WithContext("source", source)
}

// NewNoDataError reports a country without any valid GDP value
func NewNoDataError(country string, cause error) *AppError {
	return NewAppError(ErrTypeNoData, fmt.Sprintf("no GDP data for %s", country), cause).
		WithContext("country", country)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewAppValidationError creates a validation error
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string, cause error) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), cause).
		WithContext("resource", resource)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
