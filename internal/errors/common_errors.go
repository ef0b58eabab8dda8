package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeSchema       ErrorType = "SCHEMA"
	ErrTypeTypeCoercion ErrorType = "TYPE_COERCION"
	ErrTypeEmptyResult  ErrorType = "EMPTY_RESULT"
	ErrTypeRender       ErrorType = "RENDER"
	ErrTypeParsing      ErrorType = "PARSING"
	ErrTypeValidation   ErrorType = "VALIDATION"
	ErrTypeConfig       ErrorType = "CONFIG"
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

// Unwrap allows errors.Is and errors.As to work with AppError
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

// NewSchemaError reports required columns (or a required sheet) missing from an upload.
func NewSchemaError(file string, missing []string) *AppError {
	return NewAppError(ErrTypeSchema,
		fmt.Sprintf("%s: missing required column(s): %s", file, strings.Join(missing, ", ")), nil).
		WithContext("file", file).
		WithContext("missing", missing)
}

// NewMissingSheetError reports that the expected worksheet is absent.
func NewMissingSheetError(file, sheet string) *AppError {
	return NewAppError(ErrTypeSchema, fmt.Sprintf("%s: sheet %q not found", file, sheet), nil).
		WithContext("file", file).
		WithContext("sheet", sheet)
}

// NewTypeCoercionError reports a count cell that is not a whole, non-negative number.
// row is the 1-based spreadsheet row.
func NewTypeCoercionError(file, column string, row int, value string, cause error) *AppError {
	return NewAppError(ErrTypeTypeCoercion,
		fmt.Sprintf("%s: column %q row %d: cannot read %q as a count", file, column, row, value), cause).
		WithContext("file", file).
		WithContext("column", column).
		WithContext("row", row).
		WithContext("value", value)
}

// NewEmptyResultError signals an aggregation with no rows to show.
func NewEmptyResultError(message string) *AppError {
	return NewAppError(ErrTypeEmptyResult, message, nil)
}

// NewRenderError wraps a writer failure for a single artifact.
func NewRenderError(artifact string, cause error) *AppError {
	return NewAppError(ErrTypeRender, fmt.Sprintf("failed to render %s", artifact), cause).
		WithContext("artifact", artifact)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// IsType reports whether err, or anything it wraps, is an AppError of type t.
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	if appErr.Type == t {
		return true
	}
	return appErr.Cause != nil && IsType(appErr.Cause, t)
}

// TypeOf returns the ErrorType of the first AppError in err's chain, or "".
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}
