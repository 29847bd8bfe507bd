// Package errors provides a lightweight structured error type (PressError)
// for category-based classification in the CLI and preview server.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a contentpress error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Content processing errors
	CategoryParse  ErrorCategory = "parse"
	CategoryLocale ErrorCategory = "locale"
	CategoryLink   ErrorCategory = "link"
	CategoryRender ErrorCategory = "render"

	// Runtime and infrastructure errors
	CategoryStore      ErrorCategory = "store"
	CategoryBuild      ErrorCategory = "build"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryServer     ErrorCategory = "server"
	CategoryInternal   ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// PressError is a structured error with category, severity, and context
type PressError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for PressError
type ContextFields map[string]any

// Error implements the error interface
func (e *PressError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *PressError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *PressError) WithContext(key string, value any) *PressError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// WithSeverity overrides the error severity
func (e *PressError) WithSeverity(severity ErrorSeverity) *PressError {
	e.Severity = severity
	return e
}

// New creates a new PressError
func New(category ErrorCategory, severity ErrorSeverity, message string) *PressError {
	return &PressError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new PressError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *PressError {
	return &PressError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// WrapError wraps an existing error with severity SeverityError
func WrapError(err error, category ErrorCategory, message string) *PressError {
	return &PressError{
		Category: category,
		Severity: SeverityError,
		Message:  message,
		Cause:    err,
	}
}

// ValidationError creates a new validation error
func ValidationError(message string) *PressError {
	return &PressError{
		Category: CategoryValidation,
		Severity: SeverityWarning,
		Message:  message,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if pe, ok := err.(*PressError); ok {
		return pe.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a PressError
func GetCategory(err error) ErrorCategory {
	if pe, ok := err.(*PressError); ok {
		return pe.Category
	}
	return CategoryInternal
}

// GetSeverity extracts the severity from an error, or returns SeverityError if not a PressError
func GetSeverity(err error) ErrorSeverity {
	if pe, ok := err.(*PressError); ok {
		return pe.Severity
	}
	return SeverityError
}
