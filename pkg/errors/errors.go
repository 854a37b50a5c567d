// Package errors provides the application error taxonomy. Every error that
// crosses a package boundary is a ReconcilerError carrying a category, a
// stable code, optional context, and the wrapped cause.
package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryStore          ErrorCategory = "store"
	CategoryValidation     ErrorCategory = "validation"
	CategoryConfiguration  ErrorCategory = "configuration"
	CategoryReconciliation ErrorCategory = "reconciliation"
	CategoryInternal       ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// Store errors
	CodeFetchFailed      ErrorCode = "fetch_failed"
	CodeWriteFailed      ErrorCode = "write_failed"
	CodeRecordNotFound   ErrorCode = "record_not_found"
	CodeUnexpectedStatus ErrorCode = "unexpected_status"

	// Validation errors
	CodeInvalidAmount ErrorCode = "invalid_amount"
	CodeInvalidDate   ErrorCode = "invalid_date"
	CodeMissingField  ErrorCode = "missing_field"

	// Configuration errors
	CodeInvalidConfig      ErrorCode = "invalid_config"
	CodeMissingCredentials ErrorCode = "missing_credentials"

	// Reconciliation errors
	CodeMatchingFailed ErrorCode = "matching_failed"
	CodeClaimConflict  ErrorCode = "claim_conflict"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// Context provides additional information about the error
type Context map[string]interface{}

// ReconcilerError is the base error type for all application errors
type ReconcilerError struct {
	Category   ErrorCategory `json:"category"`
	Code       ErrorCode     `json:"code"`
	Message    string        `json:"message"`
	Suggestion string        `json:"suggestion,omitempty"`
	Context    Context       `json:"context,omitempty"`
	Cause      error         `json:"-"`
}

// Error implements the error interface
func (e *ReconcilerError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *ReconcilerError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate process exit code for the error
func (e *ReconcilerError) GetExitCode() int {
	switch e.Category {
	case CategoryStore:
		return 2
	case CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryReconciliation:
		return 5
	default:
		return 1
	}
}

// WithContext attaches a context key-value pair to the error
func (e *ReconcilerError) WithContext(key string, value interface{}) *ReconcilerError {
	if e.Context == nil {
		e.Context = Context{}
	}
	e.Context[key] = value
	return e
}

// WithSuggestion attaches a user-facing remediation hint to the error
func (e *ReconcilerError) WithSuggestion(suggestion string) *ReconcilerError {
	e.Suggestion = suggestion
	return e
}

// New creates a ReconcilerError with the given category, code and message
func New(category ErrorCategory, code ErrorCode, message string) *ReconcilerError {
	return &ReconcilerError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

// Wrap creates a ReconcilerError wrapping an underlying cause
func Wrap(cause error, category ErrorCategory, code ErrorCode, message string) *ReconcilerError {
	return &ReconcilerError{
		Category: category,
		Code:     code,
		Message:  message,
		Cause:    errors.WithStack(cause),
	}
}

// NewStoreError creates an error for record store failures
func NewStoreError(code ErrorCode, message string, cause error) *ReconcilerError {
	return Wrap(cause, CategoryStore, code, message)
}

// NewValidationError creates an error for invalid record data
func NewValidationError(code ErrorCode, message string) *ReconcilerError {
	return New(CategoryValidation, code, message)
}

// NewConfigurationError creates an error for invalid or missing configuration
func NewConfigurationError(code ErrorCode, message string) *ReconcilerError {
	return New(CategoryConfiguration, code, message)
}

// NewReconciliationError creates an error for matching engine failures
func NewReconciliationError(code ErrorCode, message string, cause error) *ReconcilerError {
	return Wrap(cause, CategoryReconciliation, code, message)
}

// AsReconcilerError extracts a ReconcilerError from an error chain
func AsReconcilerError(err error) (*ReconcilerError, bool) {
	var re *ReconcilerError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// GetExitCode returns the exit code for any error, defaulting to 1 for
// errors outside the taxonomy
func GetExitCode(err error) int {
	if err == nil {
		return 0
	}
	if re, ok := AsReconcilerError(err); ok {
		return re.GetExitCode()
	}
	return 1
}
