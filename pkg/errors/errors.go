package errors

import (
	"errors"
	"fmt"
)

// Common application errors
var (
	// Registry errors
	ErrUnknownQuery     = errors.New("unknown query identifier")
	ErrInvalidSelector  = errors.New("invalid metric selector for descriptor")
	ErrInvalidSensitivity = errors.New("sensitivity must be non-negative")

	// Dataset errors
	ErrBaselineNotFound = errors.New("baseline table not found")
	ErrEmptyTable       = errors.New("table has no rows")
	ErrColumnNotFound   = errors.New("column not found in table")
	ErrColumnNotNumeric = errors.New("column contains non-numeric values")
	ErrColumnLength     = errors.New("column length does not match table row count")

	// Mechanism errors
	ErrInvalidEpsilon = errors.New("epsilon must be non-negative")
	ErrInvalidDelta   = errors.New("delta must be in (0, 1)")
	ErrUnreleasable   = errors.New("noise scale is infinite: output must not be released")
	ErrMissingNoiseColumn = errors.New("declared noise-bearing column missing from table")

	// Evaluation errors
	ErrUnknownMetricType = errors.New("unknown metric type")

	// Configuration errors
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrUnknownVariant       = errors.New("unknown database variant")
	ErrUnknownMechanism     = errors.New("unknown mechanism")
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeDataset       ErrorType = "dataset"
	ErrorTypePrivacy       ErrorType = "privacy"
	ErrorTypeEvaluation    ErrorType = "evaluation"
	ErrorTypeRelease       ErrorType = "release"
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeInternal      ErrorType = "internal"
)

// AppError represents an application-specific error with additional context
type AppError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details string                 `json:"details,omitempty"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:    errType,
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with application context
func WrapError(err error, errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// NewValidationError creates a validation error
func NewValidationError(code, message string) *AppError {
	return NewAppError(ErrorTypeValidation, code, message)
}

// NewDatasetError creates a dataset error
func NewDatasetError(code, message string) *AppError {
	return NewAppError(ErrorTypeDataset, code, message)
}

// NewPrivacyError creates a privacy mechanism error
func NewPrivacyError(code, message string) *AppError {
	return NewAppError(ErrorTypePrivacy, code, message)
}

// NewEvaluationError creates an evaluation error
func NewEvaluationError(code, message string) *AppError {
	return NewAppError(ErrorTypeEvaluation, code, message)
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(code, message string) *AppError {
	return NewAppError(ErrorTypeConfiguration, code, message)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return NewAppError(ErrorTypeInternal, "INTERNAL_ERROR", message)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// GetErrorType extracts the error type from an error
func GetErrorType(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}
