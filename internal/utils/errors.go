// Package contextutils provides the structured application error type and
// small helpers shared across packages.
package contextutils

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a specific error type for categorization
type ErrorCode string

const (
	// Database errors

	// ErrorCodeDatabaseConnection is returned when the database cannot be reached
	ErrorCodeDatabaseConnection ErrorCode = "DATABASE_CONNECTION_ERROR"
	// ErrorCodeDatabaseQuery is returned when a query fails
	ErrorCodeDatabaseQuery ErrorCode = "DATABASE_QUERY_ERROR"
	// ErrorCodeDatabaseMigration is returned when schema migrations fail
	ErrorCodeDatabaseMigration ErrorCode = "DATABASE_MIGRATION_ERROR"

	// Validation errors

	// ErrorCodeInvalidInput is returned for malformed request values
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrorCodeMissingRequired is returned when a required value is absent
	ErrorCodeMissingRequired ErrorCode = "MISSING_REQUIRED_FIELD"
	// ErrorCodeValidationFailed is returned when struct validation fails
	ErrorCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	// ErrorCodeNotFound is returned for unknown topics or parameters
	ErrorCodeNotFound ErrorCode = "NOT_FOUND"

	// Service errors

	// ErrorCodeServiceUnavailable is returned when a dependency is unavailable or at capacity
	ErrorCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrorCodeTimeout is returned when an operation exceeds its deadline
	ErrorCodeTimeout ErrorCode = "REQUEST_TIMEOUT"
	// ErrorCodeRateLimit is returned when a session exceeds its concurrent request limit
	ErrorCodeRateLimit ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrorCodeInternalError is the catch-all code
	ErrorCodeInternalError ErrorCode = "INTERNAL_SERVER_ERROR"

	// AI errors

	// ErrorCodeAIRequestFailed is returned when the completion API call fails
	ErrorCodeAIRequestFailed ErrorCode = "AI_REQUEST_FAILED"
	// ErrorCodeAIResponseInvalid is returned when the completion API returns no usable text
	ErrorCodeAIResponseInvalid ErrorCode = "AI_RESPONSE_INVALID"
	// ErrorCodeAIConfigInvalid is returned for a missing key or unknown provider
	ErrorCodeAIConfigInvalid ErrorCode = "AI_CONFIG_INVALID"

	// Secret errors

	// ErrorCodeSecretUnavailable is returned when the parameter store lookup fails
	ErrorCodeSecretUnavailable ErrorCode = "SECRET_UNAVAILABLE"
)

// SeverityLevel represents the severity of an error
type SeverityLevel string

const (
	// SeverityDebug is for diagnostic errors
	SeverityDebug SeverityLevel = "debug"
	// SeverityInfo is for expected conditions
	SeverityInfo SeverityLevel = "info"
	// SeverityWarn is for client errors
	SeverityWarn SeverityLevel = "warn"
	// SeverityError is for server errors
	SeverityError SeverityLevel = "error"
	// SeverityFatal is for unrecoverable errors
	SeverityFatal SeverityLevel = "fatal"
)

// AppError represents a structured error with code, severity, and context
type AppError struct {
	Code     ErrorCode
	Severity SeverityLevel
	Message  string
	Details  string
	Cause    error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison for errors.Is
func (e *AppError) Is(target error) bool {
	if appErr, ok := target.(*AppError); ok {
		return e.Code == appErr.Code
	}
	return false
}

// Error types for consistent error handling with associated codes and severity
var (
	// Database errors
	ErrDatabaseConnection = &AppError{
		Code:     ErrorCodeDatabaseConnection,
		Severity: SeverityError,
		Message:  "Database connection failed",
	}

	ErrDatabaseQuery = &AppError{
		Code:     ErrorCodeDatabaseQuery,
		Severity: SeverityError,
		Message:  "Database query failed",
	}

	ErrDatabaseMigration = &AppError{
		Code:     ErrorCodeDatabaseMigration,
		Severity: SeverityFatal,
		Message:  "Database migration failed",
	}

	// Validation errors
	ErrInvalidInput = &AppError{
		Code:     ErrorCodeInvalidInput,
		Severity: SeverityWarn,
		Message:  "Invalid input provided",
	}

	ErrMissingRequired = &AppError{
		Code:     ErrorCodeMissingRequired,
		Severity: SeverityWarn,
		Message:  "Required field is missing",
	}

	ErrValidationFailed = &AppError{
		Code:     ErrorCodeValidationFailed,
		Severity: SeverityWarn,
		Message:  "Validation failed",
	}

	ErrNotFound = &AppError{
		Code:     ErrorCodeNotFound,
		Severity: SeverityInfo,
		Message:  "Not found",
	}

	// Service errors
	ErrServiceUnavailable = &AppError{
		Code:     ErrorCodeServiceUnavailable,
		Severity: SeverityError,
		Message:  "Service temporarily unavailable",
	}

	ErrTimeout = &AppError{
		Code:     ErrorCodeTimeout,
		Severity: SeverityWarn,
		Message:  "Request timeout",
	}

	ErrRateLimit = &AppError{
		Code:     ErrorCodeRateLimit,
		Severity: SeverityWarn,
		Message:  "Too many requests in progress",
	}

	ErrInternalError = &AppError{
		Code:     ErrorCodeInternalError,
		Severity: SeverityError,
		Message:  "Internal server error",
	}

	// AI errors
	ErrAIRequestFailed = &AppError{
		Code:     ErrorCodeAIRequestFailed,
		Severity: SeverityError,
		Message:  "AI request failed",
	}

	ErrAIResponseInvalid = &AppError{
		Code:     ErrorCodeAIResponseInvalid,
		Severity: SeverityError,
		Message:  "Invalid AI response",
	}

	ErrAIConfigInvalid = &AppError{
		Code:     ErrorCodeAIConfigInvalid,
		Severity: SeverityFatal,
		Message:  "Invalid AI configuration",
	}

	// Secret errors
	ErrSecretUnavailable = &AppError{
		Code:     ErrorCodeSecretUnavailable,
		Severity: SeverityError,
		Message:  "Secret could not be retrieved",
	}
)

// NewAppError creates a new AppError with the specified code, severity, message and details
func NewAppError(code ErrorCode, severity SeverityLevel, message, details string) *AppError {
	return &AppError{
		Code:     code,
		Severity: severity,
		Message:  message,
		Details:  details,
	}
}

// NewAppErrorWithCause creates a new AppError with an underlying cause
func NewAppErrorWithCause(code ErrorCode, severity SeverityLevel, message, details string, cause error) *AppError {
	return &AppError{
		Code:     code,
		Severity: severity,
		Message:  message,
		Details:  details,
		Cause:    cause,
	}
}

// WrapError wraps an error with additional context, preserving AppError structure if possible
func WrapError(err error, context string) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{
			Code:     appErr.Code,
			Severity: appErr.Severity,
			Message:  context,
			Details:  err.Error(),
			Cause:    err,
		}
	}

	return &AppError{
		Code:     ErrorCodeInternalError,
		Severity: SeverityError,
		Message:  context,
		Details:  err.Error(),
		Cause:    err,
	}
}

// WrapErrorf wraps an error with formatted context, preserving AppError structure if possible.
// A %w verb in format keeps the wrapped chain intact.
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}

	var cause error = err
	var message string
	if strings.Contains(format, "%w") {
		wrapped := fmt.Errorf(format, args...)
		cause = wrapped
		message = wrapped.Error()
	} else {
		message = fmt.Sprintf(format, args...)
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{
			Code:     appErr.Code,
			Severity: appErr.Severity,
			Message:  message,
			Details:  appErr.Error(),
			Cause:    cause,
		}
	}

	return &AppError{
		Code:     ErrorCodeInternalError,
		Severity: SeverityError,
		Message:  message,
		Details:  err.Error(),
		Cause:    cause,
	}
}

// ErrorWithContextf creates a new error with formatted context
func ErrorWithContextf(format string, args ...interface{}) error {
	return &AppError{
		Code:     ErrorCodeInternalError,
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
	}
}

// GetErrorCode returns the error code from an error if it's an AppError, otherwise returns a default code
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrorCodeInternalError
}

// GetErrorSeverity returns the severity level from an error if it's an AppError, otherwise returns error
func GetErrorSeverity(err error) SeverityLevel {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Severity
	}
	return SeverityError
}

// IsRetryable determines if an error should be retried based on its type and severity
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case ErrorCodeTimeout, ErrorCodeServiceUnavailable, ErrorCodeRateLimit, ErrorCodeDatabaseConnection:
			return appErr.Severity != SeverityFatal
		}
	}
	return false
}

// PublicMessage returns the text that may be shown to an end user for err.
// Details and causes never leave the server.
func PublicMessage(err error) string {
	switch GetErrorCode(err) {
	case ErrorCodeAIRequestFailed, ErrorCodeAIResponseInvalid:
		return "The question service could not complete the request. Please try again."
	case ErrorCodeServiceUnavailable:
		return "The quiz is busy right now. Please try again in a moment."
	case ErrorCodeRateLimit:
		return "A request for this session is already in progress."
	case ErrorCodeTimeout:
		return "The request took too long. Please try again."
	case ErrorCodeInvalidInput, ErrorCodeMissingRequired, ErrorCodeValidationFailed:
		return "The request was not valid."
	case ErrorCodeNotFound:
		return "The requested page was not found."
	default:
		return "Something went wrong. Please try again."
	}
}
