package contextutils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		expected string
	}{
		{
			name: "error with details",
			appError: &AppError{
				Code:     ErrorCodeInvalidInput,
				Severity: SeverityError,
				Message:  "Invalid input",
				Details:  "difficulty must be 1, 2 or 3",
			},
			expected: "INVALID_INPUT: Invalid input - difficulty must be 1, 2 or 3",
		},
		{
			name: "error without details",
			appError: &AppError{
				Code:     ErrorCodeNotFound,
				Severity: SeverityInfo,
				Message:  "Category not found",
			},
			expected: "NOT_FOUND: Category not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appError.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	appErr := &AppError{
		Code:     ErrorCodeInternalError,
		Severity: SeverityError,
		Message:  "Internal error",
		Cause:    cause,
	}

	assert.Equal(t, cause, appErr.Unwrap())
}

func TestAppError_Is(t *testing.T) {
	err1 := &AppError{Code: ErrorCodeInvalidInput}
	err2 := &AppError{Code: ErrorCodeInvalidInput}
	err3 := &AppError{Code: ErrorCodeNotFound}

	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, err3))
	assert.False(t, errors.Is(err1, errors.New("plain")))
}

func TestNewAppErrorWithCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewAppErrorWithCause(ErrorCodeDatabaseConnection, SeverityError, "DB connection failed", "dial tcp", cause)

	assert.Equal(t, ErrorCodeDatabaseConnection, err.Code)
	assert.Equal(t, SeverityError, err.Severity)
	assert.Equal(t, "DB connection failed", err.Message)
	assert.Equal(t, "dial tcp", err.Details)
	assert.Equal(t, cause, err.Cause)
}

func TestWrapError(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		assert.Nil(t, WrapError(nil, "context"))
	})

	t.Run("AppError wrapping keeps the code", func(t *testing.T) {
		wrapped := WrapError(ErrAIRequestFailed, "generate question")

		var appErr *AppError
		require.True(t, errors.As(wrapped, &appErr))
		assert.Equal(t, ErrorCodeAIRequestFailed, appErr.Code)
		assert.Equal(t, "generate question", appErr.Message)
		assert.True(t, errors.Is(wrapped, ErrAIRequestFailed))
	})

	t.Run("regular error wrapping", func(t *testing.T) {
		original := errors.New("database error")
		wrapped := WrapError(original, "context")

		var appErr *AppError
		require.True(t, errors.As(wrapped, &appErr))
		assert.Equal(t, ErrorCodeInternalError, appErr.Code)
		assert.Equal(t, "database error", appErr.Details)
		assert.Equal(t, original, appErr.Cause)
	})
}

func TestWrapErrorf(t *testing.T) {
	t.Run("without %w", func(t *testing.T) {
		original := errors.New("database error")
		wrapped := WrapErrorf(original, "failed to record %s", "question_generation")

		var appErr *AppError
		require.True(t, errors.As(wrapped, &appErr))
		assert.Equal(t, ErrorCodeInternalError, appErr.Code)
		assert.Equal(t, "failed to record question_generation", appErr.Message)
		assert.Equal(t, "database error", appErr.Details)
	})

	t.Run("with %w keeps the chain", func(t *testing.T) {
		root := errors.New("throttled")
		wrapped := WrapErrorf(ErrAIRequestFailed, "openai: %w", root)

		assert.Equal(t, ErrorCodeAIRequestFailed, GetErrorCode(wrapped))
		assert.True(t, errors.Is(wrapped, root))
	})

	t.Run("nil error", func(t *testing.T) {
		assert.Nil(t, WrapErrorf(nil, "ignored %d", 1))
	})
}

func TestErrorWithContextf(t *testing.T) {
	err := ErrorWithContextf("unknown provider: %s", "bard")

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, ErrorCodeInternalError, appErr.Code)
	assert.Equal(t, "unknown provider: bard", appErr.Message)
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, ErrorCodeInvalidInput, GetErrorCode(ErrInvalidInput))
	assert.Equal(t, ErrorCodeInternalError, GetErrorCode(errors.New("regular error")))
	assert.Equal(t, ErrorCodeTimeout, GetErrorCode(fmt.Errorf("outer: %w", ErrTimeout)))
}

func TestGetErrorSeverity(t *testing.T) {
	assert.Equal(t, SeverityWarn, GetErrorSeverity(&AppError{Severity: SeverityWarn}))
	assert.Equal(t, SeverityError, GetErrorSeverity(errors.New("regular error")))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"timeout", &AppError{Code: ErrorCodeTimeout, Severity: SeverityWarn}, true},
		{"service unavailable", &AppError{Code: ErrorCodeServiceUnavailable, Severity: SeverityError}, true},
		{"rate limit", ErrRateLimit, true},
		{"database connection", &AppError{Code: ErrorCodeDatabaseConnection, Severity: SeverityError}, true},
		{"validation error", &AppError{Code: ErrorCodeInvalidInput, Severity: SeverityWarn}, false},
		{"fatal timeout", &AppError{Code: ErrorCodeTimeout, Severity: SeverityFatal}, false},
		{"regular error", errors.New("regular error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRetryable(tt.err))
		})
	}
}

func TestPublicMessage(t *testing.T) {
	assert.Contains(t, PublicMessage(WrapError(ErrAIRequestFailed, "x")), "question service")
	assert.Contains(t, PublicMessage(ErrServiceUnavailable), "busy")
	assert.Contains(t, PublicMessage(ErrTimeout), "too long")
	assert.Equal(t, "Something went wrong. Please try again.", PublicMessage(errors.New("secret detail")))
	assert.NotContains(t, PublicMessage(WrapErrorf(ErrAIRequestFailed, "key sk-123 rejected")), "sk-123")
}
