package handlers

import (
	"net/http"

	contextutils "devopsquiz/internal/utils"

	"github.com/gin-gonic/gin"
)

const errorTemplate = "error.html"

// HandleAppError renders the generic failure page for err. The status code
// follows the AppError code; the page only ever shows the public message.
func HandleAppError(c *gin.Context, err error) {
	statusCode := mapErrorCodeToHTTPStatus(contextutils.GetErrorCode(err))
	_ = c.Error(err)
	c.HTML(statusCode, errorTemplate, gin.H{
		"status":    statusCode,
		"title":     http.StatusText(statusCode),
		"message":   contextutils.PublicMessage(err),
		"retryable": contextutils.IsRetryable(err),
	})
}

// HandleAppErrorJSON writes err as a JSON body for the API routes
func HandleAppErrorJSON(c *gin.Context, err error) {
	statusCode := mapErrorCodeToHTTPStatus(contextutils.GetErrorCode(err))
	_ = c.Error(err)
	c.JSON(statusCode, gin.H{
		"code":      string(contextutils.GetErrorCode(err)),
		"message":   contextutils.PublicMessage(err),
		"retryable": contextutils.IsRetryable(err),
	})
}

// mapErrorCodeToHTTPStatus maps AppError codes to HTTP status codes
func mapErrorCodeToHTTPStatus(code contextutils.ErrorCode) int {
	switch code {
	// 4xx Client Errors
	case contextutils.ErrorCodeInvalidInput, contextutils.ErrorCodeMissingRequired,
		contextutils.ErrorCodeValidationFailed:
		return http.StatusBadRequest

	case contextutils.ErrorCodeNotFound:
		return http.StatusNotFound

	case contextutils.ErrorCodeRateLimit:
		return http.StatusTooManyRequests

	// 5xx Server Errors
	case contextutils.ErrorCodeAIRequestFailed, contextutils.ErrorCodeAIResponseInvalid:
		return http.StatusBadGateway

	case contextutils.ErrorCodeServiceUnavailable, contextutils.ErrorCodeDatabaseConnection,
		contextutils.ErrorCodeSecretUnavailable:
		return http.StatusServiceUnavailable

	case contextutils.ErrorCodeTimeout:
		return http.StatusGatewayTimeout

	default:
		return http.StatusInternalServerError
	}
}
