package observability

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	contextutils "devopsquiz/internal/utils"
)

// SessionHashKey is the gin context key under which handlers publish the
// hashed session id for span and log annotation.
const SessionHashKey = "quiz.session_hash"

// GinMiddleware creates OpenTelemetry middleware for Gin HTTP requests
func GinMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}

// GinMiddlewareWithErrorHandling returns the otelgin middleware followed by a
// middleware that marks the request span as failed for 4xx/5xx responses.
// Both must be installed in this order so the span is still open when the
// status is known.
func GinMiddlewareWithErrorHandling(serviceName string) gin.HandlersChain {
	return gin.HandlersChain{GinMiddleware(serviceName), spanErrorMiddleware()}
}

func spanErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		statusCode := c.Writer.Status()
		if statusCode < 400 {
			return
		}
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		severity := determineErrorSeverity(statusCode, c.Errors)
		errorMsg := "client error"
		if statusCode >= 500 {
			errorMsg = "server error"
		}

		var appErr *contextutils.AppError
		for _, ginErr := range c.Errors {
			if errors.As(ginErr.Err, &appErr) {
				errorMsg = appErr.Message
				span.SetAttributes(
					attribute.String("error.code", string(appErr.Code)),
					attribute.Bool("error.retryable", contextutils.IsRetryable(appErr)),
				)
				break
			}
			errorMsg = ginErr.Error()
		}

		span.RecordError(errors.New(errorMsg), trace.WithStackTrace(statusCode >= 500))
		span.SetStatus(codes.Error, errorMsg)
		span.SetAttributes(
			attribute.Int("http.status_code", statusCode),
			attribute.String("error.handler", c.HandlerName()),
			attribute.String("error.severity", severity),
			attribute.Bool("error.server_error", statusCode >= 500),
		)
		if hashed := c.GetString(SessionHashKey); hashed != "" {
			span.SetAttributes(AttributeSession(hashed))
		}
	}
}

// determineErrorSeverity determines the severity level based on status code and error types
func determineErrorSeverity(statusCode int, ginErrors []*gin.Error) string {
	var appErr *contextutils.AppError
	for _, err := range ginErrors {
		if errors.As(err.Err, &appErr) {
			return string(appErr.Severity)
		}
	}

	switch {
	case statusCode >= 500:
		return string(contextutils.SeverityError)
	case statusCode >= 400:
		return string(contextutils.SeverityWarn)
	default:
		return string(contextutils.SeverityInfo)
	}
}
