package middleware

import (
	"time"

	"devopsquiz/internal/observability"
	contextutils "devopsquiz/internal/utils"

	"github.com/gin-gonic/gin"
)

// RequestLogging logs one structured entry per request. 5xx responses are
// logged at error level, 4xx at warn and everything else at info.
func RequestLogging(logger *observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		statusCode := c.Writer.Status()
		fields := map[string]interface{}{
			"http.method":      c.Request.Method,
			"http.path":        c.Request.URL.Path,
			"http.status_code": statusCode,
			"http.latency_ms":  time.Since(start).Milliseconds(),
			"http.client_ip":   c.ClientIP(),
			"http.user_agent":  c.Request.UserAgent(),
		}
		if hashed := c.GetString(observability.SessionHashKey); hashed != "" {
			fields["session"] = hashed
		}
		if last := c.Errors.Last(); last != nil {
			fields["http.error"] = c.Errors.String()
			fields["error.code"] = string(contextutils.GetErrorCode(last.Err))
			fields["error.severity"] = string(contextutils.GetErrorSeverity(last.Err))
		}

		switch {
		case statusCode >= 500:
			fields["http.error_type"] = "server_error"
			var err error
			if last := c.Errors.Last(); last != nil {
				err = last.Err
			}
			logger.Error(c.Request.Context(), "HTTP request failed", err, fields)
		case statusCode >= 400:
			fields["http.error_type"] = "client_error"
			logger.Warn(c.Request.Context(), "HTTP request warning", fields)
		default:
			logger.Info(c.Request.Context(), "HTTP request", fields)
		}
	}
}
