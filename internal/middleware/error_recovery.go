// Package middleware holds the gin middleware shared by the HTTP server.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"devopsquiz/internal/observability"
	contextutils "devopsquiz/internal/utils"

	"github.com/gin-gonic/gin"
)

// FailureRenderer writes the response for a request that failed with err
type FailureRenderer func(c *gin.Context, err error)

// ErrorRecoveryMiddleware recovers panics raised by later handlers, logs them
// with a stack trace and hands an internal AppError to render. A nil render
// falls back to a bare 500.
func ErrorRecoveryMiddleware(logger *observability.Logger, render FailureRenderer) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			// net/http uses this sentinel to abort a response on purpose
			if recovered == http.ErrAbortHandler {
				panic(recovered)
			}

			stackTrace := string(debug.Stack())

			var panicErr error
			if e, ok := recovered.(error); ok {
				panicErr = e
			} else {
				panicErr = fmt.Errorf("panic: %v", recovered)
			}

			appErr := contextutils.NewAppErrorWithCause(
				contextutils.ErrorCodeInternalError,
				contextutils.SeverityFatal,
				"Internal server error",
				"A panic occurred while processing the request",
				panicErr,
			)

			if logger != nil {
				logger.Error(c.Request.Context(), "Panic recovered", panicErr, map[string]interface{}{
					"http.method": c.Request.Method,
					"http.path":   c.Request.URL.Path,
					"stack_trace": stackTrace,
				})
			}

			_ = c.Error(appErr)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			if render == nil {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			render(c, appErr)
			c.Abort()
		}()

		c.Next()
	}
}
