package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	contextutils "devopsquiz/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupRecordingRouter(t *testing.T) (*gin.Engine, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GinMiddlewareWithErrorHandling("test-service")...)
	return router, recorder
}

func serve(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestGinMiddlewareWithErrorHandling_SuccessHasNoError(t *testing.T) {
	router, recorder := setupRecordingRouter(t)
	router.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "fine") })

	w := serve(router, "/ok")
	assert.Equal(t, http.StatusOK, w.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
}

func TestGinMiddlewareWithErrorHandling_ServerErrorMarksSpan(t *testing.T) {
	router, recorder := setupRecordingRouter(t)
	router.GET("/boom", func(c *gin.Context) {
		c.Set(SessionHashKey, "abc123")
		_ = c.Error(contextutils.WrapError(contextutils.ErrAIRequestFailed, "completion failed"))
		c.String(http.StatusBadGateway, "upstream failed")
	})

	w := serve(router, "/boom")
	assert.Equal(t, http.StatusBadGateway, w.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Contains(t, span.Status().Description, "completion failed")

	attrs := map[string]interface{}{}
	for _, kv := range span.Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, "AI_REQUEST_FAILED", attrs["error.code"])
	assert.Equal(t, "error", attrs["error.severity"])
	assert.Equal(t, true, attrs["error.server_error"])
	assert.Equal(t, "abc123", attrs["quiz.session"])
}

func TestGinMiddlewareWithErrorHandling_ClientError(t *testing.T) {
	router, recorder := setupRecordingRouter(t)
	router.GET("/missing", func(c *gin.Context) { c.String(http.StatusNotFound, "nope") })

	serve(router, "/missing")

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "client error", spans[0].Status().Description)
}

func TestGinMiddleware_TraceHeadersPropagation(t *testing.T) {
	InitPropagation()
	router, recorder := setupRecordingRouter(t)
	router.GET("/trace", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/trace", nil)
	req.Header.Set("traceparent", "00-12345678901234567890123456789012-1234567890123456-01")
	router.ServeHTTP(w, req)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "12345678901234567890123456789012", spans[0].SpanContext().TraceID().String())
}

func TestDetermineErrorSeverity(t *testing.T) {
	assert.Equal(t, "error", determineErrorSeverity(500, nil))
	assert.Equal(t, "warn", determineErrorSeverity(404, nil))
	assert.Equal(t, "info", determineErrorSeverity(200, nil))

	ginErrs := []*gin.Error{{Err: contextutils.ErrTimeout}}
	assert.Equal(t, "warn", determineErrorSeverity(504, ginErrs))
}
