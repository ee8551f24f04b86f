package observability

import (
	"context"
	"errors"
	"testing"

	"devopsquiz/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger(level zapcore.Level) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return &Logger{Logger: zap.New(core)}, logs
}

func TestLogWithContextAddsTraceInfo(t *testing.T) {
	tp := trace.NewTracerProvider()
	tracer := tp.Tracer("test-tracer")
	logger, observedLogs := newObservedLogger(zap.InfoLevel)

	ctx, span := tracer.Start(context.Background(), "test-span")
	defer span.End()

	logger.Info(ctx, "question generated", map[string]interface{}{"category": "Kubernetes"})

	entries := observedLogs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "question generated", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, span.SpanContext().TraceID().String(), fields["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), fields["span_id"])
	assert.Equal(t, "Kubernetes", fields["category"])
}

func TestLogWithContextNoSpan(t *testing.T) {
	logger, observedLogs := newObservedLogger(zap.InfoLevel)

	logger.Info(context.Background(), "test message", nil)

	entries := observedLogs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.NotContains(t, fields, "trace_id")
	assert.NotContains(t, fields, "span_id")
}

func TestLoggerErrorAddsErrorField(t *testing.T) {
	logger, observedLogs := newObservedLogger(zap.InfoLevel)

	logger.Error(context.Background(), "evaluation failed", errors.New("upstream 500"), map[string]interface{}{"difficulty": 2})

	entries := observedLogs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "upstream 500", entries[0].ContextMap()["error"])
	assert.EqualValues(t, 2, entries[0].ContextMap()["difficulty"])
}

func TestLoggerRespectsLevel(t *testing.T) {
	logger, observedLogs := newObservedLogger(zap.WarnLevel)

	logger.Debug(context.Background(), "hidden")
	logger.Info(context.Background(), "hidden")
	logger.Warn(context.Background(), "shown")

	require.Len(t, observedLogs.All(), 1)
	assert.Equal(t, "shown", observedLogs.All()[0].Message)
}

func TestMergeFieldsDoesNotMutateInput(t *testing.T) {
	first := map[string]interface{}{"a": 1}
	merged := mergeFields(first, nil, map[string]interface{}{"b": 2})

	assert.Equal(t, map[string]interface{}{"a": 1, "b": 2}, merged)
	assert.Equal(t, map[string]interface{}{"a": 1}, first)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zap.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zap.WarnLevel, ParseLevel("WARN"))
	assert.Equal(t, zap.ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, zap.InfoLevel, ParseLevel(""))
	assert.Equal(t, zap.InfoLevel, ParseLevel("verbose"))
}

func TestNewLogger_DisabledIsNop(t *testing.T) {
	logger := NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	require.NotNil(t, logger)
	assert.False(t, logger.Core().Enabled(zap.ErrorLevel))

	assert.NotNil(t, NewLogger(nil))
}
