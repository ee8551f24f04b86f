// Package observability provides OpenTelemetry tracing, metrics, and structured logging
// with trace correlation for the quiz server.
package observability

import (
	"context"
	"os"
	"strings"

	"devopsquiz/internal/config"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps the zap logger with OpenTelemetry context support
type Logger struct {
	*zap.Logger
	provider *log.LoggerProvider
}

// NewLogger creates a new info-level logger
func NewLogger(cfg *config.OpenTelemetryConfig) *Logger {
	return NewLoggerWithLevel(cfg, zap.InfoLevel)
}

// ParseLevel maps a config log level to a zap level, defaulting to info
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zap.DebugLevel
	case "warn", "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// NewLoggerWithLevel creates a logger writing JSON to stdout and, when an
// endpoint is configured, exporting records over OTLP as well
func NewLoggerWithLevel(cfg *config.OpenTelemetryConfig, level zapcore.Level) *Logger {
	if cfg == nil || !cfg.EnableLogging {
		return &Logger{Logger: zap.NewNop()}
	}

	zapLogger := newStdoutLogger(level)
	if cfg.Endpoint == "" {
		return &Logger{Logger: zapLogger}
	}

	provider, err := newLoggerProvider(cfg)
	if err != nil {
		zapLogger.Error("OTLP log export disabled", zap.Error(err), zap.String("endpoint", cfg.Endpoint))
		return &Logger{Logger: zapLogger}
	}

	otelCore := otelzap.NewCore("devopsquiz", otelzap.WithLoggerProvider(provider))
	zapLogger = zap.New(zapcore.NewTee(zapLogger.Core(), otelCore))
	zapLogger.Debug("OTLP log export configured", zap.String("endpoint", cfg.Endpoint))

	return &Logger{Logger: zapLogger, provider: provider}
}

func newStdoutLogger(level zapcore.Level) *zap.Logger {
	zapConfig := zap.NewProductionConfig()
	if os.Getenv("ENV") == "development" {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	zapConfig.EncoderConfig.TimeKey = "timestamp"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zapLogger, err := zapConfig.Build()
	if err != nil {
		return zap.NewExample()
	}
	return zapLogger
}

func newLoggerProvider(cfg *config.OpenTelemetryConfig) (*log.LoggerProvider, error) {
	ctx := context.Background()
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	opts := []otlploggrpc.Option{
		otlploggrpc.WithEndpoint(cfg.Endpoint),
		otlploggrpc.WithHeaders(cfg.Headers),
	}
	if cfg.Insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return log.NewLoggerProvider(
		log.WithProcessor(log.NewBatchProcessor(exporter)),
		log.WithResource(res),
	), nil
}

// Debug logs a debug message with context
func (l *Logger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.logWithContext(ctx, zap.DebugLevel, msg, fields...)
}

// Info logs an info message with context
func (l *Logger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.logWithContext(ctx, zap.InfoLevel, msg, fields...)
}

// Warn logs a warning message with context
func (l *Logger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.logWithContext(ctx, zap.WarnLevel, msg, fields...)
}

// Error logs an error message with context
func (l *Logger) Error(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	allFields := mergeFields(fields...)
	if err != nil {
		allFields["error"] = err.Error()
	}
	l.logWithContext(ctx, zap.ErrorLevel, msg, allFields)
}

// logWithContext logs a message with OpenTelemetry context correlation
func (l *Logger) logWithContext(ctx context.Context, level zapcore.Level, msg string, fields ...map[string]interface{}) {
	if ce := l.Logger.Check(level, msg); ce != nil {
		allFields := mergeFields(fields...)

		if spanContext := trace.SpanContextFromContext(ctx); spanContext.IsValid() {
			allFields["trace_id"] = spanContext.TraceID().String()
			allFields["span_id"] = spanContext.SpanID().String()
		}

		zapFields := make([]zap.Field, 0, len(allFields))
		for k, v := range allFields {
			zapFields = append(zapFields, zap.Any(k, v))
		}
		ce.Write(zapFields...)
	}
}

// mergeFields merges multiple field maps into a fresh map
func mergeFields(fields ...map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{})
	for _, fieldMap := range fields {
		for k, v := range fieldMap {
			merged[k] = v
		}
	}
	return merged
}

// Sync flushes buffered log entries and shuts down the OTLP exporter
func (l *Logger) Sync(ctx context.Context) error {
	err := l.Logger.Sync()
	if l.provider != nil {
		if shutdownErr := l.provider.Shutdown(ctx); shutdownErr != nil {
			return shutdownErr
		}
	}
	return err
}
