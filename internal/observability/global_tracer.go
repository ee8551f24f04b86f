package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "devopsquiz"

var globalTracer trace.Tracer

// InitGlobalTracer binds the package tracer to the current global provider
func InitGlobalTracer() {
	globalTracer = otel.Tracer(tracerName)
}

// GetGlobalTracer returns the package tracer
func GetGlobalTracer() trace.Tracer {
	if globalTracer == nil {
		globalTracer = otel.Tracer(tracerName)
	}
	return globalTracer
}

// TraceFunction starts a span named "<service>.<function>"
func TraceFunction(ctx context.Context, serviceName, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	spanName := fmt.Sprintf("%s.%s", serviceName, functionName)
	return GetGlobalTracer().Start(ctx, spanName, trace.WithAttributes(attributes...))
}

// TraceAIFunction starts a span for the AI service
func TraceAIFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "ai", functionName, attributes...)
}

// TraceQuizFunction starts a span for the quiz flow service
func TraceQuizFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "quiz", functionName, attributes...)
}

// TraceHandlerFunction starts a span for an HTTP handler
func TraceHandlerFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "handler", functionName, attributes...)
}

// TraceSecretsFunction starts a span for secret resolution
func TraceSecretsFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "secrets", functionName, attributes...)
}

// TraceDatabaseFunction starts a span for a database function
func TraceDatabaseFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "database", functionName, attributes...)
}

// TraceUsageStatsFunction starts a span for the usage stats service
func TraceUsageStatsFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "usage_stats", functionName, attributes...)
}

// FinishSpan ends a span and records any error pointed to by errPtr.
// Use with a named error return: `defer observability.FinishSpan(span, &err)`
func FinishSpan(span trace.Span, errPtr *error) {
	if span == nil {
		return
	}
	if errPtr != nil && *errPtr != nil {
		span.RecordError(*errPtr, trace.WithStackTrace(true))
		span.SetStatus(codes.Error, (*errPtr).Error())
	}
	span.End()
}

// AttributeCategory returns a tracing attribute for a topic category.
func AttributeCategory(category string) attribute.KeyValue {
	return attribute.String("quiz.category", category)
}

// AttributeSubject returns a tracing attribute for a topic subject.
func AttributeSubject(subject string) attribute.KeyValue {
	return attribute.String("quiz.subject", subject)
}

// AttributeKeyword returns a tracing attribute for the picked keyword.
func AttributeKeyword(keyword string) attribute.KeyValue {
	return attribute.String("quiz.keyword", keyword)
}

// AttributeDifficulty returns a tracing attribute for a difficulty level.
func AttributeDifficulty(difficulty string) attribute.KeyValue {
	return attribute.String("quiz.difficulty", difficulty)
}

// AttributeQuestionID returns a tracing attribute for the active question id.
func AttributeQuestionID(id string) attribute.KeyValue {
	return attribute.String("quiz.question_id", id)
}

// AttributeSession returns a tracing attribute for a hashed session id.
func AttributeSession(hashedID string) attribute.KeyValue {
	return attribute.String("quiz.session", hashedID)
}

// AttributeProvider returns a tracing attribute for the completion provider.
func AttributeProvider(provider string) attribute.KeyValue {
	return attribute.String("ai.provider", provider)
}

// AttributeModel returns a tracing attribute for the completion model.
func AttributeModel(model string) attribute.KeyValue {
	return attribute.String("ai.model", model)
}
