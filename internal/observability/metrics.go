package observability

import (
	"context"
	"time"

	"devopsquiz/internal/config"
	contextutils "devopsquiz/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// InitMetrics initializes an OpenTelemetry MeterProvider with an OTLP exporter
func InitMetrics(cfg *config.OpenTelemetryConfig) (*metric.MeterProvider, error) {
	ctx := context.Background()

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var exporter metric.Exporter
	switch cfg.Protocol {
	case "grpc":
		opts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
			otlpmetricgrpc.WithHeaders(cfg.Headers),
		}
		if cfg.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		exp, err := otlpmetricgrpc.New(ctx, opts...)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create otlp grpc metric exporter: %w", err)
		}
		exporter = exp
	case "http":
		opts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(cfg.Endpoint),
			otlpmetrichttp.WithHeaders(cfg.Headers),
		}
		if cfg.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exp, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create otlp http metric exporter: %w", err)
		}
		exporter = exp
	default:
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "unsupported otel protocol: %s", cfg.Protocol)
	}

	return metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter)),
		metric.WithResource(res),
	), nil
}

// QuizMetrics holds the instruments recorded by the quiz flow
type QuizMetrics struct {
	aiRequests         otelmetric.Int64Counter
	aiDuration         otelmetric.Float64Histogram
	aiScore            otelmetric.Int64Histogram
	questionsGenerated otelmetric.Int64Counter
	answersEvaluated   otelmetric.Int64Counter
}

// NewQuizMetrics creates the instruments on the global meter provider. With
// metrics disabled the global provider is a no-op.
func NewQuizMetrics() (*QuizMetrics, error) {
	meter := otel.Meter("devopsquiz")

	aiRequests, err := meter.Int64Counter("quiz.ai.requests",
		otelmetric.WithDescription("Completion API calls by operation and result"))
	if err != nil {
		return nil, err
	}
	aiDuration, err := meter.Float64Histogram("quiz.ai.duration",
		otelmetric.WithDescription("Completion API latency"),
		otelmetric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	aiScore, err := meter.Int64Histogram("quiz.ai.score",
		otelmetric.WithDescription("Scores parsed from answer evaluations"),
		otelmetric.WithExplicitBucketBoundaries(1, 2, 3, 4, 5, 6, 7, 8, 9, 10))
	if err != nil {
		return nil, err
	}
	questionsGenerated, err := meter.Int64Counter("quiz.questions.generated",
		otelmetric.WithDescription("Questions generated by category and difficulty"))
	if err != nil {
		return nil, err
	}
	answersEvaluated, err := meter.Int64Counter("quiz.answers.evaluated",
		otelmetric.WithDescription("Answers evaluated by difficulty"))
	if err != nil {
		return nil, err
	}

	return &QuizMetrics{
		aiRequests:         aiRequests,
		aiDuration:         aiDuration,
		aiScore:            aiScore,
		questionsGenerated: questionsGenerated,
		answersEvaluated:   answersEvaluated,
	}, nil
}

// RecordAIRequest records one completion API call
func (m *QuizMetrics) RecordAIRequest(ctx context.Context, operation, provider, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("provider", provider),
		attribute.String("result", result),
	)
	m.aiRequests.Add(ctx, 1, attrs)
	m.aiDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordQuestion counts a generated question
func (m *QuizMetrics) RecordQuestion(ctx context.Context, category, difficulty string) {
	if m == nil {
		return
	}
	m.questionsGenerated.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("category", category),
		attribute.String("difficulty", difficulty),
	))
}

// RecordEvaluation counts an evaluated answer and its score when one was parsed
func (m *QuizMetrics) RecordEvaluation(ctx context.Context, difficulty string, score int, scored bool) {
	if m == nil {
		return
	}
	attrs := otelmetric.WithAttributes(attribute.String("difficulty", difficulty))
	m.answersEvaluated.Add(ctx, 1, attrs)
	if scored {
		m.aiScore.Record(ctx, int64(score), attrs)
	}
}
