package observability

import (
	"context"
	"errors"

	"devopsquiz/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap/zapcore"
)

// Providers groups the telemetry providers created at startup so they can be
// flushed together on shutdown
type Providers struct {
	Tracer *sdktrace.TracerProvider
	Meter  *metric.MeterProvider
	Logger *Logger
}

// Shutdown flushes and stops every provider that was started
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	if p.Tracer != nil {
		errs = append(errs, p.Tracer.Shutdown(ctx))
	}
	if p.Meter != nil {
		errs = append(errs, p.Meter.Shutdown(ctx))
	}
	if p.Logger != nil {
		// stdout sync errors are not actionable
		_ = p.Logger.Sync(ctx)
	}
	return errors.Join(errs...)
}

// SetupObservability initializes tracing, metrics, and logging for a service
func SetupObservability(cfg *config.OpenTelemetryConfig, serviceName string, level zapcore.Level) (*Providers, error) {
	if serviceName != "" {
		cfg.ServiceName = serviceName
	}

	providers := &Providers{Logger: NewLoggerWithLevel(cfg, level)}

	InitPropagation()

	if cfg.EnableTracing {
		tp, err := InitStandardTracing(cfg)
		if err != nil {
			return nil, err
		}
		otel.SetTracerProvider(tp)
		providers.Tracer = tp

		providers.Logger.Info(context.Background(), "Tracing enabled", map[string]interface{}{
			"service_name": cfg.ServiceName,
			"protocol":     cfg.Protocol,
			"sampling":     cfg.SamplingRate,
		})
	}
	InitGlobalTracer()

	if cfg.EnableMetrics {
		mp, err := InitMetrics(cfg)
		if err != nil {
			return nil, err
		}
		otel.SetMeterProvider(mp)
		providers.Meter = mp
	}

	return providers, nil
}
