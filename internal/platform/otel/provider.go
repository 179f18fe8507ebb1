// Package otel configures OpenTelemetry tracing for stockrail processes.
package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/stockrail/internal/platform/config"
	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
)

const (
	// EndpointEnv names the OTLP/HTTP collector endpoint variable.
	EndpointEnv = "STOCKRAIL_OTEL_ENDPOINT"
	// EnabledEnv disables tracing when set to "false".
	EnabledEnv = "STOCKRAIL_OTEL_ENABLED"
	// SampleRatioEnv sets the fraction of root traces kept.
	SampleRatioEnv = "STOCKRAIL_OTEL_SAMPLE_RATIO"

	namespace           = "stockrail"
	instrumentationName = "github.com/louisbranch/stockrail"
)

// Config selects where spans go and how many are kept.
type Config struct {
	Endpoint    string  `env:"STOCKRAIL_OTEL_ENDPOINT"`
	Enabled     bool    `env:"STOCKRAIL_OTEL_ENABLED" envDefault:"true"`
	SampleRatio float64 `env:"STOCKRAIL_OTEL_SAMPLE_RATIO" envDefault:"1"`
}

// Shutdown flushes pending spans.
type Shutdown func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// LoadConfig reads tracing settings from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, apperrors.Wrap(apperrors.CodeConfiguration, "parse tracing env", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects sample ratios outside [0, 1].
func (c Config) Validate() error {
	if c.SampleRatio < 0 || c.SampleRatio > 1 {
		return apperrors.Configuration("%s must be within [0, 1], got %v", SampleRatioEnv, c.SampleRatio)
	}
	return nil
}

// Active reports whether spans should be exported at all.
func (c Config) Active() bool {
	return c.Enabled && c.Endpoint != ""
}

func (c Config) sampler() sdktrace.Sampler {
	switch {
	case c.SampleRatio >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case c.SampleRatio <= 0:
		return sdktrace.ParentBased(sdktrace.NeverSample())
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(c.SampleRatio))
	}
}

// Setup registers a global tracer provider for service. An inactive config
// registers nothing and returns a no-op Shutdown.
func Setup(ctx context.Context, service string, cfg Config) (Shutdown, error) {
	if err := cfg.Validate(); err != nil {
		return noopShutdown, err
	}
	if !cfg.Active() {
		return noopShutdown, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.Endpoint))
	if err != nil {
		return noopShutdown, fmt.Errorf("otlp exporter: %w", err)
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(service),
		semconv.ServiceNamespace(namespace),
	))
	if err != nil {
		return noopShutdown, fmt.Errorf("trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(cfg.sampler()),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp.Shutdown, nil
}

// Tracer returns a component tracer from the global provider, which is a
// no-op until Setup registers one.
func Tracer(component string) trace.Tracer {
	return otel.Tracer(instrumentationName + "/" + component)
}
