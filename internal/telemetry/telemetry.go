// Package telemetry wires OpenTelemetry tracing and metrics over OTLP/HTTP.
// Everything is env-gated: when OTEL_ENABLED is off, Setup is a no-op and
// the global providers stay at their defaults.
package telemetry

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/clipstash/clipstash/internal/config"
)

// Setup installs the global tracer and meter providers and returns a
// shutdown function that flushes both. Callers always get a usable
// shutdown function, even when telemetry is disabled.
func Setup(ctx context.Context, serviceName string) (func(context.Context) error, error) {
	if !enabled() {
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			attribute.String("deployment.environment", os.Getenv(config.ENV_KEY_APP_ENV)),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExp, err := otlptracehttp.New(ctx, traceOptions()...)
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	metricExp, err := otlpmetrichttp.New(ctx, metricOptions()...)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	if err := runtime.Start(runtime.WithMeterProvider(mp)); err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, err
	}

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}

func enabled() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(config.ENV_KEY_OTEL_ENABLED))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func traceOptions() []otlptracehttp.Option {
	var opts []otlptracehttp.Option
	if ep := endpoint(); ep != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(ep))
	}
	if insecure() {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return opts
}

func metricOptions() []otlpmetrichttp.Option {
	var opts []otlpmetrichttp.Option
	if ep := endpoint(); ep != "" {
		opts = append(opts, otlpmetrichttp.WithEndpoint(ep))
	}
	if insecure() {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	return opts
}

func endpoint() string {
	return strings.TrimSpace(os.Getenv(config.ENV_KEY_OTEL_EXPORTER_OTLP_ENDPOINT))
}

func insecure() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE"))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
