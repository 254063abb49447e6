// Package telemetry provides OpenTelemetry traces and RED metrics (rate,
// errors, duration) for operations wrapped with Provider.Track. The other
// packages of this module do not call it themselves.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Config configures the telemetry provider.
type Config struct {
	ServiceName  string
	OTLPEndpoint string
	Insecure     bool
	Enabled      bool
}

// DefaultConfig returns a disabled, no-op configuration. Callers opt in by
// setting Enabled.
func DefaultConfig() Config {
	return Config{
		ServiceName:  "atomic-core",
		OTLPEndpoint: "localhost:4317",
		Insecure:     true,
		Enabled:      false,
	}
}

// Provider records a span and RED metrics for each operation passed to
// Track.
type Provider struct {
	cfg            Config
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	tracer         trace.Tracer
	meter          metric.Meter
	logger         *slog.Logger

	opCounter    metric.Int64Counter
	errCounter   metric.Int64Counter
	durationHist metric.Float64Histogram
}

// New creates a Provider. When cfg.Enabled is false, New returns a Provider
// whose methods are no-ops, so call sites never need an enabled-check of
// their own.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	p := &Provider{cfg: cfg, logger: slog.Default().With("component", "telemetry")}
	if !cfg.Enabled {
		p.logger.InfoContext(ctx, "telemetry disabled")
		return p, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(cfg.ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}

	traceOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
	metricOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.Insecure {
		traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
		metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
	}

	traceExporter, err := otlptracegrpc.New(ctx, traceOpts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: trace exporter: %w", err)
	}
	p.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(traceExporter),
	)
	otel.SetTracerProvider(p.tracerProvider)

	metricExporter, err := otlpmetricgrpc.New(ctx, metricOpts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: metric exporter: %w", err)
	}
	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(15*time.Second))),
	)
	otel.SetMeterProvider(p.meterProvider)

	p.tracer = otel.Tracer("atomic-core")
	p.meter = otel.Meter("atomic-core")

	p.opCounter, err = p.meter.Int64Counter("atomic_core.operations.total",
		metric.WithDescription("Total verification-pipeline operations processed"))
	if err != nil {
		return nil, err
	}
	p.errCounter, err = p.meter.Int64Counter("atomic_core.operations.errors",
		metric.WithDescription("Total verification-pipeline operation failures"))
	if err != nil {
		return nil, err
	}
	p.durationHist, err = p.meter.Float64Histogram("atomic_core.operation.duration",
		metric.WithDescription("Operation duration in seconds"), metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	p.logger.InfoContext(ctx, "telemetry initialized",
		"service", cfg.ServiceName, "endpoint", cfg.OTLPEndpoint, "insecure", cfg.Insecure)

	return p, nil
}

// Shutdown flushes and stops the providers. Safe to call on a disabled
// Provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			p.logger.ErrorContext(ctx, "failed to shutdown trace provider", "error", err)
			return err
		}
	}
	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil {
			p.logger.ErrorContext(ctx, "failed to shutdown metric provider", "error", err)
			return err
		}
	}
	return nil
}

// Track wraps fn in a span named op and records RED metrics around its
// execution. attrs are attached to both the span and the metrics.
func (p *Provider) Track(ctx context.Context, op string, attrs []attribute.KeyValue, fn func(context.Context) error) error {
	if !p.cfg.Enabled {
		return fn(ctx)
	}

	start := time.Now()
	ctx, span := p.tracer.Start(ctx, op, trace.WithAttributes(attrs...))
	defer span.End()

	err := fn(ctx)

	p.opCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	p.durationHist.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attrs...))
	if err != nil {
		span.RecordError(err)
		errAttrs := append(append([]attribute.KeyValue{}, attrs...), attribute.String("error.type", fmt.Sprintf("%T", err)))
		p.errCounter.Add(ctx, 1, metric.WithAttributes(errAttrs...))
	}
	return err
}
