package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// Config controls OTLP/HTTP export of traces and metrics.
type Config struct {
	Enabled        bool          `json:",default=false"`
	ServiceName    string        `json:",default=keeperhub"`
	ServiceVersion string        `json:",default=dev"`
	Environment    string        `json:",default=development"`
	Endpoint       string        `json:",default=localhost:4318"`
	Insecure       bool          `json:",default=true"`
	SamplingRatio  float64       `json:",default=1"`
	MetricInterval time.Duration `json:",default=30s"`
}

// Provider owns the SDK providers and the ingest instruments.
type Provider struct {
	TracerProvider *trace.TracerProvider
	MeterProvider  *metric.MeterProvider
	Ingest         *IngestMetrics
}

// NewProvider installs global providers when c.Enabled. Disabled telemetry
// still returns usable instruments backed by the global no-op meter.
func NewProvider(ctx context.Context, c Config) (*Provider, error) {
	p := &Provider{}
	if c.Enabled {
		res, err := resource.New(ctx,
			resource.WithAttributes(
				semconv.ServiceNameKey.String(c.ServiceName),
				semconv.ServiceVersionKey.String(c.ServiceVersion),
				semconv.DeploymentEnvironmentKey.String(c.Environment),
			),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create resource: %w", err)
		}
		if p.TracerProvider, err = initTracing(ctx, res, c); err != nil {
			return nil, fmt.Errorf("failed to init tracing: %w", err)
		}
		otel.SetTracerProvider(p.TracerProvider)
		if p.MeterProvider, err = initMetrics(ctx, res, c); err != nil {
			return nil, fmt.Errorf("failed to init metrics: %w", err)
		}
		otel.SetMeterProvider(p.MeterProvider)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}
	ingest, err := NewIngestMetrics(otel.Meter("keeperhub"))
	if err != nil {
		return nil, fmt.Errorf("failed to create ingest metrics: %w", err)
	}
	p.Ingest = ingest
	return p, nil
}

func initTracing(ctx context.Context, res *resource.Resource, c Config) (*trace.TracerProvider, error) {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(c.Endpoint),
		otlptracehttp.WithURLPath("/v1/traces"),
	}
	if c.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exp, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return trace.NewTracerProvider(
		trace.WithResource(res),
		trace.WithBatcher(exp,
			trace.WithBatchTimeout(5*time.Second),
			trace.WithMaxExportBatchSize(512),
		),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(c.SamplingRatio))),
	), nil
}

func initMetrics(ctx context.Context, res *resource.Resource, c Config) (*metric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(c.Endpoint),
		otlpmetrichttp.WithURLPath("/v1/metrics"),
	}
	if c.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exp, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	interval := c.MetricInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(metric.NewPeriodicReader(exp, metric.WithInterval(interval))),
	), nil
}

// Shutdown flushes and stops the exporters.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown TracerProvider: %w", err))
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown MeterProvider: %w", err))
		}
	}
	return errors.Join(errs...)
}
