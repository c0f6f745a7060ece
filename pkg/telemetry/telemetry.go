// Package telemetry exports the spans and metrics of a single provisioning run.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Telemetry writes each span to w as soon as it ends, and every metric once, when the
// run is over.
type Telemetry struct {
	tracerProvider *trace.TracerProvider
	meterProvider  *metric.MeterProvider
	reader         *metric.ManualReader
	metricExporter metric.Exporter
}

// Initialize installs global tracer and meter providers exporting to w.
func Initialize(serviceName string, w io.Writer) (*Telemetry, error) {
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	)

	traceExporter, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	// Steps are exported as they complete.
	tracerProvider := trace.NewTracerProvider(
		trace.WithSyncer(traceExporter),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)

	metricExporter, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	reader := metric.NewManualReader()
	meterProvider := metric.NewMeterProvider(
		metric.WithReader(reader),
		metric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	return &Telemetry{
		tracerProvider: tracerProvider,
		meterProvider:  meterProvider,
		reader:         reader,
		metricExporter: metricExporter,
	}, nil
}

// Shutdown exports the collected metrics once and flushes pending spans.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error

	var rm metricdata.ResourceMetrics
	if err := t.reader.Collect(ctx, &rm); err != nil {
		errs = append(errs, fmt.Errorf("failed to collect metrics: %w", err))
	} else if err := t.metricExporter.Export(ctx, &rm); err != nil {
		errs = append(errs, fmt.Errorf("failed to export metrics: %w", err))
	}

	if err := t.tracerProvider.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to shutdown tracer provider: %w", err))
	}

	if err := t.meterProvider.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to shutdown meter provider: %w", err))
	}

	if err := t.metricExporter.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to shutdown metric exporter: %w", err))
	}

	return errors.Join(errs...)
}
