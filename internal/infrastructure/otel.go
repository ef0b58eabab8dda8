package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"dapodiksync/internal/config"
)

const (
	ServiceVersion = "1.0.0"
	MeterName      = "dapodiksync"
)

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// NoopProviders returns providers that record nothing; used by tests and the CLI when telemetry is off.
func NoopProviders(logger *slog.Logger) *OTelProviders {
	if logger == nil {
		logger = GetLogger()
	}
	return &OTelProviders{
		Tracer: tracenoop.NewTracerProvider().Tracer(MeterName),
		Meter:  metricnoop.NewMeterProvider().Meter(MeterName),
		Logger: logger,
	}
}

// InitializeOTel wires tracing and metrics according to cfg.
// The Prometheus exporter uses its own registry, exposed through PrometheusHTTP.
func InitializeOTel(cfg config.TelemetryConfig, logger *slog.Logger) (*OTelProviders, error) {
	ctx := context.Background()
	providers := NoopProviders(logger)

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
		)
		providers.TracerProvider = tp
		providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(ServiceVersion))
		otel.SetTracerProvider(tp)
	case "none", "":
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	switch cfg.MetricExporter {
	case "prometheus":
		registry := promclient.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)
		providers.MeterProvider = mp
		providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(ServiceVersion))
		providers.PrometheusHTTP = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
		otel.SetMeterProvider(mp)
	case "none", "":
	default:
		return nil, fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	providers.Logger.InfoContext(ctx, "OpenTelemetry initialized",
		slog.String("service", cfg.ServiceName),
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.String("metric_exporter", cfg.MetricExporter))

	return providers, nil
}

// Shutdown flushes and stops the SDK providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	return errors.Join(errs...)
}

func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, os.Getpid())
}

// RecordError marks the span in ctx as failed
func RecordError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// HTTPMetrics are the request instruments used by the OTel middleware
type HTTPMetrics struct {
	RequestsTotal   metric.Int64Counter
	RequestDuration metric.Float64Histogram
	ActiveRequests  metric.Int64UpDownCounter
}

// NewHTTPMetrics creates the HTTP request instruments
func NewHTTPMetrics(meter metric.Meter) (*HTTPMetrics, error) {
	requests, err := meter.Int64Counter("http_requests_total",
		metric.WithDescription("Total number of HTTP requests"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	active, err := meter.Int64UpDownCounter("http_active_requests",
		metric.WithDescription("Number of active HTTP requests"))
	if err != nil {
		return nil, err
	}
	return &HTTPMetrics{RequestsTotal: requests, RequestDuration: duration, ActiveRequests: active}, nil
}

// PipelineMetrics instruments the upload-to-report pipeline
type PipelineMetrics struct {
	buildsTotal      metric.Int64Counter
	buildDuration    metric.Float64Histogram
	recordsTotal     metric.Int64Counter
	filesSkipped     metric.Int64Counter
	artifactsTotal   metric.Int64Counter
	artifactBytes    metric.Int64Histogram
	mergedFilesTotal metric.Int64Counter
}

// NewPipelineMetrics creates the pipeline instruments
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	m := &PipelineMetrics{}
	var err error

	if m.buildsTotal, err = meter.Int64Counter("report_builds_total",
		metric.WithDescription("Report bundles built, by status")); err != nil {
		return nil, err
	}
	if m.buildDuration, err = meter.Float64Histogram("report_build_duration_seconds",
		metric.WithDescription("Time from upload to finished bundle"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.recordsTotal, err = meter.Int64Counter("records_normalized_total",
		metric.WithDescription("Normalized records, by dataset")); err != nil {
		return nil, err
	}
	if m.filesSkipped, err = meter.Int64Counter("upload_files_skipped_total",
		metric.WithDescription("Uploaded files skipped, by error type")); err != nil {
		return nil, err
	}
	if m.artifactsTotal, err = meter.Int64Counter("report_artifacts_total",
		metric.WithDescription("Rendered artifacts, by format and status")); err != nil {
		return nil, err
	}
	if m.artifactBytes, err = meter.Int64Histogram("report_artifact_bytes",
		metric.WithDescription("Size of rendered artifacts"),
		metric.WithUnit("By")); err != nil {
		return nil, err
	}
	if m.mergedFilesTotal, err = meter.Int64Counter("merge_files_total",
		metric.WithDescription("Workbooks merged, by status")); err != nil {
		return nil, err
	}
	return m, nil
}

func statusAttr(err error) attribute.KeyValue {
	if err != nil {
		return attribute.String("status", "failure")
	}
	return attribute.String("status", "success")
}

// RecordBuild records one Build call
func (m *PipelineMetrics) RecordBuild(ctx context.Context, d time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(statusAttr(err))
	m.buildsTotal.Add(ctx, 1, attrs)
	m.buildDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordRecords counts normalized records for a dataset
func (m *PipelineMetrics) RecordRecords(ctx context.Context, dataset string, n int) {
	if m == nil {
		return
	}
	m.recordsTotal.Add(ctx, int64(n), metric.WithAttributes(attribute.String("dataset", dataset)))
}

// RecordSkipped counts an upload dropped from the pipeline
func (m *PipelineMetrics) RecordSkipped(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.filesSkipped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordArtifact records one writer run
func (m *PipelineMetrics) RecordArtifact(ctx context.Context, format string, size int, err error) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String("format", format), statusAttr(err)}
	m.artifactsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	if err == nil {
		m.artifactBytes.Record(ctx, int64(size), metric.WithAttributes(attribute.String("format", format)))
	}
}

// RecordMerged counts one merged (or skipped) workbook
func (m *PipelineMetrics) RecordMerged(ctx context.Context, err error) {
	if m == nil {
		return
	}
	m.mergedFilesTotal.Add(ctx, 1, metric.WithAttributes(statusAttr(err)))
}
