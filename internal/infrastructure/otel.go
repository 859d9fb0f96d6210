package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/xgarcia1/FinalProject/internal/config"
)

const (
	// InstrumentationName names the tracer and meter used across csvplot
	InstrumentationName = "github.com/xgarcia1/FinalProject"
)

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TraceExporter  string // "stdout" or "none"
	TraceWriter    io.Writer
	EnableMetrics  bool
	SampleRatio    float64
}

// OTelProviders holds the OpenTelemetry providers. Tracer and Meter are never nil;
// they fall back to no-op implementations when the matching signal is disabled.
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Registry       *promclient.Registry
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// DefaultOTelConfig returns a configuration with metrics on and tracing off
func DefaultOTelConfig() *OTelConfig {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	return &OTelConfig{
		ServiceName:    config.AppName,
		ServiceVersion: config.AppVersion,
		Environment:    env,
		TraceExporter:  "none",
		EnableMetrics:  true,
		SampleRatio:    1.0,
	}
}

// OTelConfigFrom converts application telemetry settings
func OTelConfigFrom(cfg config.TelemetryConfig) *OTelConfig {
	out := DefaultOTelConfig()
	if cfg.ServiceName != "" {
		out.ServiceName = cfg.ServiceName
	}
	out.TraceExporter = cfg.TraceExporter
	out.EnableMetrics = cfg.MetricsEnabled
	return out
}

// InitializeOTel sets up tracing and metrics and installs them as the global providers
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = DefaultOTelConfig()
	}
	if logger == nil {
		logger = GetLogger()
	}

	ctx := context.Background()

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	)

	providers := &OTelProviders{
		Logger:   logger.With(slog.String("component", "otel")),
		Tracer:   otel.Tracer(InstrumentationName),
		Meter:    metricnoop.NewMeterProvider().Meter(InstrumentationName),
		Registry: promclient.NewRegistry(),
	}
	providers.PrometheusHTTP = promhttp.HandlerFor(providers.Registry, promhttp.HandlerOpts{})

	if err := initializeTracing(ctx, cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if cfg.EnableMetrics {
		if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	providers.Logger.InfoContext(ctx, "OpenTelemetry initialized",
		slog.String("service", cfg.ServiceName),
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	return providers, nil
}

func initializeTracing(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	var (
		exporter sdktrace.SpanExporter
		err      error
	)

	switch cfg.TraceExporter {
	case "stdout":
		opts := []stdouttrace.Option{stdouttrace.WithPrettyPrint()}
		if cfg.TraceWriter != nil {
			opts = append(opts, stdouttrace.WithWriter(cfg.TraceWriter))
		}
		exporter, err = stdouttrace.New(opts...)
	case "none", "":
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)

	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(InstrumentationName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetTracerProvider(tp)

	providers.Logger.DebugContext(ctx, "tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))
	return nil
}

func initializeMetrics(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	exporter, err := otelprom.New(otelprom.WithRegisterer(providers.Registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	providers.MeterProvider = mp
	providers.Meter = mp.Meter(InstrumentationName, metric.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetMeterProvider(mp)

	providers.Logger.DebugContext(ctx, "metrics initialized", slog.String("exporter", "prometheus"))
	return nil
}

// Shutdown flushes and stops the providers
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

	if err := errors.Join(errs...); err != nil {
		return err
	}

	p.Logger.InfoContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}

// ChartMetrics holds the instruments recorded along the upload to chart pipeline
type ChartMetrics struct {
	UploadsTotal     metric.Int64Counter
	IngestDuration   metric.Float64Histogram
	ColumnsCoerced   metric.Int64Counter
	ValidationErrors metric.Int64Counter
	RendersTotal     metric.Int64Counter
	RenderDuration   metric.Float64Histogram
	ExportsTotal     metric.Int64Counter
	ActiveSessions   metric.Int64UpDownCounter
	SessionEvents    metric.Int64Counter

	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter
}

// CreateChartMetrics registers the chart pipeline instruments on meter
func CreateChartMetrics(meter metric.Meter) (*ChartMetrics, error) {
	var (
		m    ChartMetrics
		errs []error
	)

	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		errs = append(errs, err)
		return c
	}
	seconds := func(name, desc string) metric.Float64Histogram {
		h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
		errs = append(errs, err)
		return h
	}
	gauge := func(name, desc string) metric.Int64UpDownCounter {
		g, err := meter.Int64UpDownCounter(name, metric.WithDescription(desc))
		errs = append(errs, err)
		return g
	}

	m.UploadsTotal = counter("csvplot_uploads", "Uploaded data files by format and outcome")
	m.IngestDuration = seconds("csvplot_ingest_duration", "Time spent parsing and normalizing an upload")
	m.ColumnsCoerced = counter("csvplot_columns_coerced", "Columns by temporal coercion result")
	m.ValidationErrors = counter("csvplot_validation_errors", "Chart validation errors by kind")
	m.RendersTotal = counter("csvplot_renders", "Rendered charts by kind and format")
	m.RenderDuration = seconds("csvplot_render_duration", "Time spent planning and drawing a chart")
	m.ExportsTotal = counter("csvplot_exports", "Normalized dataset exports by format")
	m.ActiveSessions = gauge("csvplot_active_sessions", "Open interactive sessions")
	m.SessionEvents = counter("csvplot_session_events", "Session events by type")

	m.HTTPRequestsTotal = counter("http_requests", "Total number of HTTP requests")
	m.HTTPRequestDuration = seconds("http_request_duration", "HTTP request duration in seconds")
	m.HTTPActiveRequests = gauge("http_active_requests", "Number of active HTTP requests")

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &m, nil
}

func statusAttr(err error) attribute.KeyValue {
	if err != nil {
		return attribute.String("status", "failure")
	}
	return attribute.String("status", "success")
}

// RecordIngest records one ingestion attempt
func RecordIngest(ctx context.Context, m *ChartMetrics, format string, duration time.Duration, converted, unconverted int, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("format", format), statusAttr(err))
	m.UploadsTotal.Add(ctx, 1, attrs)
	m.IngestDuration.Record(ctx, duration.Seconds(), attrs)

	if converted > 0 {
		m.ColumnsCoerced.Add(ctx, int64(converted), metric.WithAttributes(attribute.String("result", "converted")))
	}
	if unconverted > 0 {
		m.ColumnsCoerced.Add(ctx, int64(unconverted), metric.WithAttributes(attribute.String("result", "unconverted")))
	}
}

// RecordValidationErrors counts each validation error by its kind
func RecordValidationErrors(ctx context.Context, m *ChartMetrics, kinds []string) {
	if m == nil {
		return
	}
	for _, kind := range kinds {
		m.ValidationErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("error.kind", kind)))
	}
}

// RecordRender records one chart render
func RecordRender(ctx context.Context, m *ChartMetrics, kind, format string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("chart.kind", kind),
		attribute.String("format", format),
		statusAttr(err),
	)
	m.RendersTotal.Add(ctx, 1, attrs)
	m.RenderDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordExport records one dataset export
func RecordExport(ctx context.Context, m *ChartMetrics, format string, err error) {
	if m == nil {
		return
	}
	m.ExportsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("format", format), statusAttr(err)))
}

// RecordSessionChange adjusts the active session gauge
func RecordSessionChange(ctx context.Context, m *ChartMetrics, delta int64) {
	if m == nil {
		return
	}
	m.ActiveSessions.Add(ctx, delta)
}

// RecordSessionEvent counts one applied session event
func RecordSessionEvent(ctx context.Context, m *ChartMetrics, eventType string) {
	if m == nil {
		return
	}
	m.SessionEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("event.type", eventType)))
}

// RecordHTTPRequest records a completed HTTP request
func RecordHTTPRequest(ctx context.Context, m *ChartMetrics, method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// TraceIDFromContext extracts the active span's trace ID
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// AddSpanEvent adds an event to the current span with structured attributes
func AddSpanEvent(ctx context.Context, name string, attributes map[string]interface{}) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(toAttributes(attributes)...))
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if err == nil || !span.IsRecording() {
		return
	}
	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}

// SetSpanAttributes sets attributes on the current span
func SetSpanAttributes(ctx context.Context, attributes map[string]interface{}) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(toAttributes(attributes)...)
}

func toAttributes(values map[string]interface{}) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(values))
	for k, v := range values {
		switch val := v.(type) {
		case string:
			attrs = append(attrs, attribute.String(k, val))
		case int:
			attrs = append(attrs, attribute.Int(k, val))
		case int64:
			attrs = append(attrs, attribute.Int64(k, val))
		case float64:
			attrs = append(attrs, attribute.Float64(k, val))
		case bool:
			attrs = append(attrs, attribute.Bool(k, val))
		default:
			attrs = append(attrs, attribute.String(k, fmt.Sprintf("%v", val)))
		}
	}
	return attrs
}
