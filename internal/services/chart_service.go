package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xgarcia1/FinalProject/internal/chart"
	"github.com/xgarcia1/FinalProject/internal/config"
	"github.com/xgarcia1/FinalProject/internal/dataset"
	apierrors "github.com/xgarcia1/FinalProject/internal/errors"
	"github.com/xgarcia1/FinalProject/internal/exporter"
	"github.com/xgarcia1/FinalProject/internal/infrastructure"
	"github.com/xgarcia1/FinalProject/internal/session"
)

// Upload is an uploaded file held in memory
type Upload struct {
	Filename string
	Content  []byte
}

// DatasetView is the inspection result of an upload
type DatasetView struct {
	Filename  string                   `json:"filename"`
	Rows      int                      `json:"rows"`
	Columns   []dataset.ColumnSummary  `json:"columns"`
	Coercions []dataset.CoercionResult `json:"coercions"`
	Preview   [][]string               `json:"preview"`
	Options   session.SelectionOptions `json:"options"`
}

// RenderedChart is an encoded chart image and the plan it was drawn from
type RenderedChart struct {
	Plan        *chart.Plan
	Format      chart.Format
	ContentType string
	Image       []byte
}

// ChartService runs the upload, validate, plan and render pipeline
type ChartService struct {
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *infrastructure.ChartMetrics
	reducer  *session.Reducer
	exporter *exporter.Exporter

	chartOpts   chart.Options
	renderOpts  chart.RenderOptions
	format      chart.Format
	previewRows int

	activeSessions atomic.Int64
}

// ChartServiceOptions carries the collaborators of a ChartService. Nil
// telemetry falls back to no-op implementations.
type ChartServiceOptions struct {
	Chart   config.ChartConfig
	Upload  config.UploadConfig
	Tracer  trace.Tracer
	Metrics *infrastructure.ChartMetrics
	Logger  *slog.Logger
}

// NewChartService creates a chart service
func NewChartService(opts ChartServiceOptions) *ChartService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = tracenoop.NewTracerProvider().Tracer(infrastructure.InstrumentationName)
	}

	format, err := chart.ParseFormat(opts.Chart.DefaultFormat)
	if err != nil {
		format = chart.FormatPNG
	}

	chartOpts := chart.Options{MaxPieCategories: opts.Chart.MaxPieCategories}
	previewRows := opts.Upload.PreviewRows
	if previewRows <= 0 {
		previewRows = config.DefaultPreviewRows
	}

	logger = logger.With(slog.String("component", "chart_service"))
	logger.Info("ChartService initialized",
		slog.Int("width", opts.Chart.Width),
		slog.Int("height", opts.Chart.Height),
		slog.String("default_format", string(format)),
		slog.Int("max_pie_categories", chartOpts.MaxPieCategories))

	return &ChartService{
		logger:      logger,
		tracer:      tracer,
		metrics:     opts.Metrics,
		reducer:     session.NewReducer(chartOpts, dataset.Options{}),
		exporter:    exporter.New(exporter.Options{BOMPrefix: true}),
		chartOpts:   chartOpts,
		renderOpts:  chart.RenderOptions{Width: opts.Chart.Width, Height: opts.Chart.Height},
		format:      format,
		previewRows: previewRows,
	}
}

// DefaultFormat returns the configured image format
func (s *ChartService) DefaultFormat() chart.Format {
	return s.format
}

// Inspect ingests an upload and describes it
func (s *ChartService) Inspect(ctx context.Context, up Upload) (*DatasetView, error) {
	ctx, span := s.tracer.Start(ctx, "chart.inspect",
		trace.WithAttributes(attribute.String("upload.filename", up.Filename)))
	defer span.End()

	ds, coercions, err := s.ingest(ctx, up)
	if err != nil {
		endSpan(span, err)
		return nil, err
	}

	view := &DatasetView{
		Filename:  up.Filename,
		Rows:      ds.NumRows(),
		Columns:   ds.Describe(),
		Coercions: coercions,
		Preview:   ds.Preview(s.previewRows),
		Options:   session.Options(session.ViewState{Dataset: ds}),
	}
	span.SetAttributes(attribute.Int("dataset.rows", view.Rows), attribute.Int("dataset.columns", len(view.Columns)))
	endSpan(span, nil)
	return view, nil
}

// Render evaluates a chart request against an upload from scratch
func (s *ChartService) Render(ctx context.Context, up Upload, req chart.Request, format chart.Format) (*RenderedChart, error) {
	ctx, span := s.tracer.Start(ctx, "chart.render",
		trace.WithAttributes(
			attribute.String("upload.filename", up.Filename),
			attribute.String("chart.kind", req.Kind.String()),
			attribute.String("chart.x", req.X),
			attribute.String("chart.y", req.Y),
		))
	defer span.End()

	ds, _, err := s.ingest(ctx, up)
	if err != nil {
		endSpan(span, err)
		return nil, err
	}

	plan, err := chart.BuildPlan(ds, req, s.chartOpts)
	if err != nil {
		err = apierrors.NewProcessingError(err)
		s.recordValidation(ctx, err)
		endSpan(span, err)
		return nil, err
	}

	image, err := s.RenderPlan(ctx, plan, format)
	if err != nil {
		endSpan(span, err)
		return nil, err
	}

	endSpan(span, nil)
	return &RenderedChart{
		Plan:        plan,
		Format:      s.formatOr(format),
		ContentType: s.formatOr(format).ContentType(),
		Image:       image,
	}, nil
}

// RenderPlan draws a plan and returns the encoded image
func (s *ChartService) RenderPlan(ctx context.Context, plan *chart.Plan, format chart.Format) ([]byte, error) {
	format = s.formatOr(format)
	kind := "none"
	if plan != nil {
		kind = plan.Kind.String()
	}

	start := time.Now()
	var buf bytes.Buffer
	err := chart.Render(plan, format, s.renderOpts, &buf)
	duration := time.Since(start)

	infrastructure.RecordRender(ctx, s.metrics, kind, string(format), duration, err)
	if err != nil {
		s.logger.ErrorContext(ctx, "render failed",
			slog.String("kind", kind),
			slog.String("format", string(format)),
			slog.String("error", err.Error()))
		return nil, err
	}

	s.logger.DebugContext(ctx, "chart rendered",
		slog.String("kind", kind),
		slog.String("format", string(format)),
		slog.Int("bytes", buf.Len()),
		slog.Duration("duration", duration))
	return buf.Bytes(), nil
}

// Export writes the normalized dataset of an upload to w
func (s *ChartService) Export(ctx context.Context, up Upload, format exporter.Format, w io.Writer) error {
	ctx, span := s.tracer.Start(ctx, "chart.export",
		trace.WithAttributes(
			attribute.String("upload.filename", up.Filename),
			attribute.String("export.format", string(format)),
		))
	defer span.End()

	ds, _, err := s.ingest(ctx, up)
	if err != nil {
		endSpan(span, err)
		return err
	}

	err = s.exporter.Export(ds, format, w)
	infrastructure.RecordExport(ctx, s.metrics, string(format), err)
	if err != nil {
		err = apierrors.NewProcessingError(err)
	}
	endSpan(span, err)
	return err
}

// Apply reduces one session event
func (s *ChartService) Apply(ctx context.Context, state session.ViewState, ev session.Event) session.ViewState {
	if ev == nil {
		return state
	}

	ctx, span := s.tracer.Start(ctx, "session.apply",
		trace.WithAttributes(attribute.String("session.event", ev.Type())))
	defer span.End()

	start := time.Now()
	next := s.reducer.Reduce(state, ev)
	infrastructure.RecordSessionEvent(ctx, s.metrics, ev.Type())

	if up, ok := ev.(session.Upload); ok {
		converted, unconverted := coercionCounts(next.Coercions)
		infrastructure.RecordIngest(ctx, s.metrics, string(dataset.FormatFor(up.Filename)),
			time.Since(start), converted, unconverted, ingestErr(next))
	}
	s.recordValidation(ctx, next.Err)

	if next.Err != nil {
		s.logger.InfoContext(ctx, "session event reported errors",
			slog.String("event", ev.Type()),
			slog.Any("errors", next.Messages()))
	}
	endSpan(span, next.Err)
	return next
}

// SessionOpened counts a new interactive session
func (s *ChartService) SessionOpened(ctx context.Context) {
	s.activeSessions.Add(1)
	infrastructure.RecordSessionChange(ctx, s.metrics, 1)
}

// SessionClosed counts the end of an interactive session
func (s *ChartService) SessionClosed(ctx context.Context) {
	s.activeSessions.Add(-1)
	infrastructure.RecordSessionChange(ctx, s.metrics, -1)
}

// ActiveSessions returns the number of open sessions
func (s *ChartService) ActiveSessions() int {
	return int(s.activeSessions.Load())
}

func (s *ChartService) ingest(ctx context.Context, up Upload) (*dataset.Dataset, []dataset.CoercionResult, error) {
	format := dataset.FormatFor(up.Filename)

	start := time.Now()
	ds, coercions, err := dataset.Load(bytes.NewReader(up.Content), dataset.Options{Filename: up.Filename})
	converted, unconverted := coercionCounts(coercions)
	infrastructure.RecordIngest(ctx, s.metrics, string(format), time.Since(start), converted, unconverted, err)

	if err != nil {
		s.logger.WarnContext(ctx, "upload rejected",
			slog.String("filename", up.Filename),
			slog.String("error", err.Error()))
		return nil, nil, apierrors.NewProcessingError(err)
	}

	s.logger.InfoContext(ctx, "upload ingested",
		slog.String("filename", up.Filename),
		slog.String("format", string(format)),
		slog.Int("rows", ds.NumRows()),
		slog.Int("columns", len(ds.Columns)),
		slog.Int("temporal_columns", converted))
	return ds, coercions, nil
}

func (s *ChartService) recordValidation(ctx context.Context, err error) {
	if err == nil || !apierrors.IsValidation(err) {
		return
	}
	kinds := make([]string, 0)
	for _, e := range apierrors.Flatten(err) {
		kinds = append(kinds, apierrors.Classify(e))
	}
	infrastructure.RecordValidationErrors(ctx, s.metrics, kinds)
}

func (s *ChartService) formatOr(format chart.Format) chart.Format {
	if format == "" {
		return s.format
	}
	return format
}

func coercionCounts(results []dataset.CoercionResult) (converted, unconverted int) {
	for _, r := range results {
		switch r.Status {
		case dataset.Converted:
			converted++
		case dataset.Unconverted:
			unconverted++
		}
	}
	return converted, unconverted
}

func ingestErr(state session.ViewState) error {
	if state.HasDataset() {
		return nil
	}
	if state.Err == nil {
		return errors.New("no dataset")
	}
	return state.Err
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("error.kind", apierrors.Classify(err)))
		return
	}
	span.SetStatus(codes.Ok, "")
}
