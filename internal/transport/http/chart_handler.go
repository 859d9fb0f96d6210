package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/xgarcia1/FinalProject/internal/chart"
	apierrors "github.com/xgarcia1/FinalProject/internal/errors"
	"github.com/xgarcia1/FinalProject/internal/exporter"
	custommw "github.com/xgarcia1/FinalProject/internal/middleware"
	"github.com/xgarcia1/FinalProject/internal/services"
	api "github.com/xgarcia1/FinalProject/pkg/contracts/api/v1"
)

// multipartMemory is the part of a multipart body kept in memory before
// spilling to temporary files
const multipartMemory = 8 << 20

// ChartHandler serves the stateless chart endpoints. Every request carries
// the data file, so nothing is kept between requests.
type ChartHandler struct {
	service      ChartService
	uploads      UploadReader
	validator    StructValidator
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewChartHandler creates a new chart handler
func NewChartHandler(service ChartService, uploads UploadReader, validator StructValidator, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *ChartHandler {
	return &ChartHandler{
		service:      service,
		uploads:      uploads,
		validator:    validator,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("component", "chart_handler")),
	}
}

// RegisterRoutes adds the dataset and chart routes to r
func (h *ChartHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		// Room for the multipart envelope around the file
		r.Use(custommw.MaxBodySize(h.uploads.MaxBytes() + 1<<20))
		r.Use(custommw.ContentTypeValidator(h.errorHandler, "multipart/form-data"))

		r.Post("/datasets/inspect", h.Inspect)
		r.Post("/datasets/export", h.Export)
		r.Post("/charts", h.Render)
	})
}

// Inspect handles POST /api/datasets/inspect
func (h *ChartHandler) Inspect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	up, err := h.readUpload(r, func(filename string) interface{} {
		return &api.InspectRequest{Filename: filename}
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	view, err := h.service.Inspect(ctx, up)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "dataset inspected",
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.String("filename", view.Filename),
		slog.Int("rows", view.Rows),
		slog.Int("columns", len(view.Columns)))

	render.JSON(w, r, view)
}

// Render handles POST /api/charts
func (h *ChartHandler) Render(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req *api.ChartRequest
	up, err := h.readUpload(r, func(filename string) interface{} {
		req = &api.ChartRequest{
			Filename: filename,
			X:        r.FormValue(api.FieldX),
			Y:        r.FormValue(api.FieldY),
			Kind:     r.FormValue(api.FieldKind),
			Format:   r.FormValue(api.FieldFormat),
		}
		return req
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	// Both parse cleanly once the request has been validated
	kind, _ := chart.ParseKind(req.Kind)
	format := h.service.DefaultFormat()
	if req.Format != "" {
		format, _ = chart.ParseFormat(req.Format)
	}

	rendered, err := h.service.Render(ctx, up, chart.Request{X: req.X, Y: req.Y, Kind: kind}, format)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "chart rendered",
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.String("kind", rendered.Plan.Kind.String()),
		slog.String("format", string(rendered.Format)),
		slog.Int("bytes", len(rendered.Image)))

	header := w.Header()
	header.Set("Content-Type", rendered.ContentType)
	header.Set("Content-Length", strconv.Itoa(len(rendered.Image)))
	header.Set("Cache-Control", "no-store")
	header.Set(api.HeaderChartTitle, rendered.Plan.Title)
	header.Set(api.HeaderChartKind, rendered.Plan.Kind.String())
	header.Set(api.HeaderDroppedRows, strconv.Itoa(rendered.Plan.Dropped))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(rendered.Image); err != nil {
		h.logger.WarnContext(ctx, "failed to write chart", slog.String("error", err.Error()))
	}
}

// Export handles POST /api/datasets/export?format=csv|xlsx
func (h *ChartHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req *api.ExportRequest
	up, err := h.readUpload(r, func(filename string) interface{} {
		req = &api.ExportRequest{Filename: filename, Format: r.FormValue(api.FieldFormat)}
		return req
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	format, _ := exporter.ParseFormat(req.Format)
	dw := &downloadWriter{
		ResponseWriter: w,
		contentType:    format.ContentType(),
		filename:       format.Filename(up.Filename),
	}

	if err := h.service.Export(ctx, up, format, dw); err != nil {
		if dw.started {
			// Headers are gone; all that is left is to log and cut the body short
			h.logger.ErrorContext(ctx, "export failed mid-stream",
				slog.String("request_id", middleware.GetReqID(ctx)),
				slog.String("error", err.Error()))
			return
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "dataset exported",
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.String("filename", dw.filename),
		slog.String("format", string(format)))
}

// readUpload parses the multipart body, validates the form built by newForm
// and reads the uploaded file
func (h *ChartHandler) readUpload(r *http.Request, newForm func(filename string) interface{}) (services.Upload, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return services.Upload{}, apierrors.NewWithDetails(
				http.StatusRequestEntityTooLarge,
				"PAYLOAD_TOO_LARGE",
				fmt.Sprintf("Uploaded file is larger than the %d byte limit", h.uploads.MaxBytes()),
				map[string]interface{}{"limit": h.uploads.MaxBytes()},
			)
		}
		return services.Upload{}, apierrors.InvalidRequestWithError(err)
	}

	file, header, err := r.FormFile(api.FieldFile)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return services.Upload{}, apierrors.ErrMissingFile
		}
		return services.Upload{}, apierrors.InvalidRequestWithError(err)
	}
	defer file.Close()

	if err := h.validator.Struct(newForm(header.Filename)); err != nil {
		return services.Upload{}, err
	}

	content, err := h.uploads.ReadUpload(header.Filename, file)
	if err != nil {
		return services.Upload{}, err
	}
	return services.Upload{Filename: header.Filename, Content: content}, nil
}

// downloadWriter sets the download headers on the first write, so a
// failure before any output can still be answered with a problem document
type downloadWriter struct {
	http.ResponseWriter
	contentType string
	filename    string
	started     bool
}

func (d *downloadWriter) Write(p []byte) (int, error) {
	if !d.started {
		d.started = true
		header := d.ResponseWriter.Header()
		header.Set("Content-Type", d.contentType)
		header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", d.filename))
		header.Set("Cache-Control", "no-store")
		d.ResponseWriter.WriteHeader(http.StatusOK)
	}
	return d.ResponseWriter.Write(p)
}
