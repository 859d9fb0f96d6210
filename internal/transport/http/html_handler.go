package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
)

//go:embed web/index.html
var webFS embed.FS

// PageOptions fills in the page template
type PageOptions struct {
	Title             string
	Version           string
	WebSocketPath     string
	LogPath           string
	AllowedExtensions []string
	MaxUploadBytes    int64
}

type pageData struct {
	Title         string
	Version       string
	WebSocketPath string
	LogPath       string
	Accept        string
	MaxUploadMB   string
}

// PageHandler serves the single application page
type PageHandler struct {
	tmpl   *template.Template
	data   pageData
	logger *slog.Logger
}

// NewPageHandler parses the embedded page template
func NewPageHandler(opts PageOptions, logger *slog.Logger) (*PageHandler, error) {
	tmpl, err := template.ParseFS(webFS, "web/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}

	return &PageHandler{
		tmpl: tmpl,
		data: pageData{
			Title:         opts.Title,
			Version:       opts.Version,
			WebSocketPath: opts.WebSocketPath,
			LogPath:       opts.LogPath,
			Accept:        strings.Join(opts.AllowedExtensions, ","),
			MaxUploadMB:   fmt.Sprintf("%.1f", float64(opts.MaxUploadBytes)/(1<<20)),
		},
		logger: logger.With(slog.String("handler", "page")),
	}, nil
}

// ServeHTTP handles GET /
func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Render into a buffer so a template failure can still send a clean 500
	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, h.data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render page", slog.String("error", err.Error()))
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = buf.WriteTo(w)
}
