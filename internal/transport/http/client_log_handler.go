package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	apierrors "github.com/xgarcia1/FinalProject/internal/errors"
)

// ClientLogHandler records errors reported by the page, such as a dropped
// session socket or an image that failed to decode
type ClientLogHandler struct {
	validator    StructValidator
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewClientLogHandler creates a new client log handler
func NewClientLogHandler(validator StructValidator, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *ClientLogHandler {
	return &ClientLogHandler{
		validator:    validator,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "client_log")),
	}
}

// LogRequest represents a client log entry
type LogRequest struct {
	Level   string                 `json:"level" validate:"omitempty,oneof=debug info warn error"`
	Message string                 `json:"message" validate:"required,max=2048"`
	Source  string                 `json:"source,omitempty" validate:"max=256"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

var clientLogLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Handle processes POST /api/logs
func (h *ClientLogHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req LogRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	level, ok := clientLogLevels[req.Level]
	if !ok {
		level = slog.LevelInfo
	}

	attrs := []slog.Attr{slog.String("client_source", req.Source)}
	if req.Data != nil {
		attrs = append(attrs, slog.Any("data", req.Data))
	}
	h.logger.LogAttrs(r.Context(), level, req.Message, attrs...)

	w.WriteHeader(http.StatusNoContent)
}
