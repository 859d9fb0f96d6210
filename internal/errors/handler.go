package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// Problem types following RFC 7807
const (
	TypeValidation       = "/errors/validation"
	TypeNotFound         = "/errors/not-found"
	TypeRateLimit        = "/errors/rate-limit"
	TypeInternal         = "/errors/internal"
	TypeTimeout          = "/errors/timeout"
	TypePayloadTooLarge  = "/errors/payload-too-large"
	TypeMethodNotAllowed = "/errors/method-not-allowed"
)

// Chart pipeline problem types
const (
	TypeParse         = "/errors/chart/parse"
	TypeAxisType      = "/errors/chart/axis-type"
	TypeCategoryCount = "/errors/chart/category-count"
	TypeUnknownColumn = "/errors/chart/unknown-column"
	TypeProcessing    = "/errors/chart/processing"
	TypeMultiple      = "/errors/chart/multiple"
)

// ErrorHandler provides centralized error handling
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError converts any error to RFC 7807 format and responds
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := middleware.GetReqID(r.Context())

	problem := h.ErrorToProblem(err, r)
	problem.WithExtension("trace_id", reqID)

	level := slog.LevelError
	if problem.Status < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	if h.includeStack && problem.Status >= http.StatusInternalServerError {
		problem.WithExtension("stack", getStackTrace())
	}

	render.Render(w, r, problem)
}

// ErrorToProblem converts an error to RFC 7807 Problem Details
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(
			http.StatusGatewayTimeout,
			TypeTimeout,
			"Request Timeout",
			"The request took too long to process and was cancelled",
			r.URL.Path,
		)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return h.apiErrorToProblem(apiErr, r)
	}

	// Accumulated validation errors are reported together.
	if errs := Flatten(err); len(errs) > 1 {
		return h.multiProblem(errs, r)
	}

	return chartProblem(err, r.URL.Path)
}

func (h *ErrorHandler) multiProblem(errs []error, r *http.Request) *ProblemDetails {
	status := http.StatusUnprocessableEntity
	items := make([]map[string]string, 0, len(errs))
	for _, e := range errs {
		p := chartProblem(e, r.URL.Path)
		if p.Status > status {
			status = p.Status
		}
		items = append(items, map[string]string{
			"kind":    Classify(e),
			"message": p.Detail,
		})
	}

	return NewProblemDetails(
		status,
		TypeMultiple,
		"Invalid Chart Request",
		fmt.Sprintf("%d problems were found with the chart request", len(errs)),
		r.URL.Path,
	).WithExtension("errors", items)
}

// chartProblem maps a single taxonomy error onto its problem document.
func chartProblem(err error, instance string) *ProblemDetails {
	var (
		parseErr    *ParseError
		axisErr     *AxisTypeError
		categoryErr *CategoryCountError
		unknownErr  *UnknownColumnError
	)

	switch {
	case errors.As(err, &parseErr):
		p := NewProblemDetails(
			http.StatusBadRequest,
			TypeParse,
			"Unreadable Data File",
			parseErr.Error(),
			instance,
		)
		if parseErr.Line > 0 {
			p.WithExtension("line", parseErr.Line)
		}
		return p

	case errors.As(err, &axisErr):
		return NewProblemDetails(
			http.StatusUnprocessableEntity,
			TypeAxisType,
			"Invalid Axis Column",
			axisErr.Error(),
			instance,
		).WithExtension("axis", string(axisErr.Axis)).WithExtension("column", axisErr.Column)

	case errors.As(err, &categoryErr):
		return NewProblemDetails(
			http.StatusUnprocessableEntity,
			TypeCategoryCount,
			"Too Many Categories",
			categoryErr.Error(),
			instance,
		).WithExtension("count", categoryErr.Count).WithExtension("max", categoryErr.Max)

	case errors.As(err, &unknownErr):
		return NewProblemDetails(
			http.StatusUnprocessableEntity,
			TypeUnknownColumn,
			"Unknown Column",
			unknownErr.Error(),
			instance,
		).WithExtension("axis", string(unknownErr.Axis)).WithExtension("column", unknownErr.Column)

	default:
		var procErr *ProcessingError
		detail := "An unexpected error occurred while processing your request"
		if errors.As(err, &procErr) {
			detail = procErr.Error()
		}
		return NewProblemDetails(
			http.StatusInternalServerError,
			TypeProcessing,
			"Processing Failed",
			detail,
			instance,
		)
	}
}

// apiErrorToProblem converts APIError to ProblemDetails
func (h *ErrorHandler) apiErrorToProblem(apiErr *APIError, r *http.Request) *ProblemDetails {
	problemType := TypeInternal
	switch apiErr.ErrorCode {
	case "VALIDATION_FAILED", "INVALID_REQUEST", "MISSING_FILE":
		problemType = TypeValidation
	case "NOT_FOUND":
		problemType = TypeNotFound
	case "PAYLOAD_TOO_LARGE":
		problemType = TypePayloadTooLarge
	case "RATE_LIMIT_EXCEEDED":
		problemType = TypeRateLimit
	}

	problem := NewProblemDetails(
		apiErr.StatusCode,
		problemType,
		http.StatusText(apiErr.StatusCode),
		apiErr.Message,
		r.URL.Path,
	).WithExtension("error_code", apiErr.ErrorCode)

	if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}

	return problem
}

// HandlePanic recovers from panics and returns RFC 7807 error
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	reqID := middleware.GetReqID(r.Context())

	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)

	problem := NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred",
		r.URL.Path,
	).WithExtension("trace_id", reqID)

	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprintf("%v", recovered))
		problem.WithExtension("stack", getStackTrace())
	}

	render.Render(w, r, problem)
}

// NotFound returns a standard 404 error
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusNotFound,
		TypeNotFound,
		"Not Found",
		"The requested resource was not found",
		r.URL.Path,
	).WithExtension("trace_id", middleware.GetReqID(r.Context()))

	render.Render(w, r, problem)
}

// MethodNotAllowed returns a standard 405 error
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusMethodNotAllowed,
		TypeMethodNotAllowed,
		"Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method),
		r.URL.Path,
	).WithExtension("trace_id", middleware.GetReqID(r.Context()))

	render.Render(w, r, problem)
}

func getStackTrace() string {
	buf := make([]byte, 1024*8)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// Middleware recovers panics raised by downstream handlers
func (h *ErrorHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.HandlePanic(w, r, rec)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
