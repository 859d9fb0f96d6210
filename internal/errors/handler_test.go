package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xgarcia1/FinalProject/internal/shared/testutil"
)

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestNewErrorHandler(t *testing.T) {
	for _, includeStack := range []bool{true, false} {
		t.Run(fmt.Sprintf("includeStack=%v", includeStack), func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)

			handler := NewErrorHandler(logger, includeStack)

			require.NotNil(t, handler)
			assert.Equal(t, includeStack, handler.includeStack)
			assert.NotNil(t, handler.logger)
		})
	}
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantTitle  string
	}{
		{
			name:       "context deadline exceeded",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
			wantTitle:  "Request Timeout",
		},
		{
			name:       "api error",
			err:        ErrMissingFile,
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantTitle:  "Bad Request",
		},
		{
			name:       "parse error",
			err:        &ParseError{Filename: "data.csv", Line: 3, Err: errors.New("wrong number of fields")},
			wantStatus: http.StatusBadRequest,
			wantType:   TypeParse,
			wantTitle:  "Unreadable Data File",
		},
		{
			name:       "axis type error",
			err:        &AxisTypeError{Axis: AxisY, Column: "region", Expected: "numeric"},
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeAxisType,
			wantTitle:  "Invalid Axis Column",
		},
		{
			name:       "category count error",
			err:        &CategoryCountError{Column: "label", Count: 11, Max: 10},
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeCategoryCount,
			wantTitle:  "Too Many Categories",
		},
		{
			name:       "processing error",
			err:        &ProcessingError{Err: errors.New("render failed")},
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeProcessing,
			wantTitle:  "Processing Failed",
		},
		{
			name:       "unknown error",
			err:        errors.New("something odd"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeProcessing,
			wantTitle:  "Processing Failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			handler := NewErrorHandler(logger, false)

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/api/charts", nil)

			handler.HandleError(w, r, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeProblem(t, w)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, tt.wantTitle, body["title"])
			assert.Equal(t, "/api/charts", body["instance"])
			assert.Contains(t, body, "trace_id")
			assert.NotContains(t, body, "stack")
		})
	}
}

func TestErrorHandler_HandleError_Nil(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)

	w := httptest.NewRecorder()
	handler.HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Equal(t, 0, w.Body.Len())
	assert.Equal(t, 0, logs.Count())
}

func TestErrorHandler_HandleError_LogLevels(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)
	r := httptest.NewRequest(http.MethodPost, "/api/charts", nil)

	handler.HandleError(httptest.NewRecorder(), r, &AxisTypeError{Axis: AxisX, Column: "a", Expected: "numeric or datetime"})
	testutil.AssertNoErrors(t, logs)
	testutil.AssertLogContains(t, logs, slog.LevelWarn, "request failed")

	handler.HandleError(httptest.NewRecorder(), r, errors.New("boom"))
	testutil.AssertLogContains(t, logs, slog.LevelError, "request failed")
	testutil.AssertLogAttr(t, logs, "component", "error_handler")
}

func TestErrorHandler_JoinedErrors(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)

	err := errors.Join(
		&AxisTypeError{Axis: AxisX, Column: "region", Expected: "numeric or datetime"},
		&AxisTypeError{Axis: AxisY, Column: "date", Expected: "numeric"},
	)

	w := httptest.NewRecorder()
	handler.HandleError(w, httptest.NewRequest(http.MethodPost, "/api/charts", nil), err)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decodeProblem(t, w)
	assert.Equal(t, TypeMultiple, body["type"])

	items, ok := body["errors"].([]interface{})
	require.True(t, ok)
	require.Len(t, items, 2)
	first := items[0].(map[string]interface{})
	assert.Equal(t, KindAxisType, first["kind"])
	assert.Equal(t, "X-axis column 'region' must be numeric or datetime.", first["message"])
}

func TestErrorHandler_ErrorToProblem_Extensions(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)
	r := httptest.NewRequest(http.MethodPost, "/api/charts", nil)

	p := handler.ErrorToProblem(&CategoryCountError{Column: "label", Count: 12, Max: 10}, r)
	assert.Equal(t, 12, p.Extensions["count"])
	assert.Equal(t, 10, p.Extensions["max"])

	p = handler.ErrorToProblem(&ParseError{Line: 7}, r)
	assert.Equal(t, 7, p.Extensions["line"])

	p = handler.ErrorToProblem(NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "bad", "kind"), r)
	assert.Equal(t, "VALIDATION_FAILED", p.Extensions["error_code"])
	assert.Equal(t, "kind", p.Extensions["details"])
}

func TestErrorHandler_IncludeStack(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, true)

	w := httptest.NewRecorder()
	handler.HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("boom"))

	body := decodeProblem(t, w)
	assert.NotEmpty(t, body["stack"])
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, true)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	ctx := context.WithValue(r.Context(), middleware.RequestIDKey, "req-42")

	handler.HandlePanic(w, r.WithContext(ctx), "nil map write")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeProblem(t, w)
	assert.Equal(t, "req-42", body["trace_id"])
	assert.Equal(t, "nil map write", body["panic"])
	testutil.AssertLogContains(t, logs, slog.LevelError, "panic recovered")
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)

	w := httptest.NewRecorder()
	handler.NotFound(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, TypeNotFound, decodeProblem(t, w)["type"])

	w = httptest.NewRecorder()
	handler.MethodNotAllowed(w, httptest.NewRequest(http.MethodDelete, "/api/charts", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "Method DELETE is not allowed for this endpoint", decodeProblem(t, w)["detail"])
}

func TestErrorHandler_Middleware(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)

	panicking := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("unexpected")
	}))
	w := httptest.NewRecorder()
	panicking.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	ok := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	w = httptest.NewRecorder()
	ok.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
