package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/xgarcia1/FinalProject/internal/config"
	apierrors "github.com/xgarcia1/FinalProject/internal/errors"
	"github.com/xgarcia1/FinalProject/internal/infrastructure"
	"github.com/xgarcia1/FinalProject/internal/shared/testutil"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
})

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	})
}

func TestStructuredLogger(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	h := RequestID(StructuredLogger(logger)(okHandler))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.True(t, handler.ContainsMessage("request completed"))
	assert.True(t, handler.ContainsAttr("status", int64(http.StatusOK)))
	assert.True(t, handler.ContainsAttr("path", "/api/health"))
}

func TestRateLimiter(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	errHandler := apierrors.NewErrorHandler(logger, false)
	rl := NewRateLimiter(config.RateLimitConfig{Enabled: true, RPS: 0.5, Burst: 2}, errHandler, logger)
	h := rl.Handler(okHandler)

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1:1001").Code)

	limited := send("10.0.0.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "2", limited.Header().Get("Retry-After"))
	assert.Contains(t, limited.Header().Get("Content-Type"), "application/json")

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(limited.Body.Bytes(), &body))
	assert.Equal(t, apierrors.TypeRateLimit, body["type"])

	// Other clients keep their own budget
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1000").Code)
	assert.True(t, handler.ContainsMessage("rate limit exceeded"))
}

func TestTimeout(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)

	var deadline bool
	h := Timeout(10*time.Millisecond, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, deadline = r.Context().Deadline()
		<-r.Context().Done()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/slow", nil))

	assert.True(t, deadline)
	assert.True(t, handler.ContainsMessage("request timeout"))

	// A zero timeout leaves the handler untouched
	var hasDeadline bool
	Timeout(0, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasDeadline = r.Context().Deadline()
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, hasDeadline)
}

func TestCORS(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := CORS(CORSConfigFrom(config.SecurityConfig{AllowedOrigins: []string{"http://localhost:3000"}}, logger))(okHandler)

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), RequestIDHeader)
	})

	t.Run("foreign origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://evil.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/charts", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "300", rec.Header().Get("Access-Control-Max-Age"))
	})
}

func TestSecureHeaders(t *testing.T) {
	h := DefaultSecureHeaders().Handler(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "img-src 'self' data:")
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	ws := httptest.NewRequest(http.MethodGet, "/ws", nil)
	ws.Header.Set("Upgrade", "websocket")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, ws)
	assert.Empty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestGetRealIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.5:4000"
	assert.Equal(t, "192.168.1.5", GetRealIP(req))

	req.Header.Set("X-Real-IP", "10.1.1.1")
	assert.Equal(t, "10.1.1.1", GetRealIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", GetRealIP(req))
}

func TestOTelMiddleware(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := infrastructure.CreateChartMetrics(mp.Meter("test"))
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(NewOTelMiddleware(tp.Tracer("test"), metrics, logger).Handler)
	r.Get("/api/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/items/7", nil))

	ended := spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "GET /api/items/{id}", ended[0].Name())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var requests int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok && m.Name == "http_requests" {
				for _, dp := range sum.DataPoints {
					requests += dp.Value
					route, _ := dp.Attributes.Value("http.route")
					assert.Equal(t, "/api/items/{id}", route.AsString())
				}
			}
		}
	}
	assert.Equal(t, int64(1), requests)
}

type chartForm struct {
	Filename string `form:"filename" validate:"required,filename"`
	X        string `form:"x" validate:"required"`
	Kind     string `form:"kind" validate:"required,chartkind"`
	Format   string `form:"format" validate:"omitempty,imageformat"`
	Export   string `form:"export" validate:"omitempty,exportformat"`
}

func TestValidator(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	v := NewValidator(logger)

	require.NoError(t, v.Struct(chartForm{Filename: "sales.csv", X: "date", Kind: "Pie", Format: "svg", Export: "xlsx"}))

	err := v.Struct(chartForm{Filename: "../etc/passwd", Kind: "donut", Format: "gif", Export: "json"})
	require.Error(t, err)

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", apiErr.ErrorCode)

	details, ok := apiErr.Details.(apierrors.ValidationErrors)
	require.True(t, ok)

	messages := make(map[string]string)
	for _, fe := range details.Errors {
		messages[fe.Field] = fe.Message
	}
	assert.Equal(t, "filename must be a valid filename", messages["filename"])
	assert.Equal(t, "x is required", messages["x"])
	assert.Equal(t, "kind must be one of: Line, Scatter, Bar, Pie", messages["kind"])
	assert.Equal(t, "format must be png or svg", messages["format"])
	assert.Equal(t, "export must be csv or xlsx", messages["export"])
}

func TestContentTypeValidator(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := ContentTypeValidator(apierrors.NewErrorHandler(logger, false), "multipart/form-data")(okHandler)

	tests := []struct {
		name        string
		method      string
		contentType string
		want        int
	}{
		{"get skips", http.MethodGet, "", http.StatusOK},
		{"multipart", http.MethodPost, "multipart/form-data; boundary=xyz", http.StatusOK},
		{"missing", http.MethodPost, "", http.StatusBadRequest},
		{"json", http.MethodPost, "application/json", http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/charts", strings.NewReader("body"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestMaxBodySize(t *testing.T) {
	var readErr error
	h := MaxBodySize(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 16)
		_, readErr = r.Body.Read(buf)
		for readErr == nil {
			_, readErr = r.Body.Read(buf)
		}
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))

	var maxErr *http.MaxBytesError
	assert.ErrorAs(t, readErr, &maxErr)
}
