package http

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xgarcia1/FinalProject/internal/config"
	apierrors "github.com/xgarcia1/FinalProject/internal/errors"
	"github.com/xgarcia1/FinalProject/internal/middleware"
	"github.com/xgarcia1/FinalProject/internal/services"
	"github.com/xgarcia1/FinalProject/internal/shared/testutil"
	"github.com/xgarcia1/FinalProject/internal/validation"
)

// stubHealth reports a fixed readiness
type stubHealth struct {
	ready string
}

func (s stubHealth) HealthCheck(ctx context.Context) services.HealthStatus {
	return services.HealthStatus{Status: "ok", Version: "test"}
}

func (s stubHealth) ReadinessCheck(ctx context.Context) services.HealthStatus {
	return services.HealthStatus{Status: s.ready, Version: "test"}
}

func (s stubHealth) LivenessCheck(ctx context.Context) services.HealthStatus {
	return services.HealthStatus{Status: "alive", Version: "test"}
}

func (s stubHealth) Version() map[string]interface{} {
	return map[string]interface{}{"version": "test"}
}

type routerFixture struct {
	handler http.Handler
	logs    *testutil.BufferedSlogHandler
}

func newRouterFixture(t *testing.T, health HealthChecker) *routerFixture {
	t.Helper()
	logger, logs := testutil.NewTestLogger(t)

	cfg := config.Default()
	cfg.Security.RateLimit.Enabled = false
	cfg.Chart.Width, cfg.Chart.Height = 320, 240

	charts := services.NewChartService(services.ChartServiceOptions{
		Chart:  cfg.Chart,
		Upload: cfg.Upload,
		Logger: logger,
	})
	if health == nil {
		health = services.NewHealthService(services.BuildInfo{Version: "1.2.3"}, charts, nil, logger)
	}

	page, err := NewPageHandler(PageOptions{
		Title:             "csvplot",
		Version:           "1.2.3",
		WebSocketPath:     config.WebSocketEndpoint,
		LogPath:           config.ClientLogEndpoint,
		AllowedExtensions: cfg.Upload.AllowedExtensions,
		MaxUploadBytes:    cfg.Upload.MaxBytes,
	}, logger)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "csvplot_test_total", Help: "test"}))

	r := NewRouter(RouterOptions{
		Config:       cfg,
		Charts:       charts,
		Health:       health,
		Uploads:      validation.NewUploadValidator(cfg.Upload, logger),
		Validator:    middleware.NewValidator(logger),
		ErrorHandler: apierrors.NewErrorHandler(logger, false),
		Page:         page,
		Sessions: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}),
		Metrics: NewMetricsHandler(registry, logger),
		Logger:  logger,
	})
	return &routerFixture{handler: r, logs: logs}
}

func (f *routerFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	f := newRouterFixture(t, nil)

	tests := []struct {
		path   string
		status string
		key    string
	}{
		{"/api/health", "ok", "timestamp"},
		{"/api/health/ready", "ready", "services"},
		{"/api/health/live", "alive", "runtime"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := f.do(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.Equal(t, http.StatusOK, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.status, body["status"])
			assert.Equal(t, "1.2.3", body["version"])
			assert.Contains(t, body, tt.key)
		})
	}

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/version", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"go_version"`)
}

func TestRouter_NotReady(t *testing.T) {
	f := newRouterFixture(t, stubHealth{ready: "not_ready"})

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"not_ready"`)
}

func TestRouter_Page(t *testing.T) {
	f := newRouterFixture(t, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	body := rec.Body.String()
	assert.Contains(t, body, "<title>csvplot</title>")
	assert.Contains(t, body, `accept=".csv,.txt,.xlsx"`)
	assert.Contains(t, body, "Up to 10.0 MB.")
	assert.Contains(t, body, `id="plot"`)
}

func TestRouter_ErrorsAreProblems(t *testing.T) {
	f := newRouterFixture(t, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apierrors.TypeNotFound, decodeProblem(t, rec.Body.Bytes())["type"])

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/charts", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, apierrors.TypeMethodNotAllowed, decodeProblem(t, rec.Body.Bytes())["type"])
}

func TestRouter_SessionsAndMetrics(t *testing.T) {
	f := newRouterFixture(t, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "csvplot_test_total 0")
}

func TestRouter_ClientLogs(t *testing.T) {
	f := newRouterFixture(t, nil)

	t.Run("records the entry", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/logs",
			strings.NewReader(`{"level":"warn","message":"session socket closed","source":"page","data":{"code":1006}}`))
		req.Header.Set("Content-Type", "application/json")
		rec := f.do(req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		testutil.AssertLogContains(t, f.logs, slog.LevelWarn, "session socket closed")
		testutil.AssertLogAttr(t, f.logs, "client_source", "page")
	})

	t.Run("message is required", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader(`{"level":"loud"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := f.do(req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "message is required")
		assert.Contains(t, rec.Body.String(), "level must be one of: debug, info, warn, error")
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader(`{`))
		req.Header.Set("Content-Type", "application/json")
		rec := f.do(req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_REQUEST", decodeProblem(t, rec.Body.Bytes())["error_code"])
	})

	t.Run("json only", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader("message=hi"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := f.do(req)

		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})
}

func TestRouter_ChartPipeline(t *testing.T) {
	f := newRouterFixture(t, nil)

	post := func(fields map[string]string) *httptest.ResponseRecorder {
		body, contentType := multipartBody(t, "sales.csv", []byte(testutil.SalesCSV), fields)
		req := httptest.NewRequest(http.MethodPost, "/api/charts", body)
		req.Header.Set("Content-Type", contentType)
		return f.do(req)
	}

	t.Run("pie", func(t *testing.T) {
		rec := post(map[string]string{"x": "region", "y": "sales", "kind": "Pie"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "sales (Pie Chart)", rec.Header().Get("X-Chart-Title"))

		cfg, err := png.DecodeConfig(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, 320, cfg.Width)
		assert.Equal(t, 240, cfg.Height)
	})

	t.Run("every selection problem is listed", func(t *testing.T) {
		rec := post(map[string]string{"x": "region", "y": "region", "kind": "Scatter"})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		problem := decodeProblem(t, rec.Body.Bytes())
		assert.Equal(t, apierrors.TypeMultiple, problem["type"])
		items := problem["errors"].([]interface{})
		require.Len(t, items, 2)
		for _, item := range items {
			assert.Equal(t, apierrors.KindAxisType, item.(map[string]interface{})["kind"])
		}
	})

	t.Run("unknown column", func(t *testing.T) {
		rec := post(map[string]string{"x": "missing", "y": "sales", "kind": "Line"})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, apierrors.TypeUnknownColumn, decodeProblem(t, rec.Body.Bytes())["type"])
	})
}
