package app

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xgarcia1/FinalProject/internal/config"
	"github.com/xgarcia1/FinalProject/internal/shared/testutil"
	"github.com/xgarcia1/FinalProject/pkg/contracts/events"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Security.RateLimit.Enabled = false
	cfg.Chart.Width, cfg.Chart.Height = 320, 240
	return cfg
}

func newTestApplication(t *testing.T) *Application {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)

	a, err := New(testConfig(), logger)
	require.NoError(t, err)
	return a
}

func TestNew(t *testing.T) {
	t.Run("requires a configuration", func(t *testing.T) {
		_, err := New(nil, nil)
		assert.Error(t, err)
	})

	t.Run("wires every component", func(t *testing.T) {
		a := newTestApplication(t)

		assert.NotNil(t, a.Router)
		assert.NotNil(t, a.WebSocketHub)
		require.NotNil(t, a.Services)
		assert.NotNil(t, a.Services.Charts)
		assert.NotNil(t, a.Services.Health)
		assert.NotNil(t, a.Services.Metrics)
		assert.Equal(t, "127.0.0.1:8080", a.Server.Addr)
		assert.Equal(t, a.Config.Server.MaxHeaderBytes, a.Server.MaxHeaderBytes)
	})
}

func TestApplication_HTTP(t *testing.T) {
	a := newTestApplication(t)
	srv := httptest.NewServer(a.Router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, err = http.Get(srv.URL + "/")
	require.NoError(t, err)
	page, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(page), "<title>csvplot</title>")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("x", "region"))
	require.NoError(t, mw.WriteField("y", "sales"))
	require.NoError(t, mw.WriteField("kind", "Bar"))
	part, err := mw.CreateFormFile("file", "sales.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(testutil.SalesCSV))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	// Bar needs a numeric or datetime x
	resp, err = http.Post(srv.URL+"/api/charts", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	metrics, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(metrics), "csvplot_validation_errors")
	assert.Contains(t, string(metrics), "http_requests_total")
}

func TestApplication_Session(t *testing.T) {
	a := newTestApplication(t)
	a.WebSocketHub.Start()
	defer a.WebSocketHub.Stop()

	srv := httptest.NewServer(a.Router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+config.WebSocketEndpoint, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() events.ServerMessage {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg events.ServerMessage
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	assert.Equal(t, events.MessageTypeConnect, read().Type)
	assert.Equal(t, events.MessageTypeView, read().Type)

	upload := fmt.Sprintf(`{"type":"upload","filename":"pie.csv","content":%q}`,
		base64.StdEncoding.EncodeToString([]byte(testutil.PieCSV)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(upload)))
	read()

	for _, frame := range []string{
		`{"type":"select_kind","kind":"Pie"}`,
		`{"type":"select_y","column":"count"}`,
	} {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
		read()
	}

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"select_x","column":"fruit"}`)))
	msg := read()
	require.Equal(t, events.MessageTypeView, msg.Type)

	raw, err := json.Marshal(msg.Data)
	require.NoError(t, err)
	var view events.ViewPayload
	require.NoError(t, json.Unmarshal(raw, &view))
	assert.Equal(t, "count (Pie Chart)", view.Title)
	assert.True(t, strings.HasPrefix(view.Chart, "data:image/png;base64,"))
	assert.Equal(t, 1, a.Services.Charts.ActiveSessions())
}

func TestApplication_ServeAndShutdown(t *testing.T) {
	a := newTestApplication(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	url := "http://" + ln.Addr().String() + config.HealthEndpoint

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, ln) }()

	assert.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}

	_, err = http.Get(url)
	assert.Error(t, err)
}
