package websocket

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xgarcia1/FinalProject/internal/chart"
	"github.com/xgarcia1/FinalProject/internal/config"
	apierrors "github.com/xgarcia1/FinalProject/internal/errors"
	"github.com/xgarcia1/FinalProject/internal/middleware"
	"github.com/xgarcia1/FinalProject/internal/services"
	"github.com/xgarcia1/FinalProject/internal/session"
	"github.com/xgarcia1/FinalProject/internal/shared/testutil"
	"github.com/xgarcia1/FinalProject/internal/validation"
	"github.com/xgarcia1/FinalProject/pkg/contracts/events"
)

const salesCSV = "date,sales,region\n2024-01-01,10,East\n2024-01-02,20,West\n2024-01-03,5,East\n"

type received struct {
	Type events.MessageType `json:"type"`
	Data json.RawMessage    `json:"data"`
}

func newTestService(t *testing.T) *services.ChartService {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	cfg := config.Default()
	return services.NewChartService(services.ChartServiceOptions{
		Chart:  config.ChartConfig{Width: 320, Height: 240, DefaultFormat: "png", MaxPieCategories: 10},
		Upload: cfg.Upload,
		Logger: logger,
	})
}

func newTestClient(t *testing.T, hub *Hub, conn Connection, uploadLimit int64) *Client {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)

	uploadCfg := config.Default().Upload
	if uploadLimit > 0 {
		uploadCfg.MaxBytes = uploadLimit
	}

	return NewClient(hub, conn, ClientOptions{
		Service:   newTestService(t),
		Uploads:   validation.NewUploadValidator(uploadCfg, logger),
		Validator: middleware.NewValidator(logger),
		Settings:  Settings{PreviewRows: 2},
		TraceID:   "trace-1",
		Logger:    logger,
	})
}

func uploadEvent(name, content string) string {
	return fmt.Sprintf(`{"type":"upload","filename":%q,"content":%q}`,
		name, base64.StdEncoding.EncodeToString([]byte(content)))
}

// next pops the next queued server message
func next(t *testing.T, c *Client) received {
	t.Helper()
	select {
	case data := <-c.send:
		var msg received
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message queued")
		return received{}
	}
}

func nextView(t *testing.T, c *Client) events.ViewPayload {
	t.Helper()
	msg := next(t, c)
	require.Equal(t, events.MessageTypeView, msg.Type)

	var view events.ViewPayload
	require.NoError(t, json.Unmarshal(msg.Data, &view))
	return view
}

func nextError(t *testing.T, c *Client) events.ProtocolError {
	t.Helper()
	msg := next(t, c)
	require.Equal(t, events.MessageTypeError, msg.Type)

	var perr events.ProtocolError
	require.NoError(t, json.Unmarshal(msg.Data, &perr))
	return perr
}

func TestToSessionEvent(t *testing.T) {
	tests := []struct {
		name    string
		msg     events.ClientEvent
		want    session.Event
		wantErr bool
	}{
		{"upload", events.ClientEvent{Type: "upload", Filename: "a.csv", Content: base64.StdEncoding.EncodeToString([]byte("x\n1\n"))},
			session.Upload{Filename: "a.csv", Content: []byte("x\n1\n")}, false},
		{"bad base64", events.ClientEvent{Type: "upload", Filename: "a.csv", Content: "%%%"}, nil, true},
		{"select x", events.ClientEvent{Type: "select_x", Column: "date"}, session.SelectX{Column: "date"}, false},
		{"select y", events.ClientEvent{Type: "select_y", Column: "sales"}, session.SelectY{Column: "sales"}, false},
		{"select kind", events.ClientEvent{Type: "select_kind", Kind: "bar"}, session.SelectKind{Kind: chart.Bar}, false},
		{"bad kind", events.ClientEvent{Type: "select_kind", Kind: "donut"}, nil, true},
		{"plot", events.ClientEvent{Type: "plot"}, session.Plot{}, false},
		{"reset", events.ClientEvent{Type: "reset"}, session.Reset{}, false},
		{"unknown", events.ClientEvent{Type: "zoom"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := toSessionEvent(tt.msg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_Greet(t *testing.T) {
	c := newTestClient(t, nil, NewMockConnection(), 0)
	c.Greet()

	msg := next(t, c)
	assert.Equal(t, events.MessageTypeConnect, msg.Type)
	var connect events.ConnectData
	require.NoError(t, json.Unmarshal(msg.Data, &connect))
	assert.Equal(t, c.ID(), connect.ClientID)
	assert.Equal(t, events.ProtocolName, connect.Protocol)

	view := nextView(t, c)
	assert.Empty(t, view.Columns)
	assert.Equal(t, chart.KindNames(), view.Kinds)
	assert.False(t, view.NeedsPlot)
	assert.Empty(t, view.Errors)
}

func TestClient_SessionFlow(t *testing.T) {
	c := newTestClient(t, nil, NewMockConnection(), 0)
	ctx := c.context()

	// Upload defaults both axes to the first column
	c.handleMessage(ctx, []byte(uploadEvent("sales.csv", salesCSV)))
	view := nextView(t, c)
	assert.Equal(t, "sales.csv", view.Filename)
	assert.Equal(t, 3, view.Rows)
	assert.Equal(t, []string{"date", "sales", "region"}, view.Columns)
	assert.Len(t, view.Preview, 2)
	assert.Equal(t, events.Selection{X: "date", Y: "date", Kind: "Line"}, view.Selection)
	require.Len(t, view.Errors, 1)
	assert.Equal(t, apierrors.KindAxisType, view.Errors[0].Kind)
	assert.Equal(t, "Y-axis column 'date' must be numeric.", view.Errors[0].Message)
	assert.Contains(t, view.Coercions, events.CoercionNote{Column: "date", Status: "converted"})

	// A valid non-pie selection waits for Plot
	c.handleMessage(ctx, []byte(`{"type":"select_y","column":"sales"}`))
	view = nextView(t, c)
	assert.Empty(t, view.Errors)
	assert.True(t, view.NeedsPlot)
	assert.Empty(t, view.Chart)

	c.handleMessage(ctx, []byte(`{"type":"plot"}`))
	view = nextView(t, c)
	assert.False(t, view.NeedsPlot)
	assert.True(t, strings.HasPrefix(view.Chart, "data:image/png;base64,"))
	assert.Contains(t, view.Title, "sales vs")

	// Changing the selection clears the confirmation
	c.handleMessage(ctx, []byte(`{"type":"select_kind","kind":"Scatter"}`))
	view = nextView(t, c)
	assert.True(t, view.NeedsPlot)
	assert.Empty(t, view.Chart)

	// Pie renders immediately
	c.handleMessage(ctx, []byte(`{"type":"select_x","column":"region"}`))
	nextView(t, c)
	c.handleMessage(ctx, []byte(`{"type":"select_kind","kind":"Pie"}`))
	view = nextView(t, c)
	assert.Equal(t, "sales (Pie Chart)", view.Title)
	assert.NotEmpty(t, view.Chart)
	assert.False(t, view.NeedsPlot)

	c.handleMessage(ctx, []byte(`{"type":"select_x","column":"nope"}`))
	view = nextView(t, c)
	require.Len(t, view.Errors, 1)
	assert.Equal(t, apierrors.KindUnknownColumn, view.Errors[0].Kind)
	assert.Empty(t, view.Chart)

	c.handleMessage(ctx, []byte(`{"type":"reset"}`))
	view = nextView(t, c)
	assert.Empty(t, view.Filename)
	assert.Empty(t, view.Columns)
}

func TestClient_InvalidMessages(t *testing.T) {
	c := newTestClient(t, nil, NewMockConnection(), 0)
	ctx := c.context()

	c.handleMessage(ctx, []byte("not json"))
	assert.Equal(t, events.ErrCodeInvalidFrame, nextError(t, c).Code)

	c.handleMessage(ctx, []byte(`{"type":"select_kind","kind":"donut"}`))
	perr := nextError(t, c)
	assert.Equal(t, events.ErrCodeInvalidEvent, perr.Code)
	assert.Equal(t, "kind must be one of: Line, Scatter, Bar, Pie", perr.Message)

	c.handleMessage(ctx, []byte(`{"type":"select_x"}`))
	assert.Equal(t, "column is required", nextError(t, c).Message)

	c.handleMessage(ctx, []byte(`{"type":"zoom"}`))
	assert.Equal(t, events.ErrCodeInvalidEvent, nextError(t, c).Code)

	// Heartbeats are not answered
	c.handleMessage(ctx, []byte(`{"type":"heartbeat"}`))
	assert.Len(t, c.send, 0)
}

func TestClient_UploadRejected(t *testing.T) {
	c := newTestClient(t, nil, NewMockConnection(), 16)
	ctx := c.context()

	c.handleMessage(ctx, []byte(uploadEvent("sales.csv", salesCSV)))
	view := nextView(t, c)
	assert.Equal(t, "sales.csv", view.Filename)
	assert.Empty(t, view.Columns)
	require.Len(t, view.Errors, 1)
	assert.Equal(t, apierrors.KindParse, view.Errors[0].Kind)
	assert.Contains(t, view.Errors[0].Message, "larger than the 16 byte limit")

	c.handleMessage(ctx, []byte(uploadEvent("notes.pdf", "x")))
	view = nextView(t, c)
	require.Len(t, view.Errors, 1)
	assert.Contains(t, view.Errors[0].Message, "unsupported file type")
}

func TestClient_MalformedCSVReportsInline(t *testing.T) {
	c := newTestClient(t, nil, NewMockConnection(), 0)

	c.handleMessage(c.context(), []byte(uploadEvent("broken.csv", "a,b\n1,2,3\n")))
	view := nextView(t, c)
	require.Len(t, view.Errors, 1)
	assert.Equal(t, apierrors.KindParse, view.Errors[0].Kind)
	assert.Empty(t, view.Columns)
}

func TestClient_Pumps(t *testing.T) {
	hub := NewHub(nil)
	hub.Start()
	defer hub.Stop()

	conn := NewMockConnection()
	c := newTestClient(t, hub, conn, 0)
	svc := c.service.(*services.ChartService)

	hub.Register(c)
	svc.SessionOpened(c.context())
	c.Greet()
	go c.WritePump()
	go c.ReadPump()

	conn.AddText(uploadEvent("sales.csv", salesCSV))
	conn.AddText(`{"type":"select_y","column":"sales"}`)

	require.Eventually(t, func() bool { return len(conn.TextMessages()) >= 4 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, hub.ClientCount())
	assert.Equal(t, 1, svc.ActiveSessions())

	var last received
	msgs := conn.TextMessages()
	require.NoError(t, json.Unmarshal(msgs[3], &last))
	var view events.ViewPayload
	require.NoError(t, json.Unmarshal(last.Data, &view))
	assert.Equal(t, "sales", view.Selection.Y)

	assert.Equal(t, int64(config.DefaultUploadMaxBytes*2), conn.Limit())

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return svc.ActiveSessions() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(1), hub.Stats().TotalConnections)
}

func TestSettingsFrom(t *testing.T) {
	cfg := config.Default()
	s := SettingsFrom(cfg.WebSocket, cfg.Upload)

	assert.Equal(t, cfg.WebSocket.PongWait, s.PongWait)
	assert.Less(t, s.PingPeriod, s.PongWait)
	assert.Equal(t, cfg.Upload.PreviewRows, s.PreviewRows)

	s = SettingsFrom(config.WebSocketConfig{PingPeriod: time.Minute, PongWait: time.Second}, config.UploadConfig{})
	assert.Equal(t, 900*time.Millisecond, s.PingPeriod)
	assert.Equal(t, config.DefaultPreviewRows, s.PreviewRows)
}
