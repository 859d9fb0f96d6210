package websocket

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/xgarcia1/FinalProject/internal/chart"
	"github.com/xgarcia1/FinalProject/internal/config"
	"github.com/xgarcia1/FinalProject/internal/dataset"
	apierrors "github.com/xgarcia1/FinalProject/internal/errors"
	"github.com/xgarcia1/FinalProject/internal/infrastructure"
	"github.com/xgarcia1/FinalProject/internal/session"
	"github.com/xgarcia1/FinalProject/pkg/contracts"
	"github.com/xgarcia1/FinalProject/pkg/contracts/events"
)

// Settings bounds a session connection
type Settings struct {
	WriteWait       time.Duration
	PongWait        time.Duration
	PingPeriod      time.Duration
	MaxMessageBytes int64
	SendBuffer      int
	PreviewRows     int
}

// SettingsFrom builds connection settings from configuration
func SettingsFrom(ws config.WebSocketConfig, upload config.UploadConfig) Settings {
	s := Settings{
		WriteWait:       ws.WriteWait,
		PongWait:        ws.PongWait,
		PingPeriod:      ws.PingPeriod,
		MaxMessageBytes: ws.MaxMessageBytes,
		PreviewRows:     upload.PreviewRows,
	}
	return s.withDefaults()
}

func (s Settings) withDefaults() Settings {
	if s.WriteWait <= 0 {
		s.WriteWait = config.WebSocketWriteWait
	}
	if s.PongWait <= 0 {
		s.PongWait = config.WebSocketPongWait
	}
	if s.PingPeriod <= 0 || s.PingPeriod >= s.PongWait {
		s.PingPeriod = (s.PongWait * 9) / 10
	}
	if s.MaxMessageBytes <= 0 {
		s.MaxMessageBytes = config.DefaultUploadMaxBytes * 2
	}
	if s.SendBuffer <= 0 {
		s.SendBuffer = 16
	}
	if s.PreviewRows <= 0 {
		s.PreviewRows = config.DefaultPreviewRows
	}
	return s
}

// ClientOptions carries a client's collaborators
type ClientOptions struct {
	Service   SessionService
	Uploads   UploadChecker
	Validator StructValidator
	Settings  Settings
	TraceID   string
	Logger    *slog.Logger
}

// Client is one interactive session: a connection and the view state it owns.
// Only the read pump touches state.
type Client struct {
	hub  *Hub
	conn Connection

	// Buffered channel of outbound messages
	send     chan []byte
	done     chan struct{}
	doneOnce sync.Once

	id          string
	traceID     string
	remoteAddr  string
	connectedAt time.Time

	service   SessionService
	uploads   UploadChecker
	validator StructValidator
	settings  Settings
	state     session.ViewState

	logger *slog.Logger

	messagesSent     int64
	messagesReceived int64
	bytesSent        int64
	bytesReceived    int64
}

// NewClient creates a session client on conn
func NewClient(hub *Hub, conn Connection, opts ClientOptions) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	id := uuid.New().String()
	logger = infrastructure.WithComponent(logger, "websocket.client").With(slog.String("client_id", id))
	if opts.TraceID != "" {
		logger = logger.With(slog.String("trace_id", opts.TraceID))
	}

	settings := opts.Settings.withDefaults()
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, settings.SendBuffer),
		done:        make(chan struct{}),
		id:          id,
		traceID:     opts.TraceID,
		remoteAddr:  conn.RemoteAddr(),
		connectedAt: time.Now(),
		service:     opts.Service,
		uploads:     opts.Uploads,
		validator:   opts.Validator,
		settings:    settings,
		logger:      logger,
	}
}

// ID returns the client identifier
func (c *Client) ID() string {
	return c.id
}

func (c *Client) context() context.Context {
	ctx := context.Background()
	if c.traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, c.traceID)
	}
	return ctx
}

// Greet queues the connect message and the empty view
func (c *Client) Greet() {
	c.queue(events.NewMessage(events.MessageTypeConnect, c.traceID, events.ConnectData{
		ClientID: c.id,
		Protocol: events.ProtocolName,
		Version:  contracts.APIVersion,
	}))
	c.queue(events.NewMessage(events.MessageTypeView, c.traceID, c.view(c.context())))
}

// ReadPump applies client events one at a time until the connection fails
func (c *Client) ReadPump() {
	ctx := c.context()
	defer func() {
		c.doneOnce.Do(func() { close(c.done) })
		if c.hub != nil {
			c.hub.Unregister(c)
		}
		c.conn.Close()
		if c.service != nil {
			c.service.SessionClosed(ctx)
		}
		c.logger.InfoContext(ctx, "WebSocket client disconnected",
			slog.Duration("connection_duration", time.Since(c.connectedAt)),
			slog.Int64("messages_received", c.messagesReceived),
			slog.Int64("bytes_received", c.bytesReceived))
	}()

	c.conn.SetReadLimit(c.settings.MaxMessageBytes)
	c.conn.SetReadDeadline(time.Now().Add(c.settings.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.settings.PongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.WarnContext(ctx, "Unexpected WebSocket close error",
					slog.String("error", err.Error()))
			}
			return
		}

		c.messagesReceived++
		c.bytesReceived += int64(len(message))
		c.conn.SetReadDeadline(time.Now().Add(c.settings.PongWait))

		c.handleMessage(ctx, message)
	}
}

// handleMessage decodes one client event, applies it and replies with the view
func (c *Client) handleMessage(ctx context.Context, message []byte) {
	var msg events.ClientEvent
	if err := json.Unmarshal(message, &msg); err != nil {
		c.sendError(events.ErrCodeInvalidFrame, "message is not a JSON event")
		return
	}
	if msg.Type == events.EventHeartbeat {
		c.logger.DebugContext(ctx, "Heartbeat received")
		return
	}
	if c.validator != nil {
		if err := c.validator.Struct(msg); err != nil {
			c.sendError(events.ErrCodeInvalidEvent, invalidEventMessage(err))
			return
		}
	}

	ev, err := toSessionEvent(msg)
	if err != nil {
		c.sendError(events.ErrCodeInvalidEvent, err.Error())
		return
	}

	if up, ok := ev.(session.Upload); ok {
		if err := c.checkUpload(up); err != nil {
			c.state = session.ViewState{Filename: up.Filename, Err: err}
			c.queue(events.NewMessage(events.MessageTypeView, c.traceID, c.view(ctx)))
			return
		}
	}

	c.state = c.service.Apply(ctx, c.state, ev)
	c.queue(events.NewMessage(events.MessageTypeView, c.traceID, c.view(ctx)))
}

func (c *Client) checkUpload(up session.Upload) error {
	if c.uploads == nil {
		return nil
	}
	if err := c.uploads.ValidateName(up.Filename); err != nil {
		return err
	}
	return c.uploads.ValidateSize(up.Filename, int64(len(up.Content)))
}

// toSessionEvent maps a wire event onto the session vocabulary
func toSessionEvent(msg events.ClientEvent) (session.Event, error) {
	switch msg.Type {
	case events.EventUpload:
		content, err := base64.StdEncoding.DecodeString(msg.Content)
		if err != nil {
			return nil, fmt.Errorf("upload content is not base64: %w", err)
		}
		return session.Upload{Filename: msg.Filename, Content: content}, nil
	case events.EventSelectX:
		return session.SelectX{Column: msg.Column}, nil
	case events.EventSelectY:
		return session.SelectY{Column: msg.Column}, nil
	case events.EventSelectKind:
		kind, err := chart.ParseKind(msg.Kind)
		if err != nil {
			return nil, err
		}
		return session.SelectKind{Kind: kind}, nil
	case events.EventPlot:
		return session.Plot{}, nil
	case events.EventReset:
		return session.Reset{}, nil
	default:
		return nil, fmt.Errorf("unsupported event type %q", msg.Type)
	}
}

func invalidEventMessage(err error) string {
	var apiErr *apierrors.APIError
	if !errors.As(err, &apiErr) {
		return err.Error()
	}
	if details, ok := apiErr.Details.(apierrors.ValidationErrors); ok && len(details.Errors) > 0 {
		return details.Errors[0].Message
	}
	return apiErr.Message
}

// view renders the client's state into the payload the page displays
func (c *Client) view(ctx context.Context) events.ViewPayload {
	st := c.state
	opts := session.Options(st)

	v := events.ViewPayload{
		Filename: st.Filename,
		Columns:  opts.Columns,
		Kinds:    opts.Kinds,
		Selection: events.Selection{
			X:    st.Selection.X,
			Y:    st.Selection.Y,
			Kind: st.Selection.Kind.String(),
		},
		NeedsPlot: st.NeedsConfirmation(),
	}

	if st.Dataset != nil {
		v.Rows = st.Dataset.NumRows()
		v.Preview = st.Dataset.Preview(c.settings.PreviewRows)
		for _, cr := range st.Coercions {
			if cr.Status == dataset.Skipped {
				continue
			}
			v.Coercions = append(v.Coercions, coercionNote(cr))
		}
	}

	for _, err := range apierrors.Flatten(st.Err) {
		v.Errors = append(v.Errors, events.ErrorItem{Kind: apierrors.Classify(err), Message: err.Error()})
	}

	if st.Plan != nil {
		v.Title = st.Plan.Title
		img, err := c.service.RenderPlan(ctx, st.Plan, chart.FormatPNG)
		if err != nil {
			v.Errors = append(v.Errors, events.ErrorItem{Kind: apierrors.Classify(err), Message: err.Error()})
		} else {
			v.Chart = "data:" + chart.FormatPNG.ContentType() + ";base64," + base64.StdEncoding.EncodeToString(img)
		}
	}

	return v
}

func coercionNote(cr dataset.CoercionResult) events.CoercionNote {
	note := events.CoercionNote{Column: cr.Column, Status: cr.Status.String()}
	switch cr.Status {
	case dataset.Converted:
		if cr.NaTCount > 0 {
			note.Detail = fmt.Sprintf("%d missing times", cr.NaTCount)
		}
	case dataset.Unconverted:
		if cr.Offending != "" {
			note.Detail = fmt.Sprintf("kept as text, %q is not a date", cr.Offending)
		}
	}
	return note
}

func (c *Client) sendError(code, message string) {
	c.logger.Debug("rejected client message", slog.String("code", code), slog.String("message", message))
	c.queue(events.NewMessage(events.MessageTypeError, c.traceID, events.ProtocolError{Code: code, Message: message}))
}

// queue encodes msg onto the send buffer, dropping it when the buffer is full
func (c *Client) queue(msg events.ServerMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("failed to encode message", slog.String("error", err.Error()))
		return false
	}

	select {
	case c.send <- data:
		return true
	case <-c.done:
		return false
	default:
		c.logger.Warn("Client buffer full, dropping message", slog.String("type", string(msg.Type)))
		return false
	}
}

// WritePump pumps queued messages to the connection and keeps it alive with pings
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.settings.PingPeriod)
	ctx := c.context()
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.logger.InfoContext(ctx, "WebSocket write pump stopped",
			slog.Int64("messages_sent", c.messagesSent),
			slog.Int64("bytes_sent", c.bytesSent))
	}()

	for {
		select {
		case message := <-c.send:
			if !c.write(ctx, websocket.TextMessage, message) {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.settings.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(ctx, "Failed to send ping message",
					slog.String("error", err.Error()))
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) write(ctx context.Context, messageType int, data []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(c.settings.WriteWait))
	if err := c.conn.WriteMessage(messageType, data); err != nil {
		c.logger.ErrorContext(ctx, "Error writing message to WebSocket",
			slog.String("error", err.Error()))
		return false
	}
	c.messagesSent++
	c.bytesSent += int64(len(data))
	return true
}
