package websocket

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/xgarcia1/FinalProject/internal/config"
	"github.com/xgarcia1/FinalProject/internal/infrastructure"
)

// HandlerOptions configures the session endpoint
type HandlerOptions struct {
	Service        SessionService
	Uploads        UploadChecker
	Validator      StructValidator
	Settings       Settings
	Buffers        config.WebSocketConfig
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Handler upgrades HTTP requests into interactive sessions
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	opts     HandlerOptions
	logger   *slog.Logger
}

// NewHandler creates the session endpoint
func NewHandler(hub *Hub, opts HandlerOptions) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	opts.Logger = logger
	opts.Settings = opts.Settings.withDefaults()

	h := &Handler{
		hub:    hub,
		opts:   opts,
		logger: logger.With(slog.String("component", "websocket.handler")),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  opts.Buffers.ReadBufferSize,
		WriteBufferSize: opts.Buffers.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin accepts same-host pages and the configured origins
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, allowed := range h.opts.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	h.logger.WarnContext(r.Context(), "WebSocket origin rejected", slog.String("origin", origin))
	return false
}

// ServeHTTP upgrades the connection and starts the session pumps
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := infrastructure.EnsureTraceID(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied with an HTTP error
		h.logger.WarnContext(ctx, "WebSocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := NewClient(h.hub, NewConnectionWrapper(conn), ClientOptions{
		Service:   h.opts.Service,
		Uploads:   h.opts.Uploads,
		Validator: h.opts.Validator,
		Settings:  h.opts.Settings,
		TraceID:   infrastructure.GetTraceID(ctx),
		Logger:    h.opts.Logger,
	})

	h.hub.Register(client)
	h.opts.Service.SessionOpened(client.context())
	client.Greet()

	go client.WritePump()
	go client.ReadPump()
}
