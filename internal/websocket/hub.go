package websocket

import (
	"log/slog"
	"sync"
	"time"

	"github.com/xgarcia1/FinalProject/internal/infrastructure"
)

// Hub tracks the open sessions. It never routes session traffic: every client
// owns its state and talks only to its own connection.
type Hub struct {
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger *slog.Logger

	totalConnections int64

	quit     chan struct{}
	stopOnce sync.Once
	running  bool
}

// HubStats is a snapshot of hub activity
type HubStats struct {
	ActiveClients    int   `json:"active_clients"`
	TotalConnections int64 `json:"total_connections"`
}

// NewHub creates a new Hub instance
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		quit:       make(chan struct{}),
	}
}

// Start runs the hub loop in the background
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
}

// Run processes registrations until Stop is called
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.closeAll()
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.totalConnections++
			count := len(h.clients)
			h.mu.Unlock()

			h.logger.InfoContext(client.context(), "Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			delete(h.clients, client)
			count := len(h.clients)
			h.mu.Unlock()

			if ok {
				h.logger.InfoContext(client.context(), "Client unregistered",
					slog.Int("total_clients", count),
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)))
			}
		}
	}
}

// Register adds a client. It is a no-op once the hub has stopped.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
	}
}

// Unregister removes a client. It is a no-op once the hub has stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ActiveSessions reports open sessions for health checks
func (h *Hub) ActiveSessions() int {
	return h.ClientCount()
}

// Stats returns a snapshot of hub activity
func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return HubStats{ActiveClients: len(h.clients), TotalConnections: h.totalConnections}
}

// Stop closes every session and ends the hub loop
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.quit)
	})
}

// closeAll closes client connections; each read pump then ends its session
func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*Client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		c.conn.Close()
	}
	if len(clients) > 0 {
		h.logger.Info("Closed open sessions", slog.Int("count", len(clients)))
	}
}
