package websocket

import (
	"context"
	"time"

	"github.com/xgarcia1/FinalProject/internal/chart"
	"github.com/xgarcia1/FinalProject/internal/session"
)

// Connection defines the interface for WebSocket connections
// This allows for proper mocking in tests
type Connection interface {
	// WriteMessage writes a message with the given message type and payload
	WriteMessage(messageType int, data []byte) error

	// ReadMessage reads a message from the connection
	ReadMessage() (messageType int, p []byte, err error)

	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error

	// SetReadLimit sets the maximum size for a message read from the connection
	SetReadLimit(limit int64)

	SetPongHandler(h func(string) error)
	RemoteAddr() string
}

// SessionService applies session events and draws their charts
type SessionService interface {
	Apply(ctx context.Context, state session.ViewState, ev session.Event) session.ViewState
	RenderPlan(ctx context.Context, plan *chart.Plan, format chart.Format) ([]byte, error)
	SessionOpened(ctx context.Context)
	SessionClosed(ctx context.Context)
}

// UploadChecker vets an uploaded file before it is parsed
type UploadChecker interface {
	ValidateName(filename string) error
	ValidateSize(filename string, size int64) error
}

// StructValidator validates decoded client events
type StructValidator interface {
	Struct(v interface{}) error
}

// HubInterface defines the interface for WebSocket hub
// This allows components to depend on an interface rather than concrete type
type HubInterface interface {
	Register(client *Client)
	Unregister(client *Client)
	ClientCount() int
	Start()
	Stop()
}
