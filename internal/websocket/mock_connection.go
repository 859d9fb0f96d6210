package websocket

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrMockClosed is returned by a closed MockConnection
var ErrMockClosed = errors.New("connection closed")

// MockConnection is an in-memory Connection for tests. ReadMessage blocks
// until a message is queued or the connection is closed.
type MockConnection struct {
	mu sync.Mutex

	// WriteErr, when set, fails every write
	WriteErr        error
	WrittenMessages []MockMessage

	reads     chan MockMessage
	closed    chan struct{}
	closeOnce sync.Once

	ReadDeadline  time.Time
	WriteDeadline time.Time
	ReadLimit     int64
	PongHandler   func(string) error

	RemoteAddress string
}

// MockMessage represents a message for mocking
type MockMessage struct {
	Type int
	Data []byte
	Err  error
}

// NewMockConnection creates a new mock connection
func NewMockConnection() *MockConnection {
	return &MockConnection{
		reads:         make(chan MockMessage, 64),
		closed:        make(chan struct{}),
		RemoteAddress: "127.0.0.1:8080",
	}
}

// WriteMessage implements Connection.WriteMessage
func (m *MockConnection) WriteMessage(messageType int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isClosed() {
		return ErrMockClosed
	}
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.WrittenMessages = append(m.WrittenMessages, MockMessage{Type: messageType, Data: data})
	return nil
}

// ReadMessage implements Connection.ReadMessage
func (m *MockConnection) ReadMessage() (int, []byte, error) {
	select {
	case msg := <-m.reads:
		return msg.Type, msg.Data, msg.Err
	case <-m.closed:
		return 0, nil, ErrMockClosed
	}
}

// Close implements Connection.Close
func (m *MockConnection) Close() error {
	m.closeOnce.Do(func() { close(m.closed) })
	return nil
}

func (m *MockConnection) isClosed() bool {
	select {
	case <-m.closed:
		return true
	default:
		return false
	}
}

// IsClosed reports whether Close was called
func (m *MockConnection) IsClosed() bool {
	return m.isClosed()
}

func (m *MockConnection) SetReadDeadline(t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadDeadline = t
	return nil
}

func (m *MockConnection) SetWriteDeadline(t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WriteDeadline = t
	return nil
}

func (m *MockConnection) SetReadLimit(limit int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadLimit = limit
}

func (m *MockConnection) SetPongHandler(h func(string) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PongHandler = h
}

// Limit returns the read limit set by the client
func (m *MockConnection) Limit() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ReadLimit
}

func (m *MockConnection) RemoteAddr() string {
	return m.RemoteAddress
}

// AddReadMessage queues a message for ReadMessage
func (m *MockConnection) AddReadMessage(messageType int, data []byte, err error) {
	m.reads <- MockMessage{Type: messageType, Data: data, Err: err}
}

// AddText queues a text frame
func (m *MockConnection) AddText(data string) {
	m.AddReadMessage(websocket.TextMessage, []byte(data), nil)
}

// GetWrittenMessages returns all messages written to the connection
func (m *MockConnection) GetWrittenMessages() []MockMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]MockMessage, len(m.WrittenMessages))
	copy(result, m.WrittenMessages)
	return result
}

// TextMessages returns the payloads of written text frames
func (m *MockConnection) TextMessages() [][]byte {
	var out [][]byte
	for _, msg := range m.GetWrittenMessages() {
		if msg.Type == websocket.TextMessage {
			out = append(out, msg.Data)
		}
	}
	return out
}
