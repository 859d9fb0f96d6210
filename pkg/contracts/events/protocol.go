// Package events contains the message contracts of the interactive session
// WebSocket protocol.
package events

import (
	"time"
)

// Protocol version
const (
	ProtocolVersion = "1.0"
	ProtocolName    = "csvplot-session"
)

// Client event types. They match the session event names.
const (
	EventUpload     = "upload"
	EventSelectX    = "select_x"
	EventSelectY    = "select_y"
	EventSelectKind = "select_kind"
	EventPlot       = "plot"
	EventReset      = "reset"
	EventHeartbeat  = "heartbeat"
)

// ClientEvent is one message from the page
type ClientEvent struct {
	Type     string `json:"type" validate:"required,oneof=upload select_x select_y select_kind plot reset heartbeat"`
	Column   string `json:"column,omitempty" validate:"required_if=Type select_x,required_if=Type select_y"`
	Kind     string `json:"kind,omitempty" validate:"required_if=Type select_kind,omitempty,chartkind"`
	Filename string `json:"filename,omitempty" validate:"required_if=Type upload,omitempty,filename"`
	// Content is the uploaded file, base64 encoded
	Content string `json:"content,omitempty" validate:"required_if=Type upload,omitempty,base64"`
}

// MessageType defines the type of a server message
type MessageType string

const (
	MessageTypeConnect MessageType = "connect"
	MessageTypeView    MessageType = "view"
	MessageTypeError   MessageType = "error"
)

// ServerMessage is the envelope of everything the server sends
type ServerMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// ConnectData greets a new session
type ConnectData struct {
	ClientID string `json:"client_id"`
	Protocol string `json:"protocol"`
	Version  string `json:"version"`
}

// Selection is the current widget state
type Selection struct {
	X    string `json:"x"`
	Y    string `json:"y"`
	Kind string `json:"kind"`
}

// ErrorItem is one inline failure
type ErrorItem struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// CoercionNote reports how a column was read
type CoercionNote struct {
	Column string `json:"column"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// ViewPayload is the full page state after an event
type ViewPayload struct {
	Filename  string         `json:"filename,omitempty"`
	Rows      int            `json:"rows"`
	Columns   []string       `json:"columns"`
	Kinds     []string       `json:"kinds"`
	Selection Selection      `json:"selection"`
	Preview   [][]string     `json:"preview,omitempty"`
	Coercions []CoercionNote `json:"coercions,omitempty"`
	// NeedsPlot is set while a non-pie selection waits for the Plot control
	NeedsPlot bool        `json:"needs_plot"`
	Title     string      `json:"title,omitempty"`
	Chart     string      `json:"chart,omitempty"`
	Errors    []ErrorItem `json:"errors,omitempty"`
}

// ProtocolError reports a message the server could not act on
type ProtocolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Protocol error codes
const (
	ErrCodeInvalidFrame    = "INVALID_FRAME"
	ErrCodeInvalidEvent    = "INVALID_EVENT"
	ErrCodeMessageTooLarge = "MESSAGE_TOO_LARGE"
	ErrCodeServerError     = "SERVER_ERROR"
)

// NewMessage stamps a server message
func NewMessage(t MessageType, traceID string, data interface{}) ServerMessage {
	return ServerMessage{
		Type:      t,
		Timestamp: time.Now().UTC(),
		TraceID:   traceID,
		Data:      data,
	}
}
