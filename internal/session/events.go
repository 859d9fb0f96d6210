package session

import "github.com/xgarcia1/FinalProject/internal/chart"

// Event type names, as sent by clients
const (
	EventUpload     = "upload"
	EventSelectX    = "select_x"
	EventSelectY    = "select_y"
	EventSelectKind = "select_kind"
	EventPlot       = "plot"
	EventReset      = "reset"
)

// Event is one user interaction
type Event interface {
	Type() string
}

// Upload replaces the dataset with a newly uploaded file
type Upload struct {
	Filename string
	Content  []byte
}

// SelectX picks the x column
type SelectX struct {
	Column string
}

// SelectY picks the y column
type SelectY struct {
	Column string
}

// SelectKind picks the chart kind
type SelectKind struct {
	Kind chart.Kind
}

// Plot confirms the current selection for non-pie kinds
type Plot struct{}

// Reset discards the session
type Reset struct{}

func (Upload) Type() string     { return EventUpload }
func (SelectX) Type() string    { return EventSelectX }
func (SelectY) Type() string    { return EventSelectY }
func (SelectKind) Type() string { return EventSelectKind }
func (Plot) Type() string       { return EventPlot }
func (Reset) Type() string      { return EventReset }
