package dataset

import (
	"math"
	"strconv"
	"time"
)

// ColumnType is the inferred type of a column
type ColumnType int

const (
	Categorical ColumnType = iota
	Numeric
	Temporal
)

func (t ColumnType) String() string {
	switch t {
	case Numeric:
		return "numeric"
	case Temporal:
		return "temporal"
	default:
		return "categorical"
	}
}

// MarshalText renders the type name in JSON payloads
func (t ColumnType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Timestamp is a temporal cell. Valid is false for not-a-time.
type Timestamp struct {
	Time  time.Time
	Valid bool
}

// NaT is the not-a-time marker
var NaT = Timestamp{}

// Unix returns seconds since the epoch with sub-second precision
func (ts Timestamp) Unix() float64 {
	return float64(ts.Time.Unix()) + float64(ts.Time.Nanosecond())/float64(time.Second)
}

// Column is one named, typed column. Exactly one of Numbers, Times or Text is
// populated, matching Type.
type Column struct {
	Name    string
	Type    ColumnType
	Numbers []float64
	Times   []Timestamp
	Text    []string
}

// Len returns the number of cells
func (c *Column) Len() int {
	switch c.Type {
	case Numeric:
		return len(c.Numbers)
	case Temporal:
		return len(c.Times)
	default:
		return len(c.Text)
	}
}

// IsMissing reports whether cell i holds NaN, not-a-time or an empty string
func (c *Column) IsMissing(i int) bool {
	switch c.Type {
	case Numeric:
		return math.IsNaN(c.Numbers[i])
	case Temporal:
		return !c.Times[i].Valid
	default:
		return c.Text[i] == ""
	}
}

// Label returns cell i as text suitable for grouping and display. Missing
// numeric cells and not-a-time render as the empty string.
func (c *Column) Label(i int) string {
	return c.format(i, "")
}

func (c *Column) format(i int, nat string) string {
	switch c.Type {
	case Numeric:
		v := c.Numbers[i]
		if math.IsNaN(v) {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case Temporal:
		ts := c.Times[i]
		if !ts.Valid {
			return nat
		}
		return ts.Time.Format(time.RFC3339Nano)
	default:
		return c.Text[i]
	}
}

// Dataset is an ordered set of equally long columns with unique names
type Dataset struct {
	Source  string
	Columns []*Column
	rows    int
	index   map[string]int
}

func newDataset(source string, columns []*Column, rows int) *Dataset {
	ds := &Dataset{
		Source:  source,
		Columns: columns,
		rows:    rows,
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		ds.index[c.Name] = i
	}
	return ds
}

// NumRows returns the number of data rows
func (d *Dataset) NumRows() int {
	return d.rows
}

// Names returns the column names in order
func (d *Dataset) Names() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.Columns[i], true
}

// Records returns the header followed by every row as text, with missing
// values empty. It is the shape written by CSV export.
func (d *Dataset) Records() [][]string {
	out := make([][]string, 0, d.rows+1)
	out = append(out, d.Names())
	for r := 0; r < d.rows; r++ {
		row := make([]string, len(d.Columns))
		for c, col := range d.Columns {
			row[c] = col.format(r, "")
		}
		out = append(out, row)
	}
	return out
}

// CoercionStatus is the outcome of temporal coercion for one column
type CoercionStatus int

const (
	// Skipped columns were numeric and never considered for coercion
	Skipped CoercionStatus = iota
	Converted
	Unconverted
)

func (s CoercionStatus) String() string {
	switch s {
	case Converted:
		return "converted"
	case Unconverted:
		return "unconverted"
	default:
		return "skipped"
	}
}

// MarshalText renders the status name in JSON payloads
func (s CoercionStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CoercionResult reports temporal coercion for one column
type CoercionResult struct {
	Column string         `json:"column"`
	Status CoercionStatus `json:"status"`
	// NaTCount counts not-a-time cells in a converted column
	NaTCount int `json:"nat_count,omitempty"`
	// Offending is the first value that did not parse in an unconverted column
	Offending string `json:"offending,omitempty"`
	// Layout is the date layout that matched first in a converted column
	Layout string `json:"layout,omitempty"`
}
