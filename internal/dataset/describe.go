package dataset

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Preview returns up to n rows formatted as text. Temporal cells use RFC 3339,
// not-a-time renders as "NaT" and NaN as the empty string.
func (d *Dataset) Preview(n int) [][]string {
	if n < 0 || n > d.rows {
		n = d.rows
	}
	out := make([][]string, n)
	for r := 0; r < n; r++ {
		row := make([]string, len(d.Columns))
		for c, col := range d.Columns {
			row[c] = col.format(r, "NaT")
		}
		out[r] = row
	}
	return out
}

// ColumnSummary describes one column. Pointer fields are nil when undefined
// for the column's type or contents.
type ColumnSummary struct {
	Name     string     `json:"name"`
	Type     ColumnType `json:"type"`
	Count    int        `json:"count"`
	Missing  int        `json:"missing"`
	Min      *float64   `json:"min,omitempty"`
	Max      *float64   `json:"max,omitempty"`
	Mean     *float64   `json:"mean,omitempty"`
	StdDev   *float64   `json:"std,omitempty"`
	Sum      *float64   `json:"sum,omitempty"`
	Earliest *time.Time `json:"earliest,omitempty"`
	Latest   *time.Time `json:"latest,omitempty"`
	Distinct int        `json:"distinct,omitempty"`
}

// Describe summarizes every column in order
func (d *Dataset) Describe() []ColumnSummary {
	out := make([]ColumnSummary, len(d.Columns))
	for i, col := range d.Columns {
		out[i] = describeColumn(col)
	}
	return out
}

func describeColumn(col *Column) ColumnSummary {
	s := ColumnSummary{Name: col.Name, Type: col.Type}

	switch col.Type {
	case Numeric:
		values := FiniteValues(col.Numbers)
		s.Count = len(values)
		s.Missing = len(col.Numbers) - s.Count
		if len(values) == 0 {
			return s
		}
		s.Min = ptr(floats.Min(values))
		s.Max = ptr(floats.Max(values))
		s.Sum = ptr(floats.Sum(values))
		if len(values) > 1 {
			mean, std := stat.MeanStdDev(values, nil)
			s.Mean = ptr(mean)
			s.StdDev = ptr(std)
		} else {
			s.Mean = ptr(values[0])
		}

	case Temporal:
		for _, ts := range col.Times {
			if !ts.Valid {
				s.Missing++
				continue
			}
			s.Count++
			t := ts.Time
			if s.Earliest == nil || t.Before(*s.Earliest) {
				s.Earliest = &t
			}
			if s.Latest == nil || t.After(*s.Latest) {
				s.Latest = &t
			}
		}

	default:
		distinct := make(map[string]struct{})
		for _, v := range col.Text {
			if v == "" {
				s.Missing++
				continue
			}
			s.Count++
			distinct[v] = struct{}{}
		}
		s.Distinct = len(distinct)
	}

	return s
}

// FiniteValues drops NaN and infinite entries
func FiniteValues(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}
