package chart

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/floats"

	"github.com/xgarcia1/FinalProject/internal/dataset"
	apierrors "github.com/xgarcia1/FinalProject/internal/errors"
)

// TimestampColumn names the derived x column of a temporal x axis
const TimestampColumn = "numeric_x"

// Point is one plotted (x, y) pair
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BarValue is one bar: the summed y of every row sharing the x value
type BarValue struct {
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Value float64 `json:"value"`
}

// Slice is one pie wedge. Angles are in degrees, counter-clockwise from the
// positive x axis.
type Slice struct {
	Label      string  `json:"label"`
	Value      float64 `json:"value"`
	Percent    float64 `json:"percent"`
	StartAngle float64 `json:"start_angle"`
	EndAngle   float64 `json:"end_angle"`
}

// Plan is a validated request resolved into drawable data
type Plan struct {
	Kind   Kind   `json:"kind"`
	Title  string `json:"title"`
	XLabel string `json:"x_label"`
	YLabel string `json:"y_label"`
	// XTemporal is set when x values are seconds since the Unix epoch
	XTemporal bool `json:"x_temporal"`

	Points []Point    `json:"points,omitempty"`
	Bars   []BarValue `json:"bars,omitempty"`
	Slices []Slice    `json:"slices,omitempty"`

	// Dropped counts rows left out for a missing x or y value
	Dropped int `json:"dropped"`
}

// BuildPlan validates the request and resolves it into a Plan
func BuildPlan(ds *dataset.Dataset, req Request, opts Options) (*Plan, error) {
	if err := Validate(ds, req, opts); err != nil {
		return nil, err
	}

	x, _ := ds.Column(req.X)
	y, _ := ds.Column(req.Y)

	if req.Kind == Pie {
		return planPie(x, y)
	}
	return planXY(req.Kind, x, y), nil
}

// xValues returns the effective numeric x axis. Temporal values become epoch
// seconds and not-a-time becomes NaN.
func xValues(col *dataset.Column) ([]float64, string, bool) {
	if col.Type != dataset.Temporal {
		return col.Numbers, col.Name, false
	}
	xs := make([]float64, len(col.Times))
	for i, ts := range col.Times {
		if !ts.Valid {
			xs[i] = math.NaN()
			continue
		}
		xs[i] = ts.Unix()
	}
	return xs, TimestampColumn, true
}

func planXY(kind Kind, x, y *dataset.Column) *Plan {
	xs, xName, temporal := xValues(x)

	points := make([]Point, 0, len(xs))
	for i, xv := range xs {
		yv := y.Numbers[i]
		if !finite(xv) || !finite(yv) {
			continue
		}
		points = append(points, Point{X: xv, Y: yv})
	}

	plan := &Plan{
		Kind:      kind,
		Title:     kind.title(xName, y.Name),
		XLabel:    xName,
		YLabel:    y.Name,
		XTemporal: temporal,
		Dropped:   len(xs) - len(points),
	}

	switch kind {
	case Line:
		sort.SliceStable(points, func(i, j int) bool { return points[i].X < points[j].X })
		plan.Points = points
	case Bar:
		plan.Bars = aggregateBars(points)
	default:
		plan.Points = points
	}
	return plan
}

// aggregateBars sums y per distinct x, ordered by x
func aggregateBars(points []Point) []BarValue {
	groups := make(map[float64][]float64)
	keys := make([]float64, 0)
	for _, p := range points {
		if _, ok := groups[p.X]; !ok {
			keys = append(keys, p.X)
		}
		groups[p.X] = append(groups[p.X], p.Y)
	}
	sort.Float64s(keys)

	bars := make([]BarValue, len(keys))
	for i, k := range keys {
		bars[i] = BarValue{
			Label: strconv.FormatFloat(k, 'f', -1, 64),
			X:     k,
			Value: floats.Sum(groups[k]),
		}
	}
	return bars
}

func planPie(x, y *dataset.Column) (*Plan, error) {
	var (
		labels []string
		groups = make(map[string][]float64)
	)

	dropped := 0
	for i := 0; i < x.Len(); i++ {
		yv := y.Numbers[i]
		if x.IsMissing(i) || !finite(yv) {
			dropped++
			continue
		}
		label := x.Label(i)
		if _, ok := groups[label]; !ok {
			labels = append(labels, label)
		}
		groups[label] = append(groups[label], yv)
	}

	sums := make([]float64, len(labels))
	for i, label := range labels {
		sums[i] = floats.Sum(groups[label])
		if sums[i] < 0 {
			return nil, apierrors.NewProcessingError(
				fmt.Errorf("pie slice '%s' has a negative total %g", label, sums[i]))
		}
	}

	total := floats.Sum(sums)
	if !(total > 0) || math.IsInf(total, 0) {
		return nil, apierrors.NewProcessingError(
			fmt.Errorf("pie column '%s' must sum to a positive total, got %g", y.Name, total))
	}

	slices := make([]Slice, len(labels))
	start := 90.0
	for i, label := range labels {
		sweep := sums[i] / total * 360
		slices[i] = Slice{
			Label:      label,
			Value:      sums[i],
			Percent:    math.Round(sums[i]/total*1000) / 10,
			StartAngle: start,
			EndAngle:   start + sweep,
		}
		start += sweep
	}

	return &Plan{
		Kind:    Pie,
		Title:   Pie.title(x.Name, y.Name),
		XLabel:  x.Name,
		YLabel:  y.Name,
		Slices:  slices,
		Dropped: dropped,
	}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
