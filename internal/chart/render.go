package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/xgarcia1/FinalProject/internal/config"
	apierrors "github.com/xgarcia1/FinalProject/internal/errors"
)

// Format is an image encoding
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ParseFormat accepts png or svg in any case; empty means png
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(FormatPNG):
		return FormatPNG, nil
	case string(FormatSVG):
		return FormatSVG, nil
	default:
		return "", fmt.Errorf("unsupported image format %q", s)
	}
}

// ContentType returns the MIME type of the encoding
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

func (f Format) provider() chart.RendererProvider {
	if f == FormatSVG {
		return chart.SVG
	}
	return chart.PNG
}

// RenderOptions sizes the image in pixels
type RenderOptions struct {
	Width  int
	Height int
}

// DefaultRenderOptions returns the stock image size
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{Width: config.DefaultChartWidth, Height: config.DefaultChartHeight}
}

func (o RenderOptions) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = config.DefaultChartWidth
	}
	if h <= 0 {
		h = config.DefaultChartHeight
	}
	return w, h
}

// ErrNoData is returned for a plan with nothing to draw
var ErrNoData = errors.New("no plottable rows")

var (
	seriesColor = drawing.ColorFromHex("1f77b4")
	palette     = []drawing.Color{
		drawing.ColorFromHex("1f77b4"),
		drawing.ColorFromHex("ff7f0e"),
		drawing.ColorFromHex("2ca02c"),
		drawing.ColorFromHex("d62728"),
		drawing.ColorFromHex("9467bd"),
		drawing.ColorFromHex("8c564b"),
		drawing.ColorFromHex("e377c2"),
		drawing.ColorFromHex("7f7f7f"),
		drawing.ColorFromHex("bcbd22"),
		drawing.ColorFromHex("17becf"),
	}
)

// Render draws the plan to w. Failures are ProcessingErrors.
func Render(plan *Plan, format Format, opts RenderOptions, w io.Writer) error {
	if plan == nil {
		return apierrors.NewProcessingError(errors.New("nothing to render"))
	}

	var err error
	switch plan.Kind {
	case Pie:
		err = renderPie(plan, format, opts, w)
	case Bar:
		err = renderBars(plan, format, opts, w)
	default:
		err = renderXY(plan, format, opts, w)
	}
	if err != nil {
		return apierrors.NewProcessingError(fmt.Errorf("render %s: %w", strings.ToLower(plan.Kind.String()), err))
	}
	return nil
}

func renderXY(plan *Plan, format Format, opts RenderOptions, w io.Writer) error {
	if len(plan.Points) == 0 {
		return ErrNoData
	}

	xs := make([]float64, len(plan.Points))
	ys := make([]float64, len(plan.Points))
	for i, p := range plan.Points {
		xs[i], ys[i] = p.X, p.Y
	}

	style := chart.Style{
		StrokeColor: seriesColor,
		StrokeWidth: 2,
		DotColor:    seriesColor,
		DotWidth:    4,
	}
	if plan.Kind == Scatter {
		style = chart.Style{
			StrokeWidth: chart.Disabled,
			DotColor:    seriesColor,
			DotWidth:    5,
		}
	}

	xAxis := chart.XAxis{Name: plan.XLabel, Range: paddedRange(xs)}
	if plan.XTemporal {
		xAxis.ValueFormatter = secondsFormatter
	}

	width, height := opts.size()
	ch := chart.Chart{
		Title:      plan.Title,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 50, Left: 20, Right: 30, Bottom: 20}},
		XAxis:      xAxis,
		YAxis:      chart.YAxis{Name: plan.YLabel, Range: paddedRange(ys)},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    plan.YLabel,
				XValues: xs,
				YValues: ys,
				Style:   style,
			},
		},
	}
	return ch.Render(format.provider(), w)
}

func renderBars(plan *Plan, format Format, opts RenderOptions, w io.Writer) error {
	if len(plan.Bars) == 0 {
		return ErrNoData
	}

	values := make([]chart.Value, len(plan.Bars))
	heights := make([]float64, 0, len(plan.Bars)+1)
	heights = append(heights, 0)
	for i, b := range plan.Bars {
		values[i] = chart.Value{Label: b.Label, Value: b.Value}
		heights = append(heights, b.Value)
	}

	width, height := opts.size()
	barWidth := (width - 120) * 2 / (3 * len(values))
	if barWidth > 60 {
		barWidth = 60
	}
	if barWidth < 2 {
		barWidth = 2
	}

	bc := chart.BarChart{
		Title:        plan.Title,
		Width:        width,
		Height:       height,
		Background:   chart.Style{Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20}},
		BarWidth:     barWidth,
		BarSpacing:   barWidth / 2,
		UseBaseValue: true,
		BaseValue:    0,
		YAxis:        chart.YAxis{Name: plan.YLabel, Range: paddedRange(heights)},
		Bars:         values,
	}
	return bc.Render(format.provider(), w)
}

// paddedRange spans the values, widened when they are all equal
func paddedRange(values []float64) *chart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		pad := math.Abs(lo) * 0.1
		if pad == 0 {
			pad = 1
		}
		lo, hi = lo-pad, hi+pad
	} else {
		pad := (hi - lo) * 0.05
		lo, hi = lo-pad, hi+pad
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}

func secondsFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return fmt.Sprintf("%v", v)
}
