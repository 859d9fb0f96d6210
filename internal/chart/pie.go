package chart

import (
	"io"
	"math"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	titleFontSize = 14.0
	labelFontSize = 10.0
	// arc segments per degree of sweep
	arcSteps = 1.0
)

// renderPie draws the slices with renderer primitives: wedges start at the
// plan's angles (90 degrees first) and run counter-clockwise.
func renderPie(plan *Plan, format Format, opts RenderOptions, w io.Writer) error {
	if len(plan.Slices) == 0 {
		return ErrNoData
	}

	width, height := opts.size()
	r, err := format.provider()(width, height)
	if err != nil {
		return err
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return err
	}
	r.SetDPI(chart.DefaultDPI)
	r.SetFont(font)

	fillRect(r, width, height, drawing.ColorWhite)

	top := 50
	if plan.Title != "" {
		r.SetFontSize(titleFontSize)
		r.SetFontColor(drawing.ColorBlack)
		tb := r.MeasureText(plan.Title)
		r.Text(plan.Title, (width-tb.Width())/2, 20+tb.Height())
	}

	cx := width / 2
	cy := top + (height-top)/2
	radius := 0.38 * math.Min(float64(width), float64(height-top))

	for i, s := range plan.Slices {
		r.SetFillColor(palette[i%len(palette)])
		r.SetStrokeColor(drawing.ColorWhite)
		r.SetStrokeWidth(1)
		wedge(r, cx, cy, radius, s.StartAngle, s.EndAngle)
		r.FillStroke()
	}

	r.SetFontSize(labelFontSize)
	for _, s := range plan.Slices {
		mid := (s.StartAngle + s.EndAngle) / 2

		r.SetFontColor(drawing.ColorBlack)
		centeredText(r, s.Label, cx, cy, radius*1.12, mid)

		r.SetFontColor(drawing.ColorWhite)
		centeredText(r, strconv.FormatFloat(s.Percent, 'f', 1, 64)+"%", cx, cy, radius*0.6, mid)
	}

	return r.Save(w)
}

// screenPoint maps a math angle in degrees onto image coordinates
func screenPoint(cx, cy int, radius, degrees float64) (int, int) {
	rad := degrees * math.Pi / 180
	x := float64(cx) + radius*math.Cos(rad)
	y := float64(cy) - radius*math.Sin(rad)
	return int(math.Round(x)), int(math.Round(y))
}

func wedge(r chart.Renderer, cx, cy int, radius, start, end float64) {
	r.MoveTo(cx, cy)
	steps := int(math.Ceil((end - start) * arcSteps))
	if steps < 1 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		x, y := screenPoint(cx, cy, radius, start+(end-start)*float64(i)/float64(steps))
		r.LineTo(x, y)
	}
	r.LineTo(cx, cy)
	r.Close()
}

func centeredText(r chart.Renderer, text string, cx, cy int, radius, degrees float64) {
	x, y := screenPoint(cx, cy, radius, degrees)
	tb := r.MeasureText(text)
	r.Text(text, x-tb.Width()/2, y+tb.Height()/2)
}

func fillRect(r chart.Renderer, width, height int, c drawing.Color) {
	r.SetFillColor(c)
	r.MoveTo(0, 0)
	r.LineTo(width, 0)
	r.LineTo(width, height)
	r.LineTo(0, height)
	r.Close()
	r.Fill()
}
