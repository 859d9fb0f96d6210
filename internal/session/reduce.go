package session

import (
	"bytes"
	"fmt"

	"github.com/xgarcia1/FinalProject/internal/chart"
	"github.com/xgarcia1/FinalProject/internal/dataset"
	apierrors "github.com/xgarcia1/FinalProject/internal/errors"
)

// Reducer applies events to view states
type Reducer struct {
	chart  chart.Options
	ingest dataset.Options
}

// NewReducer creates a reducer. ingest supplies the time zone for dates
// without one; its Filename is taken from each upload.
func NewReducer(chartOpts chart.Options, ingest dataset.Options) *Reducer {
	return &Reducer{chart: chartOpts, ingest: ingest}
}

var defaultReducer = NewReducer(chart.DefaultOptions(), dataset.Options{})

// Reduce applies ev to prev with the default options
func Reduce(prev ViewState, ev Event) ViewState {
	return defaultReducer.Reduce(prev, ev)
}

// Reduce returns the state after ev. A panic while reducing leaves the
// previous selection in place and reports a ProcessingError.
func (r *Reducer) Reduce(prev ViewState, ev Event) (next ViewState) {
	defer func() {
		if rec := recover(); rec != nil {
			next = prev
			next.Plan = nil
			next.Err = apierrors.NewProcessingError(fmt.Errorf("%v", rec))
		}
	}()

	next = prev
	switch e := ev.(type) {
	case Upload:
		return r.upload(e)
	case SelectX:
		next.Selection.X = e.Column
		next.Confirmed = false
	case SelectY:
		next.Selection.Y = e.Column
		next.Confirmed = false
	case SelectKind:
		next.Selection.Kind = e.Kind
		next.Confirmed = false
	case Plot:
		next.Confirmed = true
	case Reset:
		return ViewState{}
	case nil:
		return prev
	default:
		next.Plan = nil
		next.Err = apierrors.NewProcessingError(fmt.Errorf("unsupported event %q", ev.Type()))
		return next
	}

	return r.derive(next)
}

func (r *Reducer) upload(e Upload) ViewState {
	opts := r.ingest
	opts.Filename = e.Filename

	ds, coercions, err := dataset.Load(bytes.NewReader(e.Content), opts)
	if err != nil {
		return ViewState{Filename: e.Filename, Err: apierrors.NewProcessingError(err)}
	}

	state := ViewState{
		Filename:  e.Filename,
		Dataset:   ds,
		Coercions: coercions,
	}
	if names := ds.Names(); len(names) > 0 {
		state.Selection = chart.Request{X: names[0], Y: names[0], Kind: chart.Line}
	}
	return r.derive(state)
}

// derive recomputes validation and the plan for the current selection
func (r *Reducer) derive(s ViewState) ViewState {
	s.Plan = nil
	s.Err = nil
	if s.Dataset == nil {
		return s
	}

	if err := chart.Validate(s.Dataset, s.Selection, r.chart); err != nil {
		s.Err = err
		return s
	}
	if s.Selection.Kind != chart.Pie && !s.Confirmed {
		return s
	}

	plan, err := chart.BuildPlan(s.Dataset, s.Selection, r.chart)
	if err != nil {
		s.Err = apierrors.NewProcessingError(err)
		return s
	}
	s.Plan = plan
	return s
}
