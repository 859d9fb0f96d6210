package session

import (
	"github.com/xgarcia1/FinalProject/internal/chart"
	"github.com/xgarcia1/FinalProject/internal/dataset"
	apierrors "github.com/xgarcia1/FinalProject/internal/errors"
)

// ViewState is everything the page shows for one session
type ViewState struct {
	Filename  string
	Dataset   *dataset.Dataset
	Coercions []dataset.CoercionResult

	Selection chart.Request
	// Confirmed is set by Plot and cleared by any selection change
	Confirmed bool

	Plan *chart.Plan
	Err  error
}

// SelectionOptions lists what the widgets may offer
type SelectionOptions struct {
	Columns []string `json:"columns"`
	Kinds   []string `json:"kinds"`
}

// Options returns the column names in dataset order and every chart kind
func Options(state ViewState) SelectionOptions {
	opts := SelectionOptions{Columns: []string{}, Kinds: chart.KindNames()}
	if state.Dataset != nil {
		opts.Columns = state.Dataset.Names()
	}
	return opts
}

// HasDataset reports whether an upload succeeded
func (s ViewState) HasDataset() bool {
	return s.Dataset != nil
}

// NeedsConfirmation reports whether the Plot control should be offered
func (s ViewState) NeedsConfirmation() bool {
	return s.Dataset != nil && s.Selection.Kind != chart.Pie && !s.Confirmed
}

// Messages returns the inline error messages, one per failure
func (s ViewState) Messages() []string {
	return apierrors.Messages(s.Err)
}

// ErrorKinds returns the taxonomy kind of every failure
func (s ViewState) ErrorKinds() []string {
	errs := apierrors.Flatten(s.Err)
	kinds := make([]string, len(errs))
	for i, err := range errs {
		kinds[i] = apierrors.Classify(err)
	}
	return kinds
}
