package chart

import (
	"errors"

	"github.com/xgarcia1/FinalProject/internal/config"
	"github.com/xgarcia1/FinalProject/internal/dataset"
	apierrors "github.com/xgarcia1/FinalProject/internal/errors"
)

// Request is the user's selection: two columns and a chart kind
type Request struct {
	X    string `json:"x"`
	Y    string `json:"y"`
	Kind Kind   `json:"kind"`
}

// Options tunes validation and planning
type Options struct {
	// MaxPieCategories bounds the distinct x values a pie may have
	MaxPieCategories int
}

// DefaultOptions returns the stock limits
func DefaultOptions() Options {
	return Options{MaxPieCategories: config.MaxPieCategories}
}

func (o Options) maxPie() int {
	if o.MaxPieCategories <= 0 {
		return config.MaxPieCategories
	}
	return o.MaxPieCategories
}

// Validate checks a request against the dataset and returns every failure
// joined with errors.Join, or nil when the request can be planned.
func Validate(ds *dataset.Dataset, req Request, opts Options) error {
	var errs []error

	x, ok := ds.Column(req.X)
	if !ok {
		errs = append(errs, &apierrors.UnknownColumnError{Axis: apierrors.AxisX, Column: req.X})
	}
	y, ok := ds.Column(req.Y)
	if !ok {
		errs = append(errs, &apierrors.UnknownColumnError{Axis: apierrors.AxisY, Column: req.Y})
	}

	if req.Kind == Pie {
		if x != nil {
			if n := distinctLabels(x); n > opts.maxPie() {
				errs = append(errs, &apierrors.CategoryCountError{
					Column: x.Name,
					Count:  n,
					Max:    opts.maxPie(),
				})
			}
		}
	} else if x != nil && x.Type == dataset.Categorical {
		errs = append(errs, &apierrors.AxisTypeError{
			Axis:     apierrors.AxisX,
			Column:   x.Name,
			Expected: "numeric or datetime",
		})
	}

	if y != nil && y.Type != dataset.Numeric {
		errs = append(errs, &apierrors.AxisTypeError{
			Axis:     apierrors.AxisY,
			Column:   y.Name,
			Expected: "numeric",
		})
	}

	return errors.Join(errs...)
}

// distinctLabels counts distinct non-missing values of a column
func distinctLabels(col *dataset.Column) int {
	seen := make(map[string]struct{})
	for i := 0; i < col.Len(); i++ {
		if col.IsMissing(i) {
			continue
		}
		seen[col.Label(i)] = struct{}{}
	}
	return len(seen)
}
