package errors

import (
	"errors"
	"fmt"
)

// Axis names a chart axis in validation errors.
type Axis string

const (
	AxisX Axis = "X"
	AxisY Axis = "Y"
)

// Error kinds, used as problem types, metric attributes and in session views.
const (
	KindParse         = "parse_error"
	KindAxisType      = "axis_type_error"
	KindCategoryCount = "category_count_error"
	KindUnknownColumn = "unknown_column_error"
	KindProcessing    = "processing_error"
)

// ParseError reports an upload that is not well-formed tabular data.
type ParseError struct {
	Filename string
	Line     int
	Err      error
}

func (e *ParseError) Error() string {
	msg := "invalid tabular data"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.Filename != "" && e.Line > 0:
		return fmt.Sprintf("parse %s: line %d: %s", e.Filename, e.Line, msg)
	case e.Filename != "":
		return fmt.Sprintf("parse %s: %s", e.Filename, msg)
	case e.Line > 0:
		return fmt.Sprintf("parse: line %d: %s", e.Line, msg)
	default:
		return "parse: " + msg
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

// AxisTypeError reports a selected column whose type does not fit the axis role.
type AxisTypeError struct {
	Axis     Axis
	Column   string
	Expected string
}

func (e *AxisTypeError) Error() string {
	return fmt.Sprintf("%s-axis column '%s' must be %s.", e.Axis, e.Column, e.Expected)
}

// UnknownColumnError reports a selection that names no column of the dataset.
type UnknownColumnError struct {
	Axis   Axis
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("%s-axis column '%s' does not exist.", e.Axis, e.Column)
}

// CategoryCountError reports a pie label column with too many distinct values.
type CategoryCountError struct {
	Column string
	Count  int
	Max    int
}

func (e *CategoryCountError) Error() string {
	return fmt.Sprintf("Pie chart column '%s' has %d distinct values; at most %d are allowed.", e.Column, e.Count, e.Max)
}

// ProcessingError wraps any other failure between ingestion and rendering.
type ProcessingError struct {
	Err error
}

func (e *ProcessingError) Error() string {
	if e.Err == nil {
		return "Error processing file"
	}
	return "Error processing file: " + e.Err.Error()
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// NewProcessingError wraps err unless it already belongs to the taxonomy.
func NewProcessingError(err error) error {
	if err == nil {
		return nil
	}
	if Classify(err) != KindProcessing {
		return err
	}
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return err
	}
	return &ProcessingError{Err: err}
}

// Flatten expands errors built with errors.Join into their members.
func Flatten(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, Flatten(e)...)
		}
		return out
	}
	return []error{err}
}

// Messages returns the user-facing text of every flattened error.
func Messages(err error) []string {
	errs := Flatten(err)
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return msgs
}

// Classify returns the taxonomy kind of err. Unknown errors are processing errors.
func Classify(err error) string {
	var (
		parseErr    *ParseError
		axisErr     *AxisTypeError
		categoryErr *CategoryCountError
		unknownErr  *UnknownColumnError
	)
	switch {
	case errors.As(err, &parseErr):
		return KindParse
	case errors.As(err, &axisErr):
		return KindAxisType
	case errors.As(err, &categoryErr):
		return KindCategoryCount
	case errors.As(err, &unknownErr):
		return KindUnknownColumn
	default:
		return KindProcessing
	}
}

// IsValidation reports whether err only carries user-correctable selection errors.
func IsValidation(err error) bool {
	errs := Flatten(err)
	if len(errs) == 0 {
		return false
	}
	for _, e := range errs {
		switch Classify(e) {
		case KindAxisType, KindCategoryCount, KindUnknownColumn:
		default:
			return false
		}
	}
	return true
}
