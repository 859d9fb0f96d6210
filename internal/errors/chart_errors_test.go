package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAxisTypeError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *AxisTypeError
		want string
	}{
		{
			name: "x axis",
			err:  &AxisTypeError{Axis: AxisX, Column: "region", Expected: "numeric or datetime"},
			want: "X-axis column 'region' must be numeric or datetime.",
		},
		{
			name: "y axis",
			err:  &AxisTypeError{Axis: AxisY, Column: "date", Expected: "numeric"},
			want: "Y-axis column 'date' must be numeric.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestParseError_Message(t *testing.T) {
	cause := errors.New("wrong number of fields")

	assert.Equal(t, "parse data.csv: line 3: wrong number of fields",
		(&ParseError{Filename: "data.csv", Line: 3, Err: cause}).Error())
	assert.Equal(t, "parse data.csv: wrong number of fields",
		(&ParseError{Filename: "data.csv", Err: cause}).Error())
	assert.Equal(t, "parse: invalid tabular data", (&ParseError{}).Error())
	assert.ErrorIs(t, &ParseError{Err: cause}, cause)
}

func TestProcessingError(t *testing.T) {
	cause := errors.New("disk full")

	err := NewProcessingError(cause)

	var pe *ProcessingError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Error processing file: disk full", err.Error())

	assert.Nil(t, NewProcessingError(nil))
	assert.Same(t, err, NewProcessingError(err))

	axis := &AxisTypeError{Axis: AxisY, Column: "c", Expected: "numeric"}
	assert.Same(t, error(axis), NewProcessingError(axis))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"parse", &ParseError{Err: errors.New("x")}, KindParse},
		{"wrapped parse", fmt.Errorf("ingest: %w", &ParseError{}), KindParse},
		{"axis", &AxisTypeError{}, KindAxisType},
		{"category", &CategoryCountError{Column: "c", Count: 11, Max: 10}, KindCategoryCount},
		{"unknown column", &UnknownColumnError{Axis: AxisX, Column: "zz"}, KindUnknownColumn},
		{"processing", &ProcessingError{}, KindProcessing},
		{"unknown", errors.New("?"), KindProcessing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestFlattenAndMessages(t *testing.T) {
	x := &AxisTypeError{Axis: AxisX, Column: "a", Expected: "numeric or datetime"}
	y := &AxisTypeError{Axis: AxisY, Column: "b", Expected: "numeric"}
	joined := errors.Join(x, errors.Join(y))

	flat := Flatten(joined)
	require.Len(t, flat, 2)
	assert.Same(t, error(x), flat[0])
	assert.Same(t, error(y), flat[1])

	assert.Equal(t, []string{
		"X-axis column 'a' must be numeric or datetime.",
		"Y-axis column 'b' must be numeric.",
	}, Messages(joined))

	assert.Nil(t, Flatten(nil))
	assert.Nil(t, Messages(nil))
}

func TestIsValidation(t *testing.T) {
	axis := &AxisTypeError{Axis: AxisX, Column: "a", Expected: "numeric or datetime"}
	cat := &CategoryCountError{Column: "a", Count: 12, Max: 10}

	assert.True(t, IsValidation(axis))
	assert.True(t, IsValidation(errors.Join(axis, cat)))
	assert.True(t, IsValidation(&UnknownColumnError{Axis: AxisY, Column: "q"}))
	assert.False(t, IsValidation(errors.Join(axis, &ProcessingError{})))
	assert.False(t, IsValidation(nil))
}
