package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// missingTokens are read as empty cells in every column type
var missingTokens = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"n/a":  {},
	"NaN":  {},
	"nan":  {},
	"null": {},
	"NULL": {},
	"None": {},
	"#N/A": {},
	"NaT":  {},
}

func isMissing(v string) bool {
	_, ok := missingTokens[v]
	return ok
}

// Normalize builds a Dataset from a header and rows of equal width. Every row
// must have len(header) cells.
func Normalize(source string, header []string, rows [][]string, opts Options) (*Dataset, []CoercionResult) {
	names := normalizeHeader(header)

	columns := make([]*Column, len(names))
	results := make([]CoercionResult, len(names))

	cells := make([]string, len(rows))
	for c, name := range names {
		for r, row := range rows {
			cells[r] = strings.TrimSpace(row[c])
		}
		columns[c], results[c] = inferColumn(name, cells, opts)
	}

	return newDataset(source, columns, len(rows)), results
}

// normalizeHeader trims names, fills blanks and disambiguates duplicates with
// .1, .2 suffixes in order of appearance.
func normalizeHeader(header []string) []string {
	names := make([]string, len(header))
	taken := make(map[string]bool, len(header))

	for i, raw := range header {
		name := strings.TrimSpace(raw)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		names[i] = name
		taken[name] = true
	}

	seen := make(map[string]bool, len(names))
	for i, name := range names {
		if !seen[name] {
			seen[name] = true
			continue
		}
		for n := 1; ; n++ {
			candidate := fmt.Sprintf("%s.%d", name, n)
			if !taken[candidate] {
				taken[candidate] = true
				names[i] = candidate
				break
			}
		}
	}

	return names
}

func inferColumn(name string, cells []string, opts Options) (*Column, CoercionResult) {
	result := CoercionResult{Column: name}

	nonEmpty := 0
	for _, v := range cells {
		if !isMissing(v) {
			nonEmpty++
		}
	}

	if nonEmpty == 0 {
		result.Status = Unconverted
		return textColumn(name, cells), result
	}

	if numbers, ok := parseNumbers(cells); ok {
		result.Status = Skipped
		return &Column{Name: name, Type: Numeric, Numbers: numbers}, result
	}

	parser := newTimeParser(opts.Location)
	times := make([]Timestamp, len(cells))
	for i, v := range cells {
		if isMissing(v) {
			times[i] = NaT
			result.NaTCount++
			continue
		}
		t, ok := parser.parse(v)
		if !ok {
			return textColumn(name, cells), CoercionResult{
				Column:    name,
				Status:    Unconverted,
				Offending: v,
			}
		}
		if result.Layout == "" {
			result.Layout = parser.last
		}
		times[i] = Timestamp{Time: t, Valid: true}
	}

	result.Status = Converted
	return &Column{Name: name, Type: Temporal, Times: times}, result
}

func parseNumbers(cells []string) ([]float64, bool) {
	numbers := make([]float64, len(cells))
	for i, v := range cells {
		if isMissing(v) {
			numbers[i] = math.NaN()
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, false
		}
		numbers[i] = f
	}
	return numbers, true
}

func textColumn(name string, cells []string) *Column {
	text := make([]string, len(cells))
	for i, v := range cells {
		if isMissing(v) {
			continue
		}
		text[i] = v
	}
	return &Column{Name: name, Type: Categorical, Text: text}
}
