package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	apierrors "github.com/xgarcia1/FinalProject/internal/errors"
)

// Format identifies the container of an upload
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatFor picks the format from a file name. Anything that is not .xlsx is
// read as comma-separated text.
func FormatFor(filename string) Format {
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// Options controls ingestion
type Options struct {
	// Filename is reported in parse errors and kept as the dataset source
	Filename string
	// Location applies to date values without a zone. Nil means UTC.
	Location *time.Location
	// Sheet selects a workbook sheet. Empty means the first sheet.
	Sheet string
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load ingests content in the format implied by opts.Filename
func Load(r io.Reader, opts Options) (*Dataset, []CoercionResult, error) {
	if FormatFor(opts.Filename) == FormatXLSX {
		return IngestWorkbook(r, opts)
	}
	return Ingest(r, opts)
}

// Ingest parses comma-separated content with a header row. Malformed content
// yields a *errors.ParseError and no dataset.
func Ingest(r io.Reader, opts Options) (*Dataset, []CoercionResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, &apierrors.ParseError{Filename: opts.Filename, Err: err}
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	if bytes.IndexByte(data, 0) >= 0 {
		return nil, nil, parseErr(opts, 0, "content is binary, not delimited text")
	}
	if !utf8.Valid(data) {
		return nil, nil, parseErr(opts, 0, "content is not valid UTF-8 text")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, parseErr(opts, 0, "no columns to parse from file")
	}

	reader := csv.NewReader(bytes.NewReader(data))
	// Every record must match the header's field count.
	reader.FieldsPerRecord = 0

	header, err := reader.Read()
	if err != nil {
		return nil, nil, csvErr(opts, err)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, csvErr(opts, err)
		}
		rows = append(rows, record)
	}

	ds, results := Normalize(opts.Filename, header, rows, opts)
	return ds, results, nil
}

// IngestWorkbook reads an xlsx workbook. The first row of the sheet is the
// header; trailing empty cells are padded and blank rows skipped.
func IngestWorkbook(r io.Reader, opts Options) (*Dataset, []CoercionResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, &apierrors.ParseError{Filename: opts.Filename, Err: fmt.Errorf("open workbook: %w", err)}
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil, parseErr(opts, 0, "workbook has no sheets")
		}
		sheet = sheets[0]
	}

	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, &apierrors.ParseError{Filename: opts.Filename, Err: fmt.Errorf("read sheet %q: %w", sheet, err)}
	}

	var header []string
	var rows [][]string
	for i, row := range raw {
		if blankRow(row) {
			continue
		}
		if header == nil {
			header = row
			continue
		}
		if len(row) > len(header) {
			if !blankRow(row[len(header):]) {
				return nil, nil, parseErr(opts, i+1, fmt.Sprintf("expected %d fields, saw %d", len(header), len(row)))
			}
			row = row[:len(header)]
		}
		for len(row) < len(header) {
			row = append(row, "")
		}
		rows = append(rows, row)
	}

	if header == nil {
		return nil, nil, parseErr(opts, 0, "no columns to parse from file")
	}

	ds, results := Normalize(opts.Filename, header, rows, opts)
	return ds, results, nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func parseErr(opts Options, line int, msg string) error {
	return &apierrors.ParseError{Filename: opts.Filename, Line: line, Err: errors.New(msg)}
}

func csvErr(opts Options, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		line := pe.StartLine
		if errors.Is(pe.Err, csv.ErrFieldCount) {
			line = pe.Line
		}
		return &apierrors.ParseError{Filename: opts.Filename, Line: line, Err: pe.Err}
	}
	return &apierrors.ParseError{Filename: opts.Filename, Err: err}
}
