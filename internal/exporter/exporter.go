package exporter

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xgarcia1/FinalProject/internal/dataset"
)

// Format is a download format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts csv or xlsx in any case; empty means csv
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(FormatCSV):
		return FormatCSV, nil
	case string(FormatXLSX):
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename derives the download name from the uploaded file name
func (f Format) Filename(source string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "dataset"
	}
	return base + "_normalized." + string(f)
}

// Options configures exports
type Options struct {
	// BOMPrefix adds a UTF-8 BOM to CSV output
	BOMPrefix bool
	// SheetName names the workbook sheet
	SheetName string
}

// Exporter writes datasets in any supported format
type Exporter struct {
	csv  *CSVWriter
	xlsx *XLSXWriter
}

// New creates an exporter
func New(opts Options) *Exporter {
	return &Exporter{
		csv:  NewCSVWriter(opts.BOMPrefix),
		xlsx: NewXLSXWriter(opts.SheetName),
	}
}

// Export writes ds to w in the given format
func (e *Exporter) Export(ds *dataset.Dataset, format Format, w io.Writer) error {
	switch format {
	case FormatCSV:
		return e.csv.Write(ds, w)
	case FormatXLSX:
		return e.xlsx.Write(ds, w)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}
