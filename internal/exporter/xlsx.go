package exporter

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/xgarcia1/FinalProject/internal/dataset"
)

const (
	defaultSheet = "Data"
	dateFormat   = "yyyy-mm-dd hh:mm:ss"
)

// XLSXWriter writes datasets as single-sheet workbooks
type XLSXWriter struct {
	sheet string
}

// NewXLSXWriter creates a workbook writer. An empty sheet name means "Data".
func NewXLSXWriter(sheet string) *XLSXWriter {
	if sheet == "" {
		sheet = defaultSheet
	}
	return &XLSXWriter{sheet: sheet}
}

// Write streams ds into a workbook and writes the workbook to w
func (xw *XLSXWriter) Write(ds *dataset.Dataset, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), xw.sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	dateFmt := dateFormat
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		return fmt.Errorf("failed to create date style: %w", err)
	}

	sw, err := f.NewStreamWriter(xw.sheet)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}

	header := make([]interface{}, len(ds.Columns))
	for i, name := range ds.Names() {
		header[i] = name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for r := 0; r < ds.NumRows(); r++ {
		row := make([]interface{}, len(ds.Columns))
		for c, col := range ds.Columns {
			row[c] = cellValue(col, r, dateStyle)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// cellValue returns the typed cell for row r, or nil for a missing value
func cellValue(col *dataset.Column, r int, dateStyle int) interface{} {
	if col.IsMissing(r) {
		return nil
	}
	switch col.Type {
	case dataset.Numeric:
		v := col.Numbers[r]
		if math.IsInf(v, 0) {
			return col.Label(r)
		}
		return v
	case dataset.Temporal:
		return excelize.Cell{StyleID: dateStyle, Value: col.Times[r].Time}
	default:
		return col.Text[r]
	}
}
