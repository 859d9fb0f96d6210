package testutil

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// Common CSV fixtures
const (
	// SalesCSV mixes a date, a number and a label column.
	SalesCSV = "date,sales,region\n" +
		"2024-01-03,30,West\n" +
		"2024-01-01,10,East\n" +
		"2024-01-02,20,East\n"

	// NumericCSV has two numeric columns.
	NumericCSV = "a,b\n1,2\n3,4\n"

	// PieCSV repeats labels to exercise aggregation.
	PieCSV = "fruit,count\napple,3\nbanana,1\napple,1\ncherry,5\n"

	// HeaderOnlyCSV has columns but no rows.
	HeaderOnlyCSV = "x,y\n"

	// RaggedCSV has a short row on line 3.
	RaggedCSV = "a,b\n1,2\n3\n"
)

// CSVReader returns a reader over the given fixture
func CSVReader(content string) io.Reader {
	return strings.NewReader(content)
}

// ManyCategoriesCSV builds a label/value CSV with n distinct labels
func ManyCategoriesCSV(n int) string {
	var b strings.Builder
	b.WriteString("label,value\n")
	for i := 0; i < n; i++ {
		b.WriteString("cat")
		b.WriteString(strings.Repeat("x", i))
		b.WriteString(",1\n")
	}
	return b.String()
}

// WorkbookBytes builds an in-memory xlsx file whose first sheet holds rows
func WorkbookBytes(t *testing.T, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}
