package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xgarcia1/FinalProject/internal/dataset"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter writes datasets as comma-separated text
type CSVWriter struct {
	bom bool
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(bom bool) *CSVWriter {
	return &CSVWriter{bom: bom}
}

// Write streams the header and every row of ds to w
func (cw *CSVWriter) Write(ds *dataset.Dataset, w io.Writer) error {
	stream, err := cw.NewStreamWriter(w, ds.Names())
	if err != nil {
		return err
	}

	records := ds.Records()
	for i, record := range records[1:] {
		if err := stream.WriteRecord(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	return stream.Close()
}

// StreamWriter provides streaming CSV writing for large datasets
type StreamWriter struct {
	writer *csv.Writer
}

// NewStreamWriter writes the optional BOM and the header, then returns a
// writer for the rows
func (cw *CSVWriter) NewStreamWriter(w io.Writer, headers []string) (*StreamWriter, error) {
	if cw.bom {
		if _, err := w.Write(utf8BOM); err != nil {
			return nil, fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
	}
	return &StreamWriter{writer: writer}, nil
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	return s.writer.Write(record)
}

// Flush flushes any buffered data
func (s *StreamWriter) Flush() error {
	s.writer.Flush()
	return s.writer.Error()
}

// Close flushes the stream. The underlying writer stays open.
func (s *StreamWriter) Close() error {
	return s.Flush()
}
