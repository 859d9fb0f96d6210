// Package exporter writes a normalized dataset back out for download.
//
// CSVWriter streams the dataset as comma-separated text, optionally with a
// UTF-8 BOM so spreadsheet tools detect the encoding. XLSXWriter writes a
// single-sheet workbook with typed cells: numbers stay numbers and dates are
// stored as date cells.
//
// Example usage:
//
//	exp := exporter.New(exporter.Options{BOMPrefix: true})
//	err := exp.Export(ds, exporter.FormatCSV, w)
package exporter
