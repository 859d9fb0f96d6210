// Package dataset turns an uploaded tabular file into a typed, column-oriented
// Dataset.
//
// Ingestion reads comma-separated text (Ingest) or the first sheet of an xlsx
// workbook (IngestWorkbook) and hands the header and rows to Normalize, which
// trims and disambiguates column names and infers one type per column:
//
//	numeric      every non-empty cell parses as a float; empty cells are NaN
//	temporal     every non-empty cell parses with one supported date layout;
//	             empty cells are not-a-time
//	categorical  anything else, values kept as text
//
// Temporal coercion never fails ingestion. Its outcome is reported per column
// as a CoercionResult so callers can see which columns were converted.
package dataset
