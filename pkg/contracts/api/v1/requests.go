// Package api contains the HTTP API contract definitions of csvplot.
// Version v1 represents the current stable API version.
package api

// Multipart form fields
const (
	FieldFile   = "file"
	FieldX      = "x"
	FieldY      = "y"
	FieldKind   = "kind"
	FieldFormat = "format"
)

// ChartRequest is the form accompanying an uploaded file on POST /api/charts
type ChartRequest struct {
	Filename string `form:"filename" validate:"required,filename"`
	X        string `form:"x" validate:"required"`
	Y        string `form:"y" validate:"required"`
	Kind     string `form:"kind" validate:"required,chartkind"`
	Format   string `form:"format" validate:"omitempty,imageformat"`
}

// InspectRequest describes an upload on POST /api/datasets/inspect
type InspectRequest struct {
	Filename string `form:"filename" validate:"required,filename"`
}

// ExportRequest selects the download format on POST /api/datasets/export
type ExportRequest struct {
	Filename string `form:"filename" validate:"required,filename"`
	Format   string `form:"format" validate:"omitempty,exportformat"`
}
