package http

import (
	"context"
	"io"

	"github.com/xgarcia1/FinalProject/internal/chart"
	"github.com/xgarcia1/FinalProject/internal/exporter"
	"github.com/xgarcia1/FinalProject/internal/services"
)

// ChartService defines the chart pipeline used by the HTTP handlers
type ChartService interface {
	Inspect(ctx context.Context, up services.Upload) (*services.DatasetView, error)
	Render(ctx context.Context, up services.Upload, req chart.Request, format chart.Format) (*services.RenderedChart, error)
	Export(ctx context.Context, up services.Upload, format exporter.Format, w io.Writer) error
	DefaultFormat() chart.Format
}

// HealthChecker defines the health and version reports
type HealthChecker interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	Version() map[string]interface{}
}

// UploadReader validates and reads an uploaded file
type UploadReader interface {
	ReadUpload(filename string, r io.Reader) ([]byte, error)
	MaxBytes() int64
}

// StructValidator validates request DTOs
type StructValidator interface {
	Struct(v interface{}) error
}
