package http

import (
	"context"
	"io"

	"tabcli/internal/chart"
	"tabcli/internal/dataset"
	"tabcli/internal/services"
	"tabcli/internal/stats"
)

// DatasetServiceInterface is the service surface the dataset handler
// depends on, kept as an interface so handler tests can stub it.
type DatasetServiceInterface interface {
	Upload(ctx context.Context, filename string, size int64, r io.Reader) (*services.UploadResult, error)
	Preview(ctx context.Context, id string, n int) (*services.PreviewResult, error)
	MissingValues(ctx context.Context, id string) ([]dataset.ColumnMissing, error)
	Clean(ctx context.Context, id string) (*services.CleanResult, error)
	Analyze(ctx context.Context, id string) (*stats.Analysis, error)
	Histogram(ctx context.Context, id, column string, bins int) (*chart.Histogram, error)
	BarChart(ctx context.Context, id, column string, topN int) (*chart.BarChart, error)
}
