// Package services implements the business layer between the HTTP transport
// and the pipeline packages. DatasetService runs the linear pipeline per
// session: read file, report missing values, clean, describe, chart.
package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"tabcli/internal/chart"
	"tabcli/internal/cleaning"
	"tabcli/internal/dataset"
	apierrors "tabcli/internal/errors"
	"tabcli/internal/session"
	"tabcli/internal/stats"
)

// DefaultPreviewRows is the preview size when the request does not set one.
const DefaultPreviewRows = 5

// UploadResult is returned after a successful upload.
type UploadResult struct {
	SessionID string                    `json:"session_id"`
	Meta      session.Meta              `json:"meta"`
	Preview   []map[string]dataset.Cell `json:"preview"`
	Missing   []dataset.ColumnMissing   `json:"missing"`
}

// PreviewResult is the first rows of a session's current table.
type PreviewResult struct {
	SessionID string                    `json:"session_id"`
	Cleaned   bool                      `json:"cleaned"`
	Columns   []string                  `json:"columns"`
	Rows      []map[string]dataset.Cell `json:"rows"`
	TotalRows int                       `json:"total_rows"`
}

// CleanResult is returned after cleaning a session's table.
type CleanResult struct {
	SessionID string                    `json:"session_id"`
	Report    *cleaning.Report          `json:"report"`
	Preview   []map[string]dataset.Cell `json:"preview"`
}

// DatasetService coordinates the session store and the pipeline stages.
type DatasetService struct {
	store    *session.Store
	cleaner  *cleaning.Cleaner
	describe *stats.Describer
	logger   *slog.Logger

	maxBytes int64
	maxRows  int

	uploads       metric.Int64Counter
	cleans        metric.Int64Counter
	parseFailures metric.Int64Counter
}

// NewDatasetService creates the service. meter may be nil, in which case no
// metrics are recorded.
func NewDatasetService(store *session.Store, logger *slog.Logger, meter metric.Meter, maxBytes int64, maxRows int) *DatasetService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &DatasetService{
		store:    store,
		cleaner:  cleaning.NewCleaner(logger),
		describe: stats.NewDescriber(logger),
		logger:   logger.With(slog.String("component", "dataset_service")),
		maxBytes: maxBytes,
		maxRows:  maxRows,
	}
	if meter != nil {
		s.uploads, _ = meter.Int64Counter("tabcli.uploads",
			metric.WithDescription("Dataset uploads accepted"))
		s.cleans, _ = meter.Int64Counter("tabcli.cleans",
			metric.WithDescription("Cleaning runs completed"))
		s.parseFailures, _ = meter.Int64Counter("tabcli.parse_failures",
			metric.WithDescription("Uploads rejected as malformed"))
	}
	return s
}

// Upload reads an uploaded file into a table and opens a session for it.
func (s *DatasetService) Upload(ctx context.Context, filename string, size int64, r io.Reader) (*UploadResult, error) {
	if size > s.maxBytes {
		return nil, apierrors.PayloadTooLarge(s.maxBytes)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !supportedExtension(ext) {
		return nil, apierrors.ValidationField("file",
			fmt.Sprintf("unsupported file type %q, expected one of %s", ext,
				strings.Join(dataset.SupportedExtensions, ", ")))
	}

	table, err := dataset.Read(filename, io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		s.count(ctx, s.parseFailures, attribute.String("format", strings.TrimPrefix(ext, ".")))
		return nil, err
	}
	if table.Rows() == 0 {
		return nil, apierrors.Validation("no data rows found in file")
	}
	if table.Rows() > s.maxRows {
		return nil, apierrors.Validation(
			fmt.Sprintf("dataset has %d rows, only up to %d are supported", table.Rows(), s.maxRows))
	}

	sess := s.store.Create(session.Meta{
		Filename:  filepath.Base(filename),
		SizeBytes: size,
		Rows:      table.Rows(),
		Columns:   table.Cols(),
	}, table)

	s.count(ctx, s.uploads, attribute.String("format", strings.TrimPrefix(ext, ".")))
	s.logger.InfoContext(ctx, "dataset uploaded",
		slog.String("session_id", sess.ID),
		slog.String("filename", sess.Meta.Filename),
		slog.Int("rows", table.Rows()),
		slog.Int("columns", table.Cols()))

	return &UploadResult{
		SessionID: sess.ID,
		Meta:      sess.Meta,
		Preview:   table.Head(DefaultPreviewRows).Records(),
		Missing:   dataset.MissingReport(table),
	}, nil
}

// Preview returns the first n rows of the session's current table, cleaned
// when cleaning has run, raw otherwise.
func (s *DatasetService) Preview(ctx context.Context, id string, n int) (*PreviewResult, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = DefaultPreviewRows
	}
	table := sess.Current()
	return &PreviewResult{
		SessionID: sess.ID,
		Cleaned:   sess.Cleaned != nil,
		Columns:   table.ColumnNames(),
		Rows:      table.Head(n).Records(),
		TotalRows: table.Rows(),
	}, nil
}

// MissingValues reports missing cells per column of the raw table.
func (s *DatasetService) MissingValues(ctx context.Context, id string) ([]dataset.ColumnMissing, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	return dataset.MissingReport(sess.Raw), nil
}

// Clean runs the cleaning pipeline over the raw table and stores the result
// in the session.
func (s *DatasetService) Clean(ctx context.Context, id string) (*CleanResult, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	cleaned, report, err := s.cleaner.Clean(ctx, sess.Raw)
	if err != nil {
		return nil, fmt.Errorf("clean session %s: %w", id, err)
	}
	if err := s.store.SetCleaned(id, cleaned); err != nil {
		return nil, err
	}

	s.count(ctx, s.cleans)
	return &CleanResult{
		SessionID: sess.ID,
		Report:    report,
		Preview:   cleaned.Head(DefaultPreviewRows).Records(),
	}, nil
}

// Analyze computes the descriptive statistics of the session's current
// table.
func (s *DatasetService) Analyze(ctx context.Context, id string) (*stats.Analysis, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	return s.describe.Describe(ctx, sess.Current()), nil
}

// Histogram builds a histogram spec for a numeric column of the session's
// current table.
func (s *DatasetService) Histogram(ctx context.Context, id, column string, bins int) (*chart.Histogram, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	h, err := chart.BuildHistogram(sess.Current(), column, bins)
	if err != nil {
		return nil, chartError(sess.Current(), column, err)
	}
	return h, nil
}

// BarChart builds a value-count bar chart spec for a categorical column of
// the session's current table.
func (s *DatasetService) BarChart(ctx context.Context, id, column string, topN int) (*chart.BarChart, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	b, err := chart.BuildBarChart(sess.Current(), column, topN)
	if err != nil {
		return nil, chartError(sess.Current(), column, err)
	}
	return b, nil
}

// chartError maps chart failures onto the API error taxonomy.
func chartError(t *dataset.Table, column string, err error) error {
	if t.Column(column) == nil {
		return apierrors.ColumnNotFound(column)
	}
	return apierrors.ColumnKind(err.Error())
}

func (s *DatasetService) count(ctx context.Context, counter metric.Int64Counter, attrs ...attribute.KeyValue) {
	if counter != nil {
		counter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func supportedExtension(ext string) bool {
	for _, candidate := range dataset.SupportedExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}
