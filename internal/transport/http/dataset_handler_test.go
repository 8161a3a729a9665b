package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabcli/internal/chart"
	"tabcli/internal/dataset"
	apierrors "tabcli/internal/errors"
	"tabcli/internal/services"
	"tabcli/internal/stats"
)

const testSessionID = "2f1e29a3-9c62-4b55-8d8e-5a3f6b6c9d01"

// stubService implements DatasetServiceInterface for handler tests.
type stubService struct {
	uploadResult  *services.UploadResult
	uploadErr     error
	previewResult *services.PreviewResult
	cleanResult   *services.CleanResult
	analysis      *stats.Analysis
	histogram     *chart.Histogram
	barChart      *chart.BarChart
	err           error
}

func (s *stubService) Upload(ctx context.Context, filename string, size int64, r io.Reader) (*services.UploadResult, error) {
	return s.uploadResult, s.uploadErr
}

func (s *stubService) Preview(ctx context.Context, id string, n int) (*services.PreviewResult, error) {
	return s.previewResult, s.err
}

func (s *stubService) MissingValues(ctx context.Context, id string) ([]dataset.ColumnMissing, error) {
	return []dataset.ColumnMissing{{Column: "age", Missing: 1}}, s.err
}

func (s *stubService) Clean(ctx context.Context, id string) (*services.CleanResult, error) {
	return s.cleanResult, s.err
}

func (s *stubService) Analyze(ctx context.Context, id string) (*stats.Analysis, error) {
	return s.analysis, s.err
}

func (s *stubService) Histogram(ctx context.Context, id, column string, bins int) (*chart.Histogram, error) {
	return s.histogram, s.err
}

func (s *stubService) BarChart(ctx context.Context, id, column string, topN int) (*chart.BarChart, error) {
	return s.barChart, s.err
}

func newTestHandler(svc DatasetServiceInterface) *DatasetHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDatasetHandler(svc, logger, apierrors.NewErrorHandler(logger), 1<<20)
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestUploadHandler(t *testing.T) {
	svc := &stubService{
		uploadResult: &services.UploadResult{SessionID: testSessionID},
	}
	handler := newTestHandler(svc)

	body, contentType := multipartBody(t, "data.csv", "a,b\n1,2\n")
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Status string                `json:"status"`
		Data   services.UploadResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, testSessionID, resp.Data.SessionID)
}

func TestUploadHandlerMissingFilePart(t *testing.T) {
	handler := newTestHandler(&stubService{})

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("other", "value"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()

	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
}

func TestUploadHandlerMalformedBody(t *testing.T) {
	handler := newTestHandler(&stubService{})

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("not a multipart body"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	rec := httptest.NewRecorder()

	handler.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadHandlerOversizeBody(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewDatasetHandler(&stubService{}, logger, apierrors.NewErrorHandler(logger), 16)

	body, contentType := multipartBody(t, "data.csv", strings.Repeat("x", 1024))
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestUploadHandlerServiceError(t *testing.T) {
	svc := &stubService{uploadErr: apierrors.Validation("no data rows found in file")}
	handler := newTestHandler(svc)

	body, contentType := multipartBody(t, "data.csv", "a,b\n")
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var problem map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "/errors/validation", problem["type"])
}

func TestSessionCtxRejectsMalformedID(t *testing.T) {
	handler := newTestHandler(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/not-a-uuid", nil)
	rec := httptest.NewRecorder()

	handler.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPreviewHandler(t *testing.T) {
	svc := &stubService{previewResult: &services.PreviewResult{
		SessionID: testSessionID,
		Columns:   []string{"a"},
		TotalRows: 3,
	}}
	handler := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/"+testSessionID+"?rows=2", nil)
	rec := httptest.NewRecorder()

	handler.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPreviewHandlerBadRowsParam(t *testing.T) {
	handler := newTestHandler(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/"+testSessionID+"?rows=abc", nil)
	rec := httptest.NewRecorder()

	handler.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCleanHandlerNotFound(t *testing.T) {
	svc := &stubService{err: apierrors.SessionNotFound(testSessionID)}
	handler := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/"+testSessionID+"/clean", nil)
	rec := httptest.NewRecorder()

	handler.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatsHandler(t *testing.T) {
	svc := &stubService{analysis: &stats.Analysis{
		Shape: stats.Shape{Rows: 3, Columns: 2},
	}}
	handler := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/"+testSessionID+"/stats", nil)
	rec := httptest.NewRecorder()

	handler.Routes().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data stats.Analysis `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Data.Shape.Rows)
}

func TestHistogramHandler(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{name: "valid", query: "column=age&bins=10", wantStatus: http.StatusOK},
		{name: "default bins", query: "column=age", wantStatus: http.StatusOK},
		{name: "missing column", query: "bins=10", wantStatus: http.StatusBadRequest},
		{name: "bins too large", query: "column=age&bins=500", wantStatus: http.StatusBadRequest},
		{name: "bins not a number", query: "column=age&bins=x", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{histogram: &chart.Histogram{Column: "age"}}
			handler := newTestHandler(svc)

			url := fmt.Sprintf("/%s/charts/histogram?%s", testSessionID, tt.query)
			req := httptest.NewRequest(http.MethodGet, url, nil)
			rec := httptest.NewRecorder()

			handler.Routes().ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestBarChartHandler(t *testing.T) {
	svc := &stubService{barChart: &chart.BarChart{
		Column: "city",
		Items:  []chart.BarItem{{Value: "baghdad", Count: 3}},
	}}
	handler := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/"+testSessionID+"/charts/bar?column=city", nil)
	rec := httptest.NewRecorder()

	handler.Routes().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "baghdad")
}

func TestMissingHandler(t *testing.T) {
	handler := newTestHandler(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/"+testSessionID+"/missing", nil)
	rec := httptest.NewRecorder()

	handler.Routes().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "age")
}

func TestHealthHandler(t *testing.T) {
	handler := NewHealthHandler("test", func() int { return 2 })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	handler.Routes().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "ok", payload["status"])
	assert.Equal(t, float64(2), payload["sessions"])
}
