package http

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dapodiksync/internal/dataprocessing"
	apierrors "dapodiksync/internal/errors"
	"dapodiksync/internal/middleware"
	"dapodiksync/internal/report"
	"dapodiksync/internal/services"
)

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) Build(ctx context.Context, uploads []services.Upload) (*services.BuildResult, error) {
	args := m.Called(ctx, uploads)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.BuildResult), args.Error(1)
}

func (m *MockReportService) RenderWorkbook(ctx context.Context, b *report.Bundle) services.Artifact {
	return m.Called(ctx, b).Get(0).(services.Artifact)
}

func (m *MockReportService) RenderDocument(ctx context.Context, b *report.Bundle) services.Artifact {
	return m.Called(ctx, b).Get(0).(services.Artifact)
}

type MockMergeService struct {
	mock.Mock
}

func (m *MockMergeService) Merge(ctx context.Context, uploads []services.Upload) (*services.MergeResult, error) {
	args := m.Called(ctx, uploads)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.MergeResult), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testValidator(maxBytes int64) *middleware.ValidationMiddleware {
	logger := testLogger()
	return middleware.NewValidationMiddleware(middleware.UploadLimits{
		MaxFiles:   3,
		MaxBytes:   maxBytes,
		Extensions: dataprocessing.SupportedExtensions,
	}, logger, apierrors.NewErrorHandler(logger, false))
}

type part struct {
	name string
	data string
}

// uploadRequest builds a multipart POST with one "files" part per file.
func uploadRequest(t *testing.T, target string, files ...part) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		w, err := mw.CreateFormFile(uploadField, f.name)
		require.NoError(t, err)
		_, err = io.WriteString(w, f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func sampleBundle() *report.Bundle {
	ints := []report.Column{
		{Name: "Kecamatan", Kind: report.KindLabel},
		{Name: "Jumlah SP", Kind: report.KindInteger},
		{Name: "PD", Kind: report.KindInteger},
	}
	rekap := &report.Table{
		ID:      "rekap_kecamatan",
		Title:   "Rekap per Kecamatan",
		Columns: ints,
		Rows: []report.Row{
			{Label: "Alpha", Values: []float64{2, 1200}},
			{Label: "Beta", Values: []float64{1, 750}},
			{Label: report.TotalLabel, Values: []float64{3, 1950}, Total: true},
		},
	}
	ranking := &report.Table{
		ID:    "ranking_sync",
		Title: "Ranking SYNC per Kecamatan",
		Columns: []report.Column{
			{Name: "Kecamatan", Kind: report.KindLabel},
			{Name: report.RankingColumn, Kind: report.KindFloat},
		},
		Rows: []report.Row{{Label: "Alpha", Values: []float64{66.67}}},
	}
	return &report.Bundle{
		Sections: []report.Section{{Name: report.SectionRekap, Tables: []*report.Table{rekap}}},
		Summary: report.Summary{
			KPI:     report.KPI{TotalSchools: 3, SyncedSchools: 2, NotSyncedSchools: 1, SyncPercent: 66.67},
			Chart:   []report.ChartPoint{{Region: "Alpha", Synced: 2, NotSynced: 0}},
			Ranking: ranking,
		},
	}
}
