package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"dapodiksync/internal/config"
	apperrors "dapodiksync/internal/errors"
	"dapodiksync/internal/report"
	"dapodiksync/internal/shared/testutil"
)

func newTestReportService(t *testing.T, mut ...func(*config.ReportConfig)) *ReportService {
	t.Helper()
	cfg := config.Default().Report
	for _, m := range mut {
		m(&cfg)
	}
	logger, _ := testutil.NewTestLogger()
	svc, err := NewReportService(cfg, nil, logger)
	require.NoError(t, err)
	return svc
}

var sampleSchools = []testutil.School{
	{NPSN: "101", Kecamatan: "Alpha", BP: "SD", Status: "NEGERI", PD: 1200, Rombel: 12, Guru: 10, Tendik: 2, LastSync: "2024-07-01"},
	{NPSN: "102", Kecamatan: "Alpha", BP: "SMP", Status: "SWASTA", PD: 300, Rombel: 9, Guru: 11, Tendik: 3, LastSync: "belum kirim"},
	{NPSN: "103", Kecamatan: "Beta", BP: "SMP", Status: "NEGERI", PD: 450, Rombel: 15, Guru: 20, Tendik: 5, LastSync: "2024-07-02"},
	{NPSN: "104", Kecamatan: "Gamma", BP: "SMA", Status: "NEGERI", PD: 900, Rombel: 27, Guru: 40, Tendik: 9, LastSync: "2024-07-02"},
}

func masterUpload(t *testing.T, name string, schools ...testutil.School) Upload {
	return Upload{Name: name, Data: testutil.MasterWorkbook(t, "Master", schools...)}
}

func TestReportService_Build(t *testing.T) {
	svc := newTestReportService(t)

	result, err := svc.Build(context.Background(), []Upload{masterUpload(t, "master.xlsx", sampleSchools...)})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Files)
	assert.Equal(t, 4, result.Records)
	assert.Empty(t, result.Skipped)
	require.NotNil(t, result.Bundle)
	assert.Len(t, result.Bundle.Tables(), 8)

	rekap := result.Bundle.Table("rekap_kecamatan")
	require.NotNil(t, rekap)
	total := rekap.Rows[len(rekap.Rows)-1]
	assert.True(t, total.Total)
	assert.EqualValues(t, 3, rekap.Value(len(rekap.Rows)-1, "SP"), "SMA is excluded")
	assert.EqualValues(t, 1950, rekap.Value(len(rekap.Rows)-1, "PD"))

	// Gamma only has an excluded school but still gets a zero row.
	gamma := rekap.Find("Gamma")
	require.NotEqual(t, -1, gamma)
	assert.Zero(t, rekap.Value(gamma, "SP"))

	assert.Equal(t, report.KPI{TotalSchools: 3, SyncedSchools: 2, NotSyncedSchools: 1, SyncPercent: 66.67},
		result.Bundle.Summary.KPI)
}

func TestReportService_BuildSkipsBadFiles(t *testing.T) {
	svc := newTestReportService(t)

	bad := Upload{Name: "bad.xlsx", Data: testutil.Workbook(t, "Master", []any{"NPSN", "Kecamatan"}, []any{"1", "Alpha"})}
	result, err := svc.Build(context.Background(), []Upload{
		bad,
		masterUpload(t, "good.xlsx", sampleSchools...),
		{Name: "notes.txt", Data: []byte("hello")},
	})
	require.NoError(t, err)

	require.Len(t, result.Skipped, 2)
	assert.Equal(t, "bad.xlsx", result.Skipped[0].Name)
	assert.Equal(t, string(apperrors.ErrTypeSchema), result.Skipped[0].Type)
	assert.Contains(t, result.Skipped[0].Reason, "Status")
	assert.Equal(t, "notes.txt", result.Skipped[1].Name)
	assert.Equal(t, string(apperrors.ErrTypeParsing), result.Skipped[1].Type)
	assert.Equal(t, 4, result.Records)
}

func TestReportService_BuildFailsWhenNothingSurvives(t *testing.T) {
	svc := newTestReportService(t)

	bad := testutil.School{NPSN: "1", Kecamatan: "Alpha", BP: "SD", Status: "NEGERI", LastSync: "x"}
	header := []any{"NPSN", "Kecamatan", "BP", "Status", "PD", "Rombel", "Guru", "Tendik", "Last Sync"}
	coercion := Upload{Name: "coerce.xlsx", Data: testutil.Workbook(t, "Master", header,
		[]any{bad.NPSN, bad.Kecamatan, bad.BP, bad.Status, "abc", 1, 1, 1, bad.LastSync})}
	missingSheet := Upload{Name: "other.xlsx", Data: testutil.MasterWorkbook(t, "Sheet1", sampleSchools...)}

	_, err := svc.Build(context.Background(), []Upload{coercion, missingSheet})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoUsableFiles)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeTypeCoercion))
	assert.Contains(t, err.Error(), "coerce.xlsx")
	assert.Contains(t, err.Error(), "other.xlsx")
}

func TestReportService_BuildEmptyResult(t *testing.T) {
	svc := newTestReportService(t)

	onlySMA := []testutil.School{sampleSchools[3]}
	result, err := svc.Build(context.Background(), []Upload{
		masterUpload(t, "sma.xlsx", onlySMA...),
		{Name: "notes.txt", Data: []byte("hello")},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeEmptyResult))

	require.NotNil(t, result)
	assert.Nil(t, result.Bundle)
	assert.Equal(t, 2, result.Files)
	assert.Equal(t, 1, result.Records)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "notes.txt", result.Skipped[0].Name)
}

func TestReportService_BuildNoUploads(t *testing.T) {
	svc := newTestReportService(t)

	_, err := svc.Build(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoUploads)
}

func TestReportService_BuildCancelled(t *testing.T) {
	svc := newTestReportService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Build(ctx, []Upload{masterUpload(t, "m.xlsx", sampleSchools...)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReportService_BuildKeepsUploadOrder(t *testing.T) {
	svc := newTestReportService(t, func(c *config.ReportConfig) { c.ParseWorkers = 8 })

	var uploads []Upload
	for i := 0; i < 12; i++ {
		uploads = append(uploads, masterUpload(t, "m.xlsx", sampleSchools[i%3]))
	}
	first, err := svc.Build(context.Background(), uploads)
	require.NoError(t, err)
	second, err := svc.Build(context.Background(), uploads)
	require.NoError(t, err)

	assert.Equal(t, first.Bundle, second.Bundle)
}

func TestReportService_Render(t *testing.T) {
	svc := newTestReportService(t)
	result, err := svc.Build(context.Background(), []Upload{masterUpload(t, "m.xlsx", sampleSchools...)})
	require.NoError(t, err)

	artifacts := svc.Render(context.Background(), result.Bundle)
	require.Empty(t, artifacts.Failed())

	assert.Equal(t, "Rekap_Progres_SYNC_DAPODIK.xlsx", artifacts.Workbook.Name)
	assert.Equal(t, ContentTypeXLSX, artifacts.Workbook.ContentType)
	assert.Equal(t, "Rekap_Progres_SYNC_DAPODIK.pdf", artifacts.Document.Name)
	assert.True(t, bytes.HasPrefix(artifacts.Document.Data, []byte("%PDF-")))

	f, err := excelize.OpenReader(bytes.NewReader(artifacts.Workbook.Data))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{report.SectionRekap, report.SectionEksplorasi}, f.GetSheetList())
}

func TestReportService_RenderFailuresAreIndependent(t *testing.T) {
	svc := newTestReportService(t)

	// A table without columns fails both writers; each artifact reports its own error.
	broken := &report.Bundle{Sections: []report.Section{{Name: "X", Tables: []*report.Table{{ID: "broken"}}}}}
	artifacts := svc.Render(context.Background(), broken)

	require.Len(t, artifacts.Failed(), 2)
	assert.True(t, apperrors.IsType(artifacts.Workbook.Err, apperrors.ErrTypeRender))
	assert.Nil(t, artifacts.Workbook.Data)
	assert.Contains(t, artifacts.Document.Err.Error(), svc.DocumentName())
}

func TestReportService_RenderRecoversWriterPanic(t *testing.T) {
	svc := newTestReportService(t)

	art := svc.render(context.Background(), "xlsx", "x.xlsx", ContentTypeXLSX, &report.Bundle{},
		func(*report.Bundle) ([]byte, error) { panic("boom") })

	require.Error(t, art.Err)
	assert.Contains(t, art.Err.Error(), "boom")

	ok := svc.render(context.Background(), "pdf", "x.pdf", ContentTypePDF, &report.Bundle{},
		func(*report.Bundle) ([]byte, error) { return []byte("ok"), nil })
	assert.NoError(t, ok.Err)
	assert.Equal(t, []byte("ok"), ok.Data)

	failed := svc.render(context.Background(), "pdf", "x.pdf", ContentTypePDF, &report.Bundle{},
		func(*report.Bundle) ([]byte, error) { return nil, errors.New("disk full") })
	assert.True(t, strings.Contains(failed.Err.Error(), "disk full"))
}

// Concurrent builds share nothing.
func TestReportService_ConcurrentBuilds(t *testing.T) {
	svc := newTestReportService(t)
	upload := masterUpload(t, "m.xlsx", sampleSchools...)

	var wg sync.WaitGroup
	results := make([]*BuildResult, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := svc.Build(context.Background(), []Upload{upload})
			assert.NoError(t, err)
			results[i] = r
		}()
	}
	wg.Wait()

	for _, r := range results[1:] {
		assert.Equal(t, results[0].Bundle, r.Bundle)
	}
}
