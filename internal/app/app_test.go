package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"dapodiksync/internal/config"
	"dapodiksync/internal/shared/testutil"
)

func newTestApp(t *testing.T, mutate func(*config.Config)) *Application {
	t.Helper()
	cfg := config.Default()
	cfg.Security.RateLimit.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}

	app, err := NewApplication(Options{
		Config:     cfg,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		FrontendFS: fstest.MapFS{"index.html": &fstest.MapFile{Data: []byte("<html>dashboard</html>")}},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.OTelProviders.Shutdown(context.Background()) })
	return app
}

func masterUpload(t *testing.T, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, data := range files {
		w, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func sampleMaster(t *testing.T) []byte {
	return testutil.MasterWorkbook(t, "Master",
		testutil.School{NPSN: "1", Kecamatan: "Alpha", BP: "SD", Status: "Negeri", PD: 300, Rombel: 12, Guru: 15, Tendik: 3, LastSync: "2024-08-01 10:00"},
		testutil.School{NPSN: "2", Kecamatan: "Alpha", BP: "SMP", Status: "Swasta", PD: 150, Rombel: 6, Guru: 9, Tendik: 2, LastSync: "belum kirim"},
		testutil.School{NPSN: "3", Kecamatan: "Beta", BP: "SD", Status: "Negeri", PD: 120, Rombel: 6, Guru: 7, Tendik: 1, LastSync: "2024-08-02 08:00"},
		testutil.School{NPSN: "4", Kecamatan: "Beta", BP: "SMA", Status: "Negeri", PD: 500, Rombel: 15, Guru: 30, Tendik: 8, LastSync: "2024-08-02 09:00"},
	)
}

func TestNewApplication(t *testing.T) {
	app := newTestApp(t, nil)

	assert.NotNil(t, app.Router)
	assert.NotNil(t, app.Server)
	assert.Equal(t, ":8080", app.Server.Addr)
	require.NotNil(t, app.Services)
	assert.NotNil(t, app.Services.Report)
	assert.NotNil(t, app.Services.Merge)
	assert.NotNil(t, app.Services.Health)
}

func TestNewApplication_InvalidConfigFile(t *testing.T) {
	_, err := NewApplication(Options{ConfigPath: "does-not-exist.yaml"})
	assert.Error(t, err)
}

func TestApplication_Routes(t *testing.T) {
	app := newTestApp(t, nil)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"health", "/api/health", http.StatusOK, `"status":"ok"`},
		{"readiness", "/api/health/ready", http.StatusOK, `"status":"ready"`},
		{"version", "/api/version", http.StatusOK, `"version"`},
		{"metrics", "/metrics", http.StatusOK, "# HELP"},
		{"dashboard page", "/", http.StatusOK, "dashboard"},
		{"unknown api route", "/api/unknown", http.StatusNotFound, "/errors/not-found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestApplication_PreviewEndToEnd(t *testing.T) {
	app := newTestApp(t, nil)

	body, contentType := masterUpload(t, map[string][]byte{"master.xlsx": sampleMaster(t)})
	req := httptest.NewRequest(http.MethodPost, "/api/reports/preview", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Status  string `json:"status"`
		Records int    `json:"records"`
		KPI     struct {
			TotalSchools  int64 `json:"total_schools"`
			SyncedSchools int64 `json:"synced_schools"`
		} `json:"kpi"`
		Tables []struct {
			ID string `json:"id"`
		} `json:"tables"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 4, resp.Records)
	// the SMA school is excluded from the all-levels dataset
	assert.Equal(t, int64(3), resp.KPI.TotalSchools)
	assert.Equal(t, int64(2), resp.KPI.SyncedSchools)
	assert.NotEmpty(t, resp.Tables)
}

func TestApplication_WorkbookDownload(t *testing.T) {
	app := newTestApp(t, nil)

	body, contentType := masterUpload(t, map[string][]byte{"master.xlsx": sampleMaster(t)})
	req := httptest.NewRequest(http.MethodPost, "/api/reports/xlsx", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "attachment; filename=Rekap_Progres_SYNC_DAPODIK.xlsx", rec.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Rekap_Master", "Eksplorasi_SMP"}, f.GetSheetList())
}

func TestApplication_SchemaErrorIsUnprocessable(t *testing.T) {
	app := newTestApp(t, nil)

	bad := testutil.Workbook(t, "Master", []any{"NPSN", "Kecamatan"}, []any{"1", "Alpha"})
	body, contentType := masterUpload(t, map[string][]byte{"bad.xlsx": bad})
	req := httptest.NewRequest(http.MethodPost, "/api/reports/pdf", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "/errors/upload/schema")
}

func TestApplication_RateLimit(t *testing.T) {
	app := newTestApp(t, func(c *config.Config) {
		c.Security.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 1, Burst: 1}
	})

	codes := make([]int, 3)
	for i := range codes {
		rec := httptest.NewRecorder()
		app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		codes[i] = rec.Code
	}
	assert.Equal(t, http.StatusOK, codes[0])
	assert.Contains(t, codes[1:], http.StatusTooManyRequests)
}

func TestApplication_getCORSConfig(t *testing.T) {
	tests := []struct {
		name    string
		enable  bool
		origins []string
		want    []string
	}{
		{"enabled", true, []string{"https://dinas.example"}, []string{"https://dinas.example"}},
		{"disabled", false, []string{"https://dinas.example"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, func(c *config.Config) {
				c.Security.EnableCORS = tt.enable
				c.Security.AllowedOrigins = tt.origins
			})
			cors := app.getCORSConfig()
			assert.Equal(t, tt.want, cors.AllowedOrigins)
			assert.Contains(t, cors.ExposedHeaders, "Content-Disposition")
		})
	}
}
