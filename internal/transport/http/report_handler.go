package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "dapodiksync/internal/errors"
	"dapodiksync/internal/exporter"
	mw "dapodiksync/internal/middleware"
	"dapodiksync/internal/report"
	"dapodiksync/internal/services"
)

// ReportHandler serves the dashboard preview and the two report downloads
type ReportHandler struct {
	service      ReportServiceInterface
	validator    *mw.ValidationMiddleware
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewReportHandler creates a new report handler
func NewReportHandler(service ReportServiceInterface, validator *mw.ValidationMiddleware, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReportHandler {
	return &ReportHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "report_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the report routes
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(mw.ContentTypeValidator("multipart/form-data"))
	r.Use(h.validator.LimitBody)

	r.Post("/preview", h.Preview)
	r.Post("/xlsx", h.DownloadWorkbook)
	r.Post("/pdf", h.DownloadDocument)
	return r
}

// TableView is a report table as the dashboard renders it.
type TableView struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Section string    `json:"section,omitempty"`
	Columns []string  `json:"columns"`
	Rows    []RowView `json:"rows"`
}

// RowView carries raw values for charts and display strings for tables.
type RowView struct {
	Label   string    `json:"label"`
	Values  []float64 `json:"values"`
	Display []string  `json:"display"`
	Total   bool      `json:"total,omitempty"`
}

// PreviewResponse is the body of POST /api/reports/preview
type PreviewResponse struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Files   int                    `json:"files"`
	Records int                    `json:"records"`
	Skipped []services.SkippedFile `json:"skipped"`
	KPI     *report.KPI            `json:"kpi,omitempty"`
	Chart   []report.ChartPoint    `json:"chart,omitempty"`
	Ranking *TableView             `json:"ranking,omitempty"`
	Tables  []TableView            `json:"tables,omitempty"`
}

func newTableView(section string, t *report.Table, f *exporter.Formatter) TableView {
	view := TableView{ID: t.ID, Title: t.Title, Section: section, Columns: t.ColumnNames(), Rows: []RowView{}}
	numeric := t.NumericColumns()
	for _, row := range t.Rows {
		rv := RowView{Label: row.Label, Values: row.Values, Total: row.Total, Display: make([]string, len(row.Values))}
		for c, v := range row.Values {
			if c < len(numeric) {
				rv.Display[c] = f.Cell(numeric[c], v)
			}
		}
		view.Rows = append(view.Rows, rv)
	}
	return view
}

func newPreviewResponse(result *services.BuildResult) PreviewResponse {
	f := exporter.NewFormatter()
	b := result.Bundle

	resp := PreviewResponse{
		Status:  "ok",
		Files:   result.Files,
		Records: result.Records,
		Skipped: result.Skipped,
		KPI:     &b.Summary.KPI,
		Chart:   b.Summary.Chart,
	}
	if resp.Skipped == nil {
		resp.Skipped = []services.SkippedFile{}
	}
	if b.Summary.Ranking != nil {
		ranking := newTableView("", b.Summary.Ranking, f)
		resp.Ranking = &ranking
	}
	for _, s := range b.Sections {
		for _, t := range s.Tables {
			resp.Tables = append(resp.Tables, newTableView(s.Name, t, f))
		}
	}
	return resp
}

// build reads and processes the upload. ok is false once an error response was written.
func (h *ReportHandler) build(w http.ResponseWriter, r *http.Request) (*services.BuildResult, bool) {
	uploads, err := readUploads(r, h.validator)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return nil, false
	}

	h.logger.InfoContext(r.Context(), "building report",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Int("files", len(uploads)))

	result, err := h.service.Build(r.Context(), uploads)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return nil, false
	}
	return result, true
}

// Preview handles POST /api/reports/preview
func (h *ReportHandler) Preview(w http.ResponseWriter, r *http.Request) {
	uploads, err := readUploads(r, h.validator)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	result, err := h.service.Build(r.Context(), uploads)
	if apierrors.IsType(err, apierrors.ErrTypeEmptyResult) {
		h.logger.InfoContext(r.Context(), "empty dataset",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("reason", err.Error()))
		resp := PreviewResponse{
			Status:  "empty",
			Message: "Tidak ada data untuk ditampilkan",
			Files:   len(uploads),
			Skipped: []services.SkippedFile{},
		}
		if result != nil {
			resp.Records = result.Records
			if len(result.Skipped) > 0 {
				resp.Skipped = result.Skipped
			}
		}
		render.JSON(w, r, resp)
		return
	}
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, newPreviewResponse(result))
}

// DownloadWorkbook handles POST /api/reports/xlsx
func (h *ReportHandler) DownloadWorkbook(w http.ResponseWriter, r *http.Request) {
	result, ok := h.build(w, r)
	if !ok {
		return
	}
	h.send(w, r, h.service.RenderWorkbook(r.Context(), result.Bundle), len(result.Skipped))
}

// DownloadDocument handles POST /api/reports/pdf
func (h *ReportHandler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	result, ok := h.build(w, r)
	if !ok {
		return
	}
	h.send(w, r, h.service.RenderDocument(r.Context(), result.Bundle), len(result.Skipped))
}

func (h *ReportHandler) send(w http.ResponseWriter, r *http.Request, art services.Artifact, skipped int) {
	if art.Err != nil {
		h.errorHandler.HandleError(w, r, art.Err)
		return
	}
	if err := writeAttachment(w, art, skipped); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to send artifact",
			slog.String("artifact", art.Name),
			slog.String("error", err.Error()))
	}
}
