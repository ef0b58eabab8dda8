package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"dapodiksync/internal/config"
	"dapodiksync/internal/dataprocessing"
	apperrors "dapodiksync/internal/errors"
	"dapodiksync/internal/exporter"
	"dapodiksync/internal/infrastructure"
	"dapodiksync/internal/report"
)

// Artifact content types.
const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
)

// Upload is one uploaded file held in memory.
type Upload struct {
	Name string
	Data []byte
}

// SkippedFile is an upload dropped from the pipeline and why.
type SkippedFile struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// BuildResult is the bundle built from one set of uploads.
type BuildResult struct {
	Bundle  *report.Bundle
	Files   int
	Records int
	Skipped []SkippedFile
}

// Artifact is one rendered output. Err is set instead of Data when its writer failed.
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
	Err         error
}

// Artifacts holds both renderings of a bundle. Each carries its own error.
type Artifacts struct {
	Workbook Artifact
	Document Artifact
}

// Failed returns the errors of every failed artifact.
func (a *Artifacts) Failed() []error {
	var errs []error
	for _, art := range []Artifact{a.Workbook, a.Document} {
		if art.Err != nil {
			errs = append(errs, art.Err)
		}
	}
	return errs
}

// ReportService builds and renders report bundles
type ReportService struct {
	cfg        config.ReportConfig
	normalizer *dataprocessing.Normalizer
	workbook   *exporter.WorkbookWriter
	document   *exporter.DocumentWriter
	tracer     trace.Tracer
	metrics    *infrastructure.PipelineMetrics
	logger     *slog.Logger
}

// NewReportService creates a report service. providers may be nil, in which case nothing is traced.
func NewReportService(cfg config.ReportConfig, providers *infrastructure.OTelProviders, logger *slog.Logger) (*ReportService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if providers == nil {
		providers = infrastructure.NoopProviders(logger)
	}

	metrics, err := infrastructure.NewPipelineMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	logger = logger.With(slog.String("component", "report_service"))
	logger.Info("ReportService initialized",
		slog.String("sheet", cfg.Sheet),
		slog.String("deep_dive_level", cfg.DeepDiveLevel),
		slog.Any("excluded_levels", cfg.ExcludedLevels),
		slog.Int("parse_workers", cfg.ParseWorkers))

	return &ReportService{
		cfg:        cfg,
		normalizer: dataprocessing.NewNormalizer(cfg, logger),
		workbook:   exporter.NewWorkbookWriter(logger),
		document:   exporter.NewDocumentWriter(logger, exporter.DocumentOptions{Compress: true}),
		tracer:     providers.Tracer,
		metrics:    metrics,
		logger:     logger,
	}, nil
}

// WorkbookName is the download name of the xlsx artifact
func (s *ReportService) WorkbookName() string { return s.cfg.BaseName + ".xlsx" }

// DocumentName is the download name of the pdf artifact
func (s *ReportService) DocumentName() string { return s.cfg.BaseName + ".pdf" }

type parsedUpload struct {
	records []dataprocessing.NormalizedRecord
	err     error
}

// Build parses every upload, skips the ones that fail and builds a fresh bundle from the rest.
// It fails with the joined per-file errors when no upload survives, and with an EMPTY_RESULT
// error when the surviving rows leave the all-levels dataset empty. The EMPTY_RESULT error comes
// with a result that carries Files, Records and Skipped but no Bundle.
func (s *ReportService) Build(ctx context.Context, uploads []Upload) (result *BuildResult, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "report.build",
		trace.WithAttributes(attribute.Int("report.files", len(uploads))))
	defer func() {
		infrastructure.RecordError(ctx, err)
		span.End()
		s.metrics.RecordBuild(ctx, time.Since(start), err)
	}()

	if len(uploads) == 0 {
		return nil, ErrNoUploads
	}

	parsed := make([]parsedUpload, len(uploads))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parseWorkers())
	for i, up := range uploads {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			parsed[i].records, parsed[i].err = s.parse(gctx, up)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result = &BuildResult{Files: len(uploads)}
	var records []dataprocessing.NormalizedRecord
	var fileErrs []error
	for i, p := range parsed {
		if p.err != nil {
			fileErrs = append(fileErrs, p.err)
			result.Skipped = append(result.Skipped, SkippedFile{
				Name:   uploads[i].Name,
				Type:   string(apperrors.TypeOf(p.err)),
				Reason: p.err.Error(),
			})
			s.metrics.RecordSkipped(ctx, string(apperrors.TypeOf(p.err)))
			s.logger.WarnContext(ctx, "Skipping upload",
				slog.String("file", uploads[i].Name),
				slog.String("error", p.err.Error()))
			continue
		}
		records = append(records, p.records...)
	}
	if len(fileErrs) == len(uploads) {
		return nil, fmt.Errorf("%w: %w", ErrNoUsableFiles, errors.Join(fileErrs...))
	}

	ds := s.normalizer.Split(records)
	result.Records = len(records)
	s.metrics.RecordRecords(ctx, "all_levels", len(ds.AllLevels))
	s.metrics.RecordRecords(ctx, "deep_dive", len(ds.DeepDive))
	span.SetAttributes(
		attribute.Int("report.records", len(records)),
		attribute.Int("report.all_levels", len(ds.AllLevels)),
		attribute.Int("report.deep_dive", len(ds.DeepDive)),
		attribute.Int("report.skipped", len(result.Skipped)))

	if len(ds.AllLevels) == 0 {
		return result, apperrors.NewEmptyResultError("no rows left after excluding levels").
			WithContext("records", len(records)).
			WithContext("excluded_levels", s.cfg.ExcludedLevels)
	}

	_, aggSpan := s.tracer.Start(ctx, "report.aggregate")
	result.Bundle = report.Build(ds, records, report.BuildOptions{
		Regions:    s.cfg.Regions,
		LevelOrder: s.cfg.LevelOrder,
	})
	aggSpan.End()

	s.logger.InfoContext(ctx, "Report bundle built",
		slog.Int("files", result.Files),
		slog.Int("skipped", len(result.Skipped)),
		slog.Int("records", result.Records),
		slog.Int("all_levels", len(ds.AllLevels)),
		slog.Int("deep_dive", len(ds.DeepDive)),
		slog.Duration("duration", time.Since(start)))
	return result, nil
}

func (s *ReportService) parseWorkers() int {
	if s.cfg.ParseWorkers < 1 {
		return 1
	}
	return s.cfg.ParseWorkers
}

func (s *ReportService) parse(ctx context.Context, up Upload) ([]dataprocessing.NormalizedRecord, error) {
	_, span := s.tracer.Start(ctx, "report.parse",
		trace.WithAttributes(
			attribute.String("file.name", up.Name),
			attribute.Int("file.size", len(up.Data))))
	defer span.End()

	table, err := dataprocessing.ReadUpload(up.Name, up.Data, s.cfg.Sheet)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	records, err := s.normalizer.Normalize(table)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("file.records", len(records)))
	return records, nil
}

// Render runs both writers concurrently. A failing writer never affects the other artifact.
func (s *ReportService) Render(ctx context.Context, b *report.Bundle) *Artifacts {
	ctx, span := s.tracer.Start(ctx, "report.render")
	defer span.End()

	out := &Artifacts{}
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		out.Workbook = s.RenderWorkbook(ctx, b)
	}()
	go func() {
		defer wg.Done()
		out.Document = s.RenderDocument(ctx, b)
	}()
	wg.Wait()

	if errs := out.Failed(); len(errs) > 0 {
		infrastructure.RecordError(ctx, errors.Join(errs...))
	}
	return out
}

// RenderWorkbook renders only the xlsx artifact
func (s *ReportService) RenderWorkbook(ctx context.Context, b *report.Bundle) Artifact {
	return s.render(ctx, "xlsx", s.WorkbookName(), ContentTypeXLSX, b, s.workbook.Write)
}

// RenderDocument renders only the pdf artifact
func (s *ReportService) RenderDocument(ctx context.Context, b *report.Bundle) Artifact {
	return s.render(ctx, "pdf", s.DocumentName(), ContentTypePDF, b, s.document.Write)
}

func (s *ReportService) render(ctx context.Context, format, name, contentType string, b *report.Bundle, write func(*report.Bundle) ([]byte, error)) Artifact {
	ctx, span := s.tracer.Start(ctx, "report.render."+format)
	defer span.End()

	art := Artifact{Name: name, ContentType: contentType}
	data, err := s.safeWrite(ctx, b, write)
	if err != nil {
		art.Err = apperrors.NewRenderError(name, err)
		infrastructure.RecordError(ctx, art.Err)
		s.logger.ErrorContext(ctx, "Artifact failed",
			slog.String("artifact", name),
			slog.String("error", err.Error()))
	} else {
		art.Data = data
		span.SetAttributes(attribute.Int("artifact.bytes", len(data)))
		s.logger.InfoContext(ctx, "Artifact rendered",
			slog.String("artifact", name),
			slog.Int("bytes", len(data)))
	}
	s.metrics.RecordArtifact(ctx, format, len(data), err)
	return art
}

func (s *ReportService) safeWrite(ctx context.Context, b *report.Bundle, write func(*report.Bundle) ([]byte, error)) (data []byte, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if b == nil {
		return nil, errors.New("nil bundle")
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "Writer panicked",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			data, err = nil, fmt.Errorf("writer panic: %v", r)
		}
	}()
	return write(b)
}
