package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"dapodiksync/internal/config"
	"dapodiksync/internal/dataprocessing"
	apperrors "dapodiksync/internal/errors"
	"dapodiksync/internal/exporter"
	"dapodiksync/internal/infrastructure"
)

const (
	// SourceFileColumn names the column that records which upload a merged row came from.
	SourceFileColumn = "__source_file"
	// MergedName is the download name of the merged workbook.
	MergedName = "hasil_merge.xlsx"
)

// MergeResult is the merged workbook and what went into it.
type MergeResult struct {
	Artifact
	Header  []string
	Files   int
	Rows    int
	Skipped []SkippedFile
}

// MergeService stacks the same sheet of several workbooks into one
type MergeService struct {
	cfg     config.ReportConfig
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
	logger  *slog.Logger
}

// NewMergeService creates a merge service
func NewMergeService(cfg config.ReportConfig, providers *infrastructure.OTelProviders, logger *slog.Logger) (*MergeService, error) {
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
	return &MergeService{
		cfg:     cfg,
		tracer:  providers.Tracer,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "merge_service")),
	}, nil
}

// Merge reads the configured sheet of every upload and concatenates the rows. Columns are the
// union of all headers in first-seen order; each upload contributes its own columns followed by
// the source file column. Unreadable uploads are skipped.
func (s *MergeService) Merge(ctx context.Context, uploads []Upload) (result *MergeResult, err error) {
	ctx, span := s.tracer.Start(ctx, "merge.workbooks",
		trace.WithAttributes(attribute.Int("merge.files", len(uploads))))
	defer func() {
		infrastructure.RecordError(ctx, err)
		span.End()
	}()

	if len(uploads) == 0 {
		return nil, ErrNoUploads
	}

	tables := make([]*dataprocessing.Table, len(uploads))
	readErrs := make([]error, len(uploads))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.cfg.ParseWorkers))
	for i, up := range uploads {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tables[i], readErrs[i] = dataprocessing.ReadUpload(up.Name, up.Data, s.cfg.MergeSheet)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result = &MergeResult{
		Artifact: Artifact{Name: MergedName, ContentType: ContentTypeXLSX},
		Files:    len(uploads),
	}
	columns := make(map[string]int)
	addColumn := func(name string) int {
		if i, ok := columns[name]; ok {
			return i
		}
		columns[name] = len(result.Header)
		result.Header = append(result.Header, name)
		return columns[name]
	}

	var rows [][]string
	var failed []error
	for i, t := range tables {
		if readErrs[i] != nil {
			failed = append(failed, readErrs[i])
			result.Skipped = append(result.Skipped, SkippedFile{
				Name:   uploads[i].Name,
				Type:   string(apperrors.TypeOf(readErrs[i])),
				Reason: readErrs[i].Error(),
			})
			s.metrics.RecordMerged(ctx, readErrs[i])
			s.logger.WarnContext(ctx, "Failed to read workbook for merge",
				slog.String("file", uploads[i].Name),
				slog.String("error", readErrs[i].Error()))
			continue
		}

		positions := make([]int, len(t.Header))
		for c, name := range t.Header {
			positions[c] = addColumn(name)
		}
		sourcePos := addColumn(SourceFileColumn)

		for _, src := range t.Rows {
			row := make([]string, len(result.Header))
			for c, v := range src {
				if c < len(positions) {
					row[positions[c]] = v
				}
			}
			row[sourcePos] = uploads[i].Name
			rows = append(rows, row)
		}
		s.metrics.RecordMerged(ctx, nil)
	}

	if len(failed) == len(uploads) {
		return nil, fmt.Errorf("%w: %w", ErrNoUsableFiles, errors.Join(failed...))
	}

	// rows from earlier uploads are padded to the final width
	for i, row := range rows {
		if len(row) < len(result.Header) {
			rows[i] = append(row, make([]string, len(result.Header)-len(row))...)
		}
	}

	data, err := exporter.MergedWorkbook(s.cfg.MergeSheet, result.Header, rows)
	if err != nil {
		return nil, apperrors.NewRenderError(MergedName, err)
	}
	result.Data = data
	result.Rows = len(rows)

	span.SetAttributes(attribute.Int("merge.rows", result.Rows))
	s.logger.InfoContext(ctx, "Workbooks merged",
		slog.Int("files", result.Files-len(result.Skipped)),
		slog.Int("skipped", len(result.Skipped)),
		slog.Int("rows", result.Rows),
		slog.Int("columns", len(result.Header)))
	return result, nil
}
