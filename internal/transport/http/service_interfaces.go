package http

import (
	"context"

	"dapodiksync/internal/report"
	"dapodiksync/internal/services"
)

// ReportServiceInterface defines the report pipeline used by ReportHandler
type ReportServiceInterface interface {
	Build(ctx context.Context, uploads []services.Upload) (*services.BuildResult, error)
	RenderWorkbook(ctx context.Context, b *report.Bundle) services.Artifact
	RenderDocument(ctx context.Context, b *report.Bundle) services.Artifact
}

// MergeServiceInterface defines the workbook merge used by MergeHandler
type MergeServiceInterface interface {
	Merge(ctx context.Context, uploads []services.Upload) (*services.MergeResult, error)
}
