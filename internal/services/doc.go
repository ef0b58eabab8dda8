// Package services implements the report pipeline behind the HTTP handlers and the CLI.
//
// ReportService turns uploads into a report bundle (parse, normalize, split, aggregate,
// reshape) and renders the bundle into the workbook and the PDF. MergeService stacks
// several workbooks into one. HealthService answers the health endpoints.
//
// Services hold configuration and collaborators only. Every call builds its own state,
// so one instance serves concurrent requests:
//
//	svc, err := services.NewReportService(cfg.Report, providers, logger)
//	result, err := svc.Build(ctx, uploads)
//	artifacts := svc.Render(ctx, result.Bundle)
package services
