package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"dapodiksync/internal/app"
	apperrors "dapodiksync/internal/errors"
	"dapodiksync/internal/exporter"
	"dapodiksync/internal/files"
	"dapodiksync/internal/services"
)

var (
	buildOut string
	buildCSV bool
)

// errArtifactsFailed makes the process exit non-zero after the surviving artifacts were written.
var errArtifactsFailed = errors.New("one or more artifacts failed")

// buildCmd aggregates master files into the report artifacts
var buildCmd = &cobra.Command{
	Use:   "build <files or directories...>",
	Short: "Build the xlsx and pdf reports from master files",
	Long: `Build reads the master sheet of every file, skips files that fail
validation, and writes Rekap_Progres_SYNC_DAPODIK.xlsx and .pdf to the
output directory. A failing artifact is reported and the other one is
still written.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&buildOut, "out", "o", "", "output directory (default: report.output_dir)")
	buildCmd.Flags().BoolVar(&buildCSV, "csv", false, "also write every table as CSV under <out>/csv")
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := buildOut
	if out == "" {
		out = cfg.Report.OutputDir
	}

	health := services.NewHealthService(app.BuildInfo(), out, logger)
	if status := health.ReadinessCheck(ctx); status.Status != "ready" {
		return fmt.Errorf("output directory %s is not usable: %v", out, status.Services["output"])
	}

	uploads, err := readInputs(args)
	if err != nil {
		return err
	}

	svc, err := services.NewReportService(cfg.Report, nil, logger)
	if err != nil {
		return err
	}

	result, err := svc.Build(ctx, uploads)
	if apperrors.IsType(err, apperrors.ErrTypeEmptyResult) {
		if result != nil {
			printSkipped(cmd.ErrOrStderr(), result.Skipped)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Tidak ada data untuk ditampilkan")
		return nil
	}
	if err != nil {
		return err
	}
	printSkipped(cmd.ErrOrStderr(), result.Skipped)

	output := files.NewManager(out, logger)
	artifacts := svc.Render(ctx, result.Bundle)
	failed := artifacts.Failed()
	for _, art := range []services.Artifact{artifacts.Workbook, artifacts.Document} {
		if art.Err != nil {
			logger.Error("artifact not written",
				slog.String("artifact", art.Name),
				slog.String("error", art.Err.Error()))
			continue
		}
		path, err := output.WriteFile(art.Name, art.Data)
		if err != nil {
			failed = append(failed, err)
			logger.Error("artifact not written",
				slog.String("artifact", art.Name),
				slog.String("error", err.Error()))
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	}

	if buildCSV {
		csv := exporter.NewCSVWriter(filepath.Join(out, "csv"), logger)
		for _, t := range result.Bundle.Tables() {
			path, err := csv.WriteTable(t)
			if err != nil {
				return fmt.Errorf("csv %s: %w", t.ID, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("%w: %w", errArtifactsFailed, errors.Join(failed...))
	}
	return nil
}
