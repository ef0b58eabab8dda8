package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dapodiksync/internal/files"
	"dapodiksync/internal/services"
)

var mergeOut string

// mergeCmd stacks workbooks into one
var mergeCmd = &cobra.Command{
	Use:   "merge <files or directories...>",
	Short: "Merge the same sheet of several workbooks into hasil_merge.xlsx",
	Long: `Merge reads report.merge_sheet from every workbook and concatenates the
rows. Columns are the union of all headers, and a __source_file column
records where each row came from.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeOut, "out", "o", "", "output directory (default: report.output_dir)")
}

func runMerge(cmd *cobra.Command, args []string) error {
	out := mergeOut
	if out == "" {
		out = cfg.Report.OutputDir
	}

	uploads, err := readInputs(args)
	if err != nil {
		return err
	}

	svc, err := services.NewMergeService(cfg.Report, nil, logger)
	if err != nil {
		return err
	}
	result, err := svc.Merge(cmd.Context(), uploads)
	if err != nil {
		return err
	}
	printSkipped(cmd.ErrOrStderr(), result.Skipped)

	path, err := files.NewManager(out, logger).WriteFile(result.Name, result.Data)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d rows)\n", path, result.Rows)
	return nil
}
