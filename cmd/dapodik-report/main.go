// Command dapodik-report builds the DAPODIK SYNC progress report from master exports,
// merges workbooks, and serves the dashboard API.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"dapodiksync/internal/config"
	"dapodiksync/internal/infrastructure"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "dapodik-report",
	Short: "DAPODIK SYNC progress reports",
	Long: `dapodik-report turns DAPODIK master exports (xlsx or csv) into the
Rekap_Progres_SYNC_DAPODIK workbook and document.

Available commands:
  build - aggregate master files into xlsx, pdf and optional csv tables
  merge - stack the same sheet of several workbooks into hasil_merge.xlsx
  serve - run the dashboard HTTP API`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}
		logger, err = infrastructure.InitializeLogger(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = infrastructure.CloseLogFile()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (default: $DAPODIK_CONFIG, config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
