package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/bikebin/internal/contract"
	"github.com/huangsam/bikebin/internal/store"
	"github.com/spf13/cobra"
)

// runsCmd focused on evaluation history.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect and export evaluation history",
	Long: `Every "bikebin evaluate" records a run with its configuration and one
result per predictor, including the confusion matrix. This enables
comparing predictors and parameters across runs.

Subcommands:
  status  - Show evaluation history statistics
  export  - Export runs and results to Parquet`,
}

// runsStatusCmd shows evaluation history status.
var runsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display evaluation history statistics",
	Long: `Show the number of recorded runs and results, the oldest and latest run
and the table sizes.

Examples:
  bikebin runs status`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runs := storeManager.GetRunStore()
		if runs == nil {
			contract.LogFatal("Failed to get run status", fmt.Errorf("run store is not initialized"))
		}
		status, err := runs.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get run status", err)
		}
		store.PrintRunStatus(os.Stdout, status)
	},
}

// runsExportCmd exports runs and results to Parquet files.
var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export evaluation runs and results to Parquet",
	Long: `Export the evaluation history to two Parquet files:
  <output-file>.runs.parquet     - one row per run
  <output-file>.results.parquet  - one row per predictor result

Requires: --output-file parameter

Examples:
  bikebin runs export --output-file history
  duckdb -c "SELECT predictor, avg(accuracy) FROM read_parquet('history.results.parquet') GROUP BY 1"`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := store.ExecuteRunExport(storeManager, cfg.OutputFile, os.Stdout); err != nil {
			contract.LogFatal("Failed to export runs", err)
		}
	},
}
