package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/bikebin/internal/contract"
	"github.com/huangsam/bikebin/internal/parquet"
)

// ExecuteBinExport writes every stored bin to outputFile as Parquet.
func ExecuteBinExport(ctx context.Context, mgr contract.StoreManager, outputFile string, w io.Writer) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	bins, err := mgr.GetBinStore().LoadBins(ctx)
	if err != nil {
		return fmt.Errorf("failed to load bins: %w", err)
	}
	if len(bins) == 0 {
		return errors.New("no bins found to export")
	}

	if err := parquet.WriteBinsParquet(parquet.ConvertBins(bins), outputFile); err != nil {
		return fmt.Errorf("failed to write bins: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d bins to: %s\n", len(bins), outputFile)
	return nil
}

// ExecuteRunExport writes every run and result to "<outputFile>.runs.parquet"
// and "<outputFile>.results.parquet".
func ExecuteRunExport(mgr contract.StoreManager, outputFile string, w io.Writer) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	store := mgr.GetRunStore()
	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get run status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no evaluation runs found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total results: %d\n", status.TotalResults)

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	results, err := store.GetAllResults()
	if err != nil {
		return fmt.Errorf("failed to retrieve run results: %w", err)
	}

	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(parquet.ConvertRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(runs), runsFile)

	resultsFile := outputFile + ".results.parquet"
	if err := parquet.WriteRunResultsParquet(parquet.ConvertRunResultRecords(results), resultsFile); err != nil {
		return fmt.Errorf("failed to write run results: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d results to: %s\n", len(results), resultsFile)

	_, _ = fmt.Fprintln(w, "\nExport complete! The Parquet files can be used with:")
	_, _ = fmt.Fprintln(w, "  - Apache Spark")
	_, _ = fmt.Fprintln(w, "  - Pandas (via pyarrow)")
	_, _ = fmt.Fprintln(w, "  - DuckDB")
	return nil
}
