// Package outwriter has output and writer logic.
package outwriter

import (
	"fmt"
	"io"
	"os"

	"github.com/huangsam/bikebin/internal/contract"
	"github.com/huangsam/bikebin/schema"
)

// WriteEvaluationResults outputs the evaluation report, dispatching based on the output format configured.
func WriteEvaluationResults(output schema.EvaluationOutput, cfg *contract.Config) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeEvaluationJSON(w, output.Results)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeEvaluationCSV(w, output.Results, cfg.Categories, fmtFloat, intFmt)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeEvaluationParquet(output.Results, cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		fmt.Fprintf(os.Stderr, "💾 Wrote Parquet to %s\n", cfg.OutputFile)
	case schema.TableOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeEvaluationTable(w, output, cfg, fmtFloat, intFmt)
		}, "Wrote table")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeEvaluationText(w, output, cfg, fmtFloat, intFmt)
		}, "Wrote text")
	}
	return nil
}
