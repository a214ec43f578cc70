package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/bikebin/internal/contract"
	"github.com/huangsam/bikebin/internal/parquet"
	"github.com/huangsam/bikebin/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// writeEvaluationText writes the "Performance:" report, one block per predictor.
func writeEvaluationText(w io.Writer, output schema.EvaluationOutput, cfg *contract.Config, fmtFloat func(float64) string, intFmt string) error {
	if _, err := fmt.Fprintln(w, "Performance:"); err != nil {
		return err
	}
	for _, r := range output.Results {
		if err := writeResultBlock(w, r, fmtFloat, intFmt); err != nil {
			return err
		}
	}
	return writeEvaluationFooter(w, output, cfg)
}

// writeResultBlock writes the name, matrix and accuracy of one predictor.
func writeResultBlock(w io.Writer, r schema.EvaluationResult, fmtFloat func(float64) string, intFmt string) error {
	if _, err := fmt.Fprintf(w, "%s:\n", r.Name); err != nil {
		return err
	}
	if r.Instances == 0 {
		_, err := fmt.Fprintln(w, noMatrixMessage)
		return err
	}
	if err := writeMatrixTable(w, r.Matrix, intFmt); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Accuracy: %s\n", fmtFloat(r.Accuracy)); err != nil {
		return err
	}
	if r.NoModel > 0 || r.NoTarget > 0 {
		if _, err := fmt.Fprintf(w, "Skipped: "+intFmt+" without model, "+intFmt+" without target\n", r.NoModel, r.NoTarget); err != nil {
			return err
		}
	}
	return nil
}

// writeEvaluationFooter writes the run summary line.
func writeEvaluationFooter(w io.Writer, output schema.EvaluationOutput, cfg *contract.Config) error {
	if output.RunID != "" {
		if _, err := fmt.Fprintf(w, "Run ID: %s\n", output.RunID); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Evaluated %d bins across %d stations in %v with %d workers. Store backend: %s\n",
		output.Bins, output.Stations, output.Duration, cfg.Workers, cfg.StoreBackend)
	return err
}

// writeEvaluationTable writes a summary table followed by the per-predictor matrices.
func writeEvaluationTable(w io.Writer, output schema.EvaluationOutput, cfg *contract.Config, fmtFloat func(float64) string, intFmt string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Predictor", "Instances", "Correct", "Accuracy", "No Model", "No Target", "Label"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, r := range output.Results {
		label := contract.GetPlainLabel(r.Accuracy, r.Instances)
		if cfg.UseColors {
			label = contract.GetColorLabel(r.Accuracy, r.Instances)
		}
		data = append(data, []string{
			r.Name,
			fmt.Sprintf(intFmt, r.Instances),
			fmt.Sprintf(intFmt, r.Correct),
			fmtFloat(r.Accuracy),
			fmt.Sprintf(intFmt, r.NoModel),
			fmt.Sprintf(intFmt, r.NoTarget),
			label,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	for _, r := range output.Results {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		if err := writeResultBlock(w, r, fmtFloat, intFmt); err != nil {
			return err
		}
	}
	return writeEvaluationFooter(w, output, cfg)
}

// writeEvaluationJSON writes the results in JSON format.
func writeEvaluationJSON(w io.Writer, results []schema.EvaluationResult) error {
	type JSONEvaluationResult struct {
		Label string `json:"label"`
		schema.EvaluationResult
	}

	output := make([]JSONEvaluationResult, len(results))
	for i, r := range results {
		output[i] = JSONEvaluationResult{
			Label:            contract.GetPlainLabel(r.Accuracy, r.Instances),
			EvaluationResult: r,
		}
	}
	return writeJSON(w, output)
}

// writeEvaluationCSV writes one row per predictor with the matrix flattened
// into m_<actual>_<predicted> columns.
func writeEvaluationCSV(w io.Writer, results []schema.EvaluationResult, categories int, fmtFloat func(float64) string, intFmt string) error {
	header := []string{
		"predictor",
		"name",
		"categories",
		"instances",
		"correct",
		"accuracy",
		"label",
		"no_model",
		"no_target",
	}
	for i := range categories {
		for j := range categories {
			header = append(header, fmt.Sprintf("m_%d_%d", i, j))
		}
	}

	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range results {
			row := []string{
				string(r.Predictor),
				r.Name,
				strconv.Itoa(r.Categories),
				fmt.Sprintf(intFmt, r.Instances),
				fmt.Sprintf(intFmt, r.Correct),
				fmtFloat(r.Accuracy),
				contract.GetPlainLabel(r.Accuracy, r.Instances),
				fmt.Sprintf(intFmt, r.NoModel),
				fmt.Sprintf(intFmt, r.NoTarget),
			}
			for i := range categories {
				for j := range categories {
					row = append(row, fmt.Sprintf(intFmt, matrixCell(r.Matrix, i, j)))
				}
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// matrixCell returns matrix[i][j], or 0 outside the matrix.
func matrixCell(matrix [][]int, i, j int) int {
	if i < len(matrix) && j < len(matrix[i]) {
		return matrix[i][j]
	}
	return 0
}

// writeEvaluationParquet writes one Parquet row per predictor.
func writeEvaluationParquet(results []schema.EvaluationResult, outputFile string) error {
	rows, err := parquet.ConvertEvaluationResults(results)
	if err != nil {
		return err
	}
	return parquet.WriteEvaluationsParquet(rows, outputFile)
}
