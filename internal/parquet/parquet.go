// Package parquet provides data structures and functions for exporting bikebin
// bins and evaluation results to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/bikebin/schema"
	"github.com/parquet-go/parquet-go"
)

// Bin is one bin aggregate.
// This struct maps to the bin_aggregates database table.
type Bin struct {
	DayID         int32   `parquet:"day_id,snappy"`
	StationID     int32   `parquet:"station_id,snappy"`
	DailyBin      int32   `parquet:"daily_bin,snappy"`
	Average       float64 `parquet:"average,snappy"`
	StationSize   int32   `parquet:"station_size,snappy"`
	CategoryLabel int32   `parquet:"category_label,snappy"`
}

// Run is one evaluation run.
// This struct maps to the runs database table.
type Run struct {
	// RunID is the uuid of the run
	RunID string `parquet:"run_id,snappy"`

	// StartedAt is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartedAt time.Time `parquet:"started_at,snappy"`

	// FinishedAt is when the run completed (nullable)
	FinishedAt *time.Time `parquet:"finished_at,optional,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// RunResult is the outcome of one predictor in a run.
// This struct maps to the run_results database table.
type RunResult struct {
	RunID     string  `parquet:"run_id,snappy"`
	Predictor string  `parquet:"predictor,snappy"`
	Total     int64   `parquet:"total,snappy"`
	Correct   int64   `parquet:"correct,snappy"`
	Accuracy  float64 `parquet:"accuracy,snappy"`

	// Matrix is the JSON-encoded confusion matrix, rows = actual
	Matrix string `parquet:"matrix,snappy"`
}

// Evaluation is one predictor row of an evaluation report.
type Evaluation struct {
	Predictor  string  `parquet:"predictor,snappy"`
	Name       string  `parquet:"name,snappy"`
	Categories int32   `parquet:"categories,snappy"`
	Instances  int64   `parquet:"instances,snappy"`
	Correct    int64   `parquet:"correct,snappy"`
	Accuracy   float64 `parquet:"accuracy,snappy"`
	NoModel    int64   `parquet:"no_model,snappy"`
	NoTarget   int64   `parquet:"no_target,snappy"`
	Matrix     string  `parquet:"matrix,snappy"`
}

// writeRows writes rows to a new Parquet file whose schema is derived from
// the struct tags of T.
func writeRows[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return file.Close()
}

// WriteBinsParquet writes bins to a Parquet file.
func WriteBinsParquet(data []Bin, outputPath string) error {
	return writeRows(data, outputPath)
}

// WriteRunsParquet writes runs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeRows(data, outputPath)
}

// WriteRunResultsParquet writes run results to a Parquet file.
func WriteRunResultsParquet(data []RunResult, outputPath string) error {
	return writeRows(data, outputPath)
}

// WriteEvaluationsParquet writes an evaluation report to a Parquet file.
func WriteEvaluationsParquet(data []Evaluation, outputPath string) error {
	return writeRows(data, outputPath)
}

// ConvertBins converts schema.BinAggregate to Bin for Parquet export.
func ConvertBins(bins []schema.BinAggregate) []Bin {
	result := make([]Bin, len(bins))
	for i, b := range bins {
		result[i] = Bin{
			DayID:         int32(b.DayID),
			StationID:     int32(b.StationID),
			DailyBin:      int32(b.DailyBinID),
			Average:       b.Average,
			StationSize:   int32(b.StationSize),
			CategoryLabel: int32(b.CategoryLabel),
		}
	}
	return result
}

// ConvertRunRecords converts schema.RunRecord to Run for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		result[i] = Run{
			RunID:        record.RunID,
			StartedAt:    record.StartedAt,
			FinishedAt:   record.FinishedAt,
			ConfigParams: record.ConfigParams,
		}
	}
	return result
}

// ConvertRunResultRecords converts schema.RunResultRecord to RunResult for Parquet export.
func ConvertRunResultRecords(records []schema.RunResultRecord) []RunResult {
	result := make([]RunResult, len(records))
	for i, record := range records {
		result[i] = RunResult(record)
	}
	return result
}

// ConvertEvaluationResults converts schema.EvaluationResult to Evaluation for Parquet export.
func ConvertEvaluationResults(results []schema.EvaluationResult) ([]Evaluation, error) {
	rows := make([]Evaluation, len(results))
	for i, r := range results {
		matrix, err := json.Marshal(r.Matrix)
		if err != nil {
			return nil, fmt.Errorf("failed to encode matrix of %s: %w", r.Predictor, err)
		}
		rows[i] = Evaluation{
			Predictor:  string(r.Predictor),
			Name:       r.Name,
			Categories: int32(r.Categories),
			Instances:  int64(r.Instances),
			Correct:    int64(r.Correct),
			Accuracy:   r.Accuracy,
			NoModel:    int64(r.NoModel),
			NoTarget:   int64(r.NoTarget),
			Matrix:     string(matrix),
		}
	}
	return rows, nil
}
