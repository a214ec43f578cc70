package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/bikebin/internal/contract"
	"github.com/huangsam/bikebin/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOutput() schema.EvaluationOutput {
	return schema.EvaluationOutput{
		RunID: "run-1",
		Results: []schema.EvaluationResult{
			{
				Predictor:  schema.HistoricMeanPredictor,
				Name:       "Historic Mean Predictor",
				Categories: 2,
				Instances:  4,
				Correct:    3,
				Accuracy:   0.75,
				NoTarget:   1,
				Matrix:     [][]int{{2, 1}, {0, 1}},
			},
			{
				Predictor:  schema.OnlinePredictor,
				Name:       "Online Classifier",
				Categories: 2,
				NoModel:    5,
				Matrix:     [][]int{{0, 0}, {0, 0}},
			},
		},
		Bins:     96,
		Stations: 1,
		Duration: time.Second,
	}
}

func sampleConfig(output schema.OutputMode) *contract.Config {
	return &contract.Config{
		Output:       output,
		Precision:    4,
		Categories:   2,
		Workers:      2,
		StoreBackend: schema.SQLiteBackend,
	}
}

func TestWriteEvaluationText(t *testing.T) {
	cfg := sampleConfig(schema.TextOut)
	fmtFloat, intFmt := createFormatters(cfg.Precision)
	var buf bytes.Buffer
	require.NoError(t, writeEvaluationText(&buf, sampleOutput(), cfg, fmtFloat, intFmt))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Performance:\n"))
	assert.Contains(t, out, "Historic Mean Predictor:\n")
	assert.Contains(t, out, "Accuracy: 0.7500\n")
	assert.Contains(t, out, "Skipped: 0 without model, 1 without target")
	assert.Contains(t, out, "Online Classifier:\n"+noMatrixMessage+"\n")
	assert.Contains(t, out, "Run ID: run-1")
	assert.Contains(t, out, "Store backend: sqlite")
	assert.Less(t, strings.Index(out, "Historic Mean Predictor"), strings.Index(out, "Online Classifier"))
}

func TestWriteMatrixTableTotals(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeMatrixTable(&buf, [][]int{{7, 1}, {2, 30}}, "%d"))

	out := buf.String()
	for _, want := range []string{"7", "30", "8", "32", "9", "31", "40"} {
		assert.Contains(t, out, want)
	}
	assert.Contains(t, strings.ToLower(out), "total")
}

func TestWriteEvaluationTable(t *testing.T) {
	cfg := sampleConfig(schema.TableOut)
	fmtFloat, intFmt := createFormatters(cfg.Precision)
	var buf bytes.Buffer
	require.NoError(t, writeEvaluationTable(&buf, sampleOutput(), cfg, fmtFloat, intFmt))

	out := buf.String()
	assert.Contains(t, out, "Historic Mean Predictor")
	assert.Contains(t, out, "0.7500")
	assert.Contains(t, out, contract.GoodValue)
	assert.Contains(t, out, contract.NoDataValue)
	assert.Contains(t, out, noMatrixMessage)
}

func TestWriteEvaluationJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeEvaluationJSON(&buf, sampleOutput().Results))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "Historic Mean Predictor", decoded[0]["name"])
	assert.Equal(t, "historic-mean", decoded[0]["predictor"])
	assert.InDelta(t, 0.75, decoded[0]["accuracy"], 1e-9)
	assert.Equal(t, contract.GoodValue, decoded[0]["label"])
	assert.Equal(t, []any{[]any{2.0, 1.0}, []any{0.0, 1.0}}, decoded[0]["matrix"])
	assert.Equal(t, contract.NoDataValue, decoded[1]["label"])
}

func TestWriteEvaluationCSV(t *testing.T) {
	fmtFloat, intFmt := createFormatters(2)
	var buf bytes.Buffer
	require.NoError(t, writeEvaluationCSV(&buf, sampleOutput().Results, 2, fmtFloat, intFmt))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	header := records[0]
	assert.Equal(t, "predictor", header[0])
	assert.Equal(t, []string{"m_0_0", "m_0_1", "m_1_0", "m_1_1"}, header[len(header)-4:])

	row := records[1]
	assert.Equal(t, "historic-mean", row[0])
	assert.Equal(t, "0.75", row[5])
	assert.Equal(t, []string{"2", "1", "0", "1"}, row[len(row)-4:])
}

func TestMatrixCellOutOfRange(t *testing.T) {
	assert.Equal(t, 0, matrixCell(nil, 0, 0))
	assert.Equal(t, 0, matrixCell([][]int{{1}}, 0, 1))
	assert.Equal(t, 1, matrixCell([][]int{{1}}, 0, 0))
}

func TestWriteEvaluationResultsToFile(t *testing.T) {
	tests := []struct {
		name   string
		output schema.OutputMode
		check  func(t *testing.T, content string)
	}{
		{"text", schema.TextOut, func(t *testing.T, content string) { assert.Contains(t, content, "Performance:") }},
		{"table", schema.TableOut, func(t *testing.T, content string) { assert.Contains(t, content, "Online Classifier") }},
		{"json", schema.JSONOut, func(t *testing.T, content string) { assert.True(t, json.Valid([]byte(content))) }},
		{"csv", schema.CSVOut, func(t *testing.T, content string) { assert.True(t, strings.HasPrefix(content, "predictor,name")) }},
		{"parquet", schema.ParquetOut, func(t *testing.T, content string) { assert.True(t, strings.HasPrefix(content, "PAR1")) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := sampleConfig(tt.output)
			cfg.OutputFile = filepath.Join(t.TempDir(), "report."+tt.name)
			require.NoError(t, WriteEvaluationResults(sampleOutput(), cfg))

			content, err := os.ReadFile(cfg.OutputFile)
			require.NoError(t, err)
			tt.check(t, string(content))
		})
	}
}

func TestWriteAggregateSummary(t *testing.T) {
	summary := schema.AggregateSummary{
		Accepted:    10,
		Dropped:     map[schema.DropReason]int{schema.DropMalformed: 2, schema.DropInvalid: 1, schema.DropOutOfWindow: 0},
		Bins:        4,
		EmptyBins:   1,
		Stations:    2,
		SourceFiles: []string{"a.txt", "b.txt"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAggregateSummary(&buf, summary, sampleConfig(schema.TextOut)))
	out := buf.String()
	assert.Contains(t, out, "Source files: a.txt, b.txt")
	assert.Contains(t, out, "Observations accepted: 10")
	assert.Contains(t, out, "Observations dropped: 3 (invalid: 1, malformed: 2)")
	assert.Contains(t, out, "Bins emitted: 4 (stations: 2)")
	assert.Contains(t, out, "Bins dropped (empty size): 1")

	buf.Reset()
	require.NoError(t, WriteAggregateSummary(&buf, summary, sampleConfig(schema.JSONOut)))
	var decoded schema.AggregateSummary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 10, decoded.Accepted)
	assert.Equal(t, 2, decoded.Dropped[schema.DropMalformed])
}
