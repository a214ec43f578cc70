//go:build basic

// Package integration contains integration tests for bikebin.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags basic ./integration
package integration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reportRow struct {
	Predictor string  `json:"predictor"`
	Instances int     `json:"instances"`
	Correct   int     `json:"correct"`
	Accuracy  float64 `json:"accuracy"`
	Matrix    [][]int `json:"matrix"`
}

// TestBikebinSQLiteVerification aggregates the fixture into a SQLite store,
// evaluates two baselines and checks the report against hand-computed counts.
func TestBikebinSQLiteVerification(t *testing.T) {
	raw := writeRawFixture(t)
	dbPath := filepath.Join(t.TempDir(), "bikebin.db")
	binsPath := filepath.Join(t.TempDir(), "bins.tsv")
	env := []string{"BIKEBIN_STORE_BACKEND=sqlite", "BIKEBIN_STORE_DB_CONNECT=" + dbPath}

	args := append([]string{"aggregate", "--output-file", binsPath}, fixtureArgs()...)
	out, err := runBikebinCommand(t, env, append(args, raw)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Observations accepted: 96")
	assert.Contains(t, out, "Bins emitted: 96 (stations: 2)")

	bins, err := os.ReadFile(binsPath)
	require.NoError(t, err)
	assert.Contains(t, string(bins), "0\t10\t0\t10\t20\t2\n")

	args = append([]string{"evaluate", "--predictors", "last-value,historic-mean", "--output", "json"}, fixtureArgs()...)
	out, err = runBikebinCommand(t, env, args...)
	require.NoError(t, err)

	var rows []reportRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "last-value", rows[0].Predictor)
	assert.Equal(t, "historic-mean", rows[1].Predictor)
	for _, row := range rows {
		// 22 targets per station on the 24 bin test day
		assert.Equal(t, 44, row.Instances, row.Predictor)
		assert.Equal(t, 44, row.Correct, row.Predictor)
		assert.InDelta(t, 1.0, row.Accuracy, 1e-9, row.Predictor)
		assert.Equal(t, 22, row.Matrix[2][2], row.Predictor)
		assert.Equal(t, 22, row.Matrix[3][3], row.Predictor)
	}

	// The bins file evaluates to the same report without the store
	args = append([]string{"evaluate", "--store-backend", "none", "--bins-file", binsPath, "--predictors", "last-value", "--output", "json"}, fixtureArgs()...)
	out, err = runBikebinCommand(t, nil, args...)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, 44, rows[0].Instances)

	out, err = runBikebinCommand(t, env, "bins", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Bins: 96")
	assert.Contains(t, out, "Stations: 2")

	out, err = runBikebinCommand(t, env, "runs", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Runs: 1")
	assert.Contains(t, out, "Total Results: 2")

	exportBase := filepath.Join(t.TempDir(), "history")
	_, err = runBikebinCommand(t, env, "runs", "export", "--output-file", exportBase)
	require.NoError(t, err)
	assert.FileExists(t, exportBase+".runs.parquet")
	assert.FileExists(t, exportBase+".results.parquet")

	_, err = runBikebinCommand(t, env, "bins", "clear")
	require.NoError(t, err)
	assert.NoFileExists(t, dbPath)
}

// TestBikebinValidation checks that invalid settings fail before any work.
func TestBikebinValidation(t *testing.T) {
	env := []string{"BIKEBIN_STORE_BACKEND=none"}
	tests := []struct {
		name string
		args []string
	}{
		{"missing start", []string{"evaluate"}},
		{"bad bin width", []string{"evaluate", "--start", windowStart, "--bin-minutes", "7"}},
		{"too few days", []string{"evaluate", "--start", windowStart, "--days", "1"}},
		{"unknown predictor", []string{"evaluate", "--start", windowStart, "--predictors", "oracle"}},
		{"no input files", []string{"aggregate", "--start", windowStart}},
		{"too many categories", []string{"evaluate", "--start", windowStart, "--categories", "1000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runBikebinCommand(t, env, tt.args...)
			assert.Error(t, err)
		})
	}
}
