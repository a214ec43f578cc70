package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/huangsam/bikebin/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStore_NoneBackend(t *testing.T) {
	store, err := NewRunStore(schema.NoneBackend, "")
	require.NoError(t, err)

	runID, err := store.BeginRun(time.Now(), map[string]any{"test": "value"})
	assert.NoError(t, err)
	assert.NotEmpty(t, runID)

	assert.NoError(t, store.RecordResult(runID, schema.EvaluationResult{Predictor: schema.OnlinePredictor}))
	assert.NoError(t, store.EndRun(runID, time.Now()))

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestRunStore_SQLiteLifecycle(t *testing.T) {
	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	started := time.Date(2013, 10, 15, 8, 0, 0, 0, time.UTC)
	runID, err := store.BeginRun(started, map[string]any{"horizon": 2, "categories": 4})
	require.NoError(t, err)
	assert.Len(t, runID, 36)

	result := schema.EvaluationResult{
		Predictor:  schema.HistoricMeanPredictor,
		Categories: 2,
		Instances:  5,
		Correct:    4,
		Accuracy:   0.8,
		Matrix:     [][]int{{3, 1}, {0, 1}},
	}
	require.NoError(t, store.RecordResult(runID, result))
	require.NoError(t, store.EndRun(runID, started.Add(time.Minute)))

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].RunID)
	assert.True(t, started.Equal(runs[0].StartedAt))
	require.NotNil(t, runs[0].FinishedAt)
	assert.True(t, started.Add(time.Minute).Equal(*runs[0].FinishedAt))
	require.NotNil(t, runs[0].ConfigParams)
	assert.JSONEq(t, `{"horizon":2,"categories":4}`, *runs[0].ConfigParams)

	results, err := store.GetAllResults()
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "historic-mean", results[0].Predictor)
	assert.Equal(t, int64(5), results[0].Total)
	assert.Equal(t, int64(4), results[0].Correct)
	assert.InDelta(t, 0.8, results[0].Accuracy, 1e-9)

	var matrix [][]int
	require.NoError(t, json.Unmarshal([]byte(results[0].Matrix), &matrix))
	assert.Equal(t, result.Matrix, matrix)
}

func TestRunStore_DuplicateResultRejected(t *testing.T) {
	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	runID, err := store.BeginRun(time.Now(), nil)
	require.NoError(t, err)
	result := schema.EvaluationResult{Predictor: schema.LastValuePredictor, Matrix: [][]int{{0}}}
	require.NoError(t, store.RecordResult(runID, result))
	assert.Error(t, store.RecordResult(runID, result))
}

func TestRunStore_EndUnknownRun(t *testing.T) {
	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	err = store.EndRun("missing", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRunStore_Status(t *testing.T) {
	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Zero(t, status.TotalRuns)
	assert.Equal(t, int64(0), status.TableSizes["runs"])

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := range 3 {
		id, err := store.BeginRun(base.Add(time.Duration(i)*time.Hour), nil)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	require.NoError(t, store.RecordResult(ids[2], schema.EvaluationResult{Predictor: schema.OnlinePredictor, Matrix: [][]int{}}))

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 3, status.TotalRuns)
	assert.Equal(t, ids[2], status.LastRunID)
	assert.True(t, base.Add(2*time.Hour).Equal(status.LastRunTime))
	assert.True(t, base.Equal(status.OldestRun))
	assert.Equal(t, 1, status.TotalResults)
	assert.Equal(t, int64(3), status.TableSizes["runs"])
	assert.Equal(t, int64(1), status.TableSizes["run_results"])

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, ids[0], runs[0].RunID)
	assert.Nil(t, runs[0].FinishedAt)
}
