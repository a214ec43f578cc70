package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/bikebin/core/agg"
	"github.com/huangsam/bikebin/internal/contract"
	"github.com/huangsam/bikebin/internal/store"
	"github.com/huangsam/bikebin/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const rawFixture = `1 5 15 2013-10-01T00:01:00Z
1 7 13 2013-10-01T00:03:00Z
1 20 0 2013-10-01T00:20:00Z
3 4 6 2013-10-01T00:31:00Z
2 0 10 2013-10-02T00:05:00+00:00
1 5 5 2013-09-30T23:59:59Z
garbage line
`

func testConfig(t *testing.T) *contract.Config {
	t.Helper()
	return &contract.Config{
		WindowStart:  time.Date(2013, 10, 1, 0, 0, 0, 0, time.UTC),
		WindowEnd:    time.Date(2013, 10, 3, 0, 0, 0, 0, time.UTC),
		Days:         2,
		BinDuration:  15 * time.Minute,
		BinsPerDay:   96,
		Categories:   4,
		Horizon:      2,
		Predictors:   []schema.PredictorKind{schema.HistoricMeanPredictor, schema.LastValuePredictor},
		Classifier:   contract.ClassifierParams{Rate: contract.DefaultLRRate, Lambda: contract.DefaultLRLambda, Passes: 5},
		Workers:      2,
		Output:       schema.JSONOut,
		Precision:    4,
		StoreBackend: schema.NoneBackend,
		LogLevel:     "disabled",
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// periodicBins builds days of bins whose level changes every two bins and
// repeats every eight, identically for each station.
func periodicBins(days int, stations ...int) []schema.BinAggregate {
	var bins []schema.BinAggregate
	for day := range days {
		for _, station := range stations {
			for d := range 96 {
				avg := float64(2 + 5*((d/2)%4))
				bins = append(bins, schema.BinAggregate{
					DayID:         day,
					StationID:     station,
					DailyBinID:    d,
					Average:       avg,
					StationSize:   20,
					CategoryLabel: agg.Quantize(avg, 20, 4),
				})
			}
		}
	}
	return bins
}

func writeBinsFile(t *testing.T, bins []schema.BinAggregate) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bins.txt")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, agg.WriteRecords(f, bins))
	require.NoError(t, f.Close())
	return path
}

func TestExecuteAggregate(t *testing.T) {
	cfg := testConfig(t)
	cfg.InputFiles = []string{writeFile(t, "raw.txt", rawFixture)}
	cfg.OutputFile = filepath.Join(t.TempDir(), "bins.txt")
	cfg.MetricsFile = filepath.Join(t.TempDir(), "bikebin.prom")

	expected := []schema.BinAggregate{
		{DayID: 0, StationID: 1, DailyBinID: 0, Average: 6, StationSize: 20, CategoryLabel: 1},
		{DayID: 0, StationID: 1, DailyBinID: 1, Average: 20, StationSize: 20, CategoryLabel: 3},
		{DayID: 0, StationID: 3, DailyBinID: 2, Average: 4, StationSize: 10, CategoryLabel: 1},
		{DayID: 1, StationID: 2, DailyBinID: 0, Average: 0, StationSize: 10, CategoryLabel: 0},
	}

	binStore := &store.MockBinStore{}
	binStore.On("SaveBins", mock.Anything, expected).Return(nil)
	mgr := &store.MockStoreManager{}
	mgr.On("GetBinStore").Return(binStore)

	require.NoError(t, ExecuteAggregate(context.Background(), cfg, mgr))
	binStore.AssertExpectations(t)

	f, err := os.Open(cfg.OutputFile)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	written, err := agg.ReadRecords(f)
	require.NoError(t, err)
	assert.Equal(t, expected, written)

	prom, err := os.ReadFile(cfg.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `bikebin_observations_total{result="accepted"} 5`)
	assert.Contains(t, string(prom), `bikebin_bins_total{result="emitted"} 4`)
}

func TestExecuteAggregate_Errors(t *testing.T) {
	t.Run("no input", func(t *testing.T) {
		err := ExecuteAggregate(context.Background(), testConfig(t), &store.MockStoreManager{})
		assert.ErrorContains(t, err, "at least one raw input file")
	})

	t.Run("missing input", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.InputFiles = []string{filepath.Join(t.TempDir(), "missing.txt")}
		err := ExecuteAggregate(context.Background(), cfg, &store.MockStoreManager{})
		assert.ErrorContains(t, err, "failed to open input file")
	})

	t.Run("store failure", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.InputFiles = []string{writeFile(t, "raw.txt", rawFixture)}
		binStore := &store.MockBinStore{}
		binStore.On("SaveBins", mock.Anything, mock.Anything).Return(errors.New("disk full"))
		mgr := &store.MockStoreManager{}
		mgr.On("GetBinStore").Return(binStore)

		err := ExecuteAggregate(context.Background(), cfg, mgr)
		assert.ErrorContains(t, err, "failed to store bins")
	})
}

func TestGetEvaluationResults(t *testing.T) {
	cfg := testConfig(t)
	cfg.Days = 4
	cfg.Predictors = []schema.PredictorKind{
		schema.HistoricMeanPredictor,
		schema.LastValuePredictor,
		schema.HistoricTrendPredictor,
		schema.OnlinePredictor,
	}
	bins := periodicBins(4, 10, 20)
	// Outside the configured window, ignored
	extra := schema.BinAggregate{DayID: 9, StationID: 10, DailyBinID: 0, Average: 1, StationSize: 20}
	cfg.BinsFile = writeBinsFile(t, append(bins, extra))
	cfg.MetricsFile = filepath.Join(t.TempDir(), "bikebin.prom")

	runStore := &store.MockRunStore{}
	runStore.On("BeginRun", mock.Anything, mock.Anything).Return("run-42", nil)
	runStore.On("RecordResult", "run-42", mock.Anything).Return(nil).Times(4)
	runStore.On("EndRun", "run-42", mock.Anything).Return(nil)
	mgr := &store.MockStoreManager{}
	mgr.On("GetRunStore").Return(runStore)

	output, err := GetEvaluationResults(context.Background(), cfg, mgr)
	require.NoError(t, err)
	runStore.AssertExpectations(t)

	assert.Equal(t, "run-42", output.RunID)
	assert.Equal(t, len(bins), output.Bins)
	assert.Equal(t, 2, output.Stations)
	require.Len(t, output.Results, 4)

	for i, kind := range cfg.Predictors {
		res := output.Results[i]
		assert.Equal(t, kind, res.Predictor)
		assert.Equal(t, kind.DisplayName(), res.Name)
		assert.Equal(t, 2*94, res.Instances, kind)
		assert.Zero(t, res.NoModel, kind)
	}
	assert.InDelta(t, 1.0, output.Results[0].Accuracy, 1e-9)
	assert.InDelta(t, 0.0, output.Results[1].Accuracy, 1e-9)
	assert.InDelta(t, 1.0, output.Results[2].Accuracy, 1e-9)

	prom, err := os.ReadFile(cfg.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `bikebin_accuracy{predictor="historic-mean"} 1`)
	assert.Contains(t, string(prom), `bikebin_instances_total{outcome="counted",predictor="last-value"} 188`)
}

func TestGetEvaluationResults_FromStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Days = 3

	binStore := &store.MockBinStore{}
	binStore.On("LoadBins", mock.Anything).Return(periodicBins(3, 1), nil)
	mgr := &store.MockStoreManager{}
	mgr.On("GetBinStore").Return(binStore)
	mgr.On("GetRunStore").Return(nil)

	output, err := GetEvaluationResults(context.Background(), cfg, mgr)
	require.NoError(t, err)
	assert.Empty(t, output.RunID)
	require.Len(t, output.Results, 2)
	assert.Equal(t, schema.HistoricMeanPredictor, output.Results[0].Predictor)
	assert.Equal(t, schema.LastValuePredictor, output.Results[1].Predictor)
	assert.Equal(t, 94, output.Results[0].Instances)
}

func TestGetEvaluationResults_RelabelsToConfiguredCategories(t *testing.T) {
	for _, categories := range []int{8, 2} {
		t.Run(fmt.Sprint(categories), func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Days = 3
			cfg.Categories = categories
			cfg.Predictors = []schema.PredictorKind{schema.HistoricMeanPredictor, schema.HistoricTrendPredictor}

			// Stored with four categories
			binStore := &store.MockBinStore{}
			binStore.On("LoadBins", mock.Anything).Return(periodicBins(3, 1), nil)
			mgr := &store.MockStoreManager{}
			mgr.On("GetBinStore").Return(binStore)
			mgr.On("GetRunStore").Return(nil)

			output, err := GetEvaluationResults(context.Background(), cfg, mgr)
			require.NoError(t, err)
			require.Len(t, output.Results, 2)
			for _, res := range output.Results {
				assert.Equal(t, categories, res.Categories, res.Predictor)
				assert.Len(t, res.Matrix, categories, res.Predictor)
				assert.Equal(t, 94, res.Instances, res.Predictor)
				assert.InDelta(t, 1.0, res.Accuracy, 1e-9, res.Predictor)
			}
		})
	}
}

func TestGetEvaluationResults_TrackingFailureIsNotFatal(t *testing.T) {
	cfg := testConfig(t)
	cfg.BinsFile = writeBinsFile(t, periodicBins(2, 1))

	runStore := &store.MockRunStore{}
	runStore.On("BeginRun", mock.Anything, mock.Anything).Return("", errors.New("db down"))
	mgr := &store.MockStoreManager{}
	mgr.On("GetRunStore").Return(runStore)

	output, err := GetEvaluationResults(context.Background(), cfg, mgr)
	require.NoError(t, err)
	assert.Empty(t, output.RunID)
	assert.Len(t, output.Results, 2)
	runStore.AssertNotCalled(t, "RecordResult", mock.Anything, mock.Anything)
	runStore.AssertNotCalled(t, "EndRun", mock.Anything, mock.Anything)
}

func TestGetEvaluationResults_Errors(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		binStore := &store.MockBinStore{}
		binStore.On("LoadBins", mock.Anything).Return([]schema.BinAggregate(nil), nil)
		mgr := &store.MockStoreManager{}
		mgr.On("GetBinStore").Return(binStore)

		_, err := GetEvaluationResults(context.Background(), testConfig(t), mgr)
		assert.ErrorIs(t, err, ErrNoBins)
	})

	t.Run("load failure", func(t *testing.T) {
		binStore := &store.MockBinStore{}
		binStore.On("LoadBins", mock.Anything).Return([]schema.BinAggregate(nil), errors.New("timeout"))
		mgr := &store.MockStoreManager{}
		mgr.On("GetBinStore").Return(binStore)

		_, err := GetEvaluationResults(context.Background(), testConfig(t), mgr)
		assert.ErrorContains(t, err, "failed to load bins")
	})

	t.Run("malformed bins file", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.BinsFile = writeFile(t, "bins.txt", "0\t1\t2\n")
		_, err := GetEvaluationResults(context.Background(), cfg, &store.MockStoreManager{})
		assert.ErrorContains(t, err, "line 1")
	})

	t.Run("cancelled", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.BinsFile = writeBinsFile(t, periodicBins(2, 1, 2, 3))
		mgr := &store.MockStoreManager{}
		mgr.On("GetRunStore").Return(nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := GetEvaluationResults(ctx, cfg, mgr)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestExecuteEvaluate_WritesReport(t *testing.T) {
	cfg := testConfig(t)
	cfg.BinsFile = writeBinsFile(t, periodicBins(2, 5))
	cfg.OutputFile = filepath.Join(t.TempDir(), "report.json")
	mgr := &store.MockStoreManager{}
	mgr.On("GetRunStore").Return(nil)

	require.NoError(t, ExecuteEvaluate(context.Background(), cfg, mgr))

	content, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	var decoded []schema.EvaluationResult
	require.NoError(t, json.Unmarshal(content, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "Historic Mean Predictor", decoded[0].Name)
	assert.Equal(t, [][]int{{22, 0, 0, 0}, {0, 24, 0, 0}, {0, 0, 24, 0}, {0, 0, 0, 24}}, decoded[0].Matrix)
}
