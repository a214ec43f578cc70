package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/bikebin/core/agg"
	"github.com/huangsam/bikebin/core/eval"
	"github.com/huangsam/bikebin/core/predict"
	"github.com/huangsam/bikebin/core/series"
	"github.com/huangsam/bikebin/internal/contract"
	"github.com/huangsam/bikebin/internal/logger"
	"github.com/huangsam/bikebin/internal/metrics"
	"github.com/huangsam/bikebin/schema"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrNoBins is returned when there is nothing to evaluate.
var ErrNoBins = errors.New("no bins to evaluate; run aggregate first or pass --bins-file")

// GetEvaluationResults loads the bins, evaluates every configured predictor
// and records the run. Results follow the order of cfg.Predictors.
func GetEvaluationResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (schema.EvaluationOutput, error) {
	log := logger.New("evaluate", cfg.LogLevel)
	rec := metrics.NewRecorder()
	started := time.Now()

	// --- 1. Load ---
	bins, err := loadBins(ctx, cfg, mgr)
	if err != nil {
		return schema.EvaluationOutput{}, err
	}
	since(rec, metrics.StageLoad, started)
	bins = windowBins(bins, cfg.Days, log)
	if len(bins) == 0 {
		return schema.EvaluationOutput{}, ErrNoBins
	}
	relabelBins(bins, cfg.Categories)

	idx := series.Partition(bins, cfg.Days, cfg.BinsPerDay)
	log.Info().
		Int("bins", len(bins)).
		Int("train_stations", len(idx.Train)).
		Int("test_stations", len(idx.Test)).
		Strs("predictors", predictorNames(cfg.Predictors)).
		Msg("evaluation started")
	if len(idx.Test) == 0 {
		log.Warn().Int("test_day", cfg.Days-1).Msg("no bins on the test day; every predictor will report zero instances")
	}

	// --- 2. Begin Run Tracking ---
	runs := mgr.GetRunStore()
	var runID string
	if runs != nil {
		runID, err = runs.BeginRun(started, configParams(cfg))
		if err != nil {
			contract.LogWarn("Run tracking initialization failed", err)
		}
	}

	// --- 3. Train and Evaluate ---
	results, err := evaluatePredictors(ctx, cfg, idx, log, rec)
	if err != nil {
		return schema.EvaluationOutput{}, err
	}

	// --- 4. End Run Tracking ---
	if runs != nil && runID != "" {
		start := time.Now()
		recordRun(runs, runID, results)
		since(rec, metrics.StagePersist, start)
	}

	writeMetricsFile(rec, cfg, log)

	output := schema.EvaluationOutput{
		RunID:    runID,
		Results:  results,
		Bins:     len(bins),
		Stations: countStations(bins),
		Duration: time.Since(started),
	}
	log.Info().Str("run_id", runID).Dur("duration", output.Duration).Msg("evaluation finished")
	return output, nil
}

// loadBins reads bins from --bins-file when set, otherwise from the bin store.
func loadBins(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) ([]schema.BinAggregate, error) {
	if cfg.BinsFile != "" {
		f, err := os.Open(cfg.BinsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open bins file: %w", err)
		}
		defer func() { _ = f.Close() }()
		bins, err := agg.ReadRecords(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", cfg.BinsFile, err)
		}
		return bins, nil
	}

	store := mgr.GetBinStore()
	if store == nil {
		return nil, ErrNoBins
	}
	bins, err := store.LoadBins(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load bins: %w", err)
	}
	return bins, nil
}

// windowBins keeps the bins whose day falls inside the configured window.
func windowBins(bins []schema.BinAggregate, days int, log zerolog.Logger) []schema.BinAggregate {
	kept := make([]schema.BinAggregate, 0, len(bins))
	for _, b := range bins {
		if b.DayID >= 0 && b.DayID < days {
			kept = append(kept, b)
		}
	}
	if skipped := len(bins) - len(kept); skipped > 0 {
		log.Debug().Int("skipped", skipped).Int("days", days).Msg("ignored bins outside the window")
	}
	return kept
}

// relabelBins recomputes every label on the configured category scale.
// Stored labels follow the scale used at aggregation time.
func relabelBins(bins []schema.BinAggregate, categories int) {
	for i := range bins {
		bins[i].CategoryLabel = agg.Quantize(bins[i].Average, bins[i].StationSize, categories)
	}
}

// evaluatePredictors trains and evaluates the predictors concurrently.
// The first failure cancels the others.
func evaluatePredictors(ctx context.Context, cfg *contract.Config, idx *series.Index, log zerolog.Logger, rec *metrics.Recorder) ([]schema.EvaluationResult, error) {
	params := predict.ParamsFromConfig(cfg)
	results := make([]schema.EvaluationResult, len(cfg.Predictors))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range cfg.Predictors {
		g.Go(func() error {
			res, err := evaluatePredictor(gctx, kind, params, idx, cfg.Workers, log, rec)
			if err != nil {
				return fmt.Errorf("%s: %w", kind, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// evaluatePredictor trains one strategy on the history and scores it on the test day.
func evaluatePredictor(ctx context.Context, kind schema.PredictorKind, params predict.Params, idx *series.Index, workers int, log zerolog.Logger, rec *metrics.Recorder) (schema.EvaluationResult, error) {
	strategy, err := predict.New(kind, params)
	if err != nil {
		return schema.EvaluationResult{}, err
	}

	start := time.Now()
	models, err := predict.Train(ctx, strategy, idx, workers)
	if err != nil {
		return schema.EvaluationResult{}, err
	}
	trainDur := since(rec, metrics.StageTrain, start)

	start = time.Now()
	res, err := eval.NewEvaluator(params, workers).Evaluate(ctx, idx, models)
	if err != nil {
		return schema.EvaluationResult{}, err
	}
	evalDur := since(rec, metrics.StageEvaluate, start)
	rec.ObserveEvaluation(res)

	log.Info().
		Str("predictor", string(kind)).
		Int("models", models.Len()).
		Int("instances", res.Instances).
		Int("correct", res.Correct).
		Float64("accuracy", res.Accuracy).
		Int("no_model", res.NoModel).
		Int("no_target", res.NoTarget).
		Dur("train", trainDur).
		Dur("evaluate", evalDur).
		Msg("predictor evaluated")
	return res, nil
}

// recordRun stores every result and closes the run. Failures only warn.
func recordRun(runs contract.RunStore, runID string, results []schema.EvaluationResult) {
	for _, res := range results {
		if err := runs.RecordResult(runID, res); err != nil {
			logTrackingError("RecordResult", string(res.Predictor), err)
		}
	}
	if err := runs.EndRun(runID, time.Now()); err != nil {
		contract.LogWarn("Failed to finalize run tracking", err)
	}
}

// configParams captures the settings that shape a run's results.
func configParams(cfg *contract.Config) map[string]any {
	return map[string]any{
		"start":       cfg.WindowStart.Format(time.RFC3339),
		"days":        cfg.Days,
		"bin_minutes": int(cfg.BinDuration / time.Minute),
		"categories":  cfg.Categories,
		"horizon":     cfg.Horizon,
		"predictors":  predictorNames(cfg.Predictors),
		"workers":     cfg.Workers,
		"bins_file":   cfg.BinsFile,
		"lr_rate":     cfg.Classifier.Rate,
		"lr_lambda":   cfg.Classifier.Lambda,
		"lr_passes":   cfg.Classifier.Passes,
	}
}

// logTrackingError logs run tracking errors to stderr without disrupting evaluation.
func logTrackingError(operation, predictor string, err error) {
	contract.LogWarn(fmt.Sprintf("Run tracking failed for %s on %s", operation, predictor), err)
}

func predictorNames(kinds []schema.PredictorKind) []string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return names
}

func countStations(bins []schema.BinAggregate) int {
	seen := make(map[int]struct{})
	for _, b := range bins {
		seen[b.StationID] = struct{}{}
	}
	return len(seen)
}
