// Package core has core logic for aggregation, training and evaluation.
package core

import (
	"context"
	"os"
	"time"

	"github.com/huangsam/bikebin/internal/contract"
	"github.com/huangsam/bikebin/internal/logger"
	"github.com/huangsam/bikebin/internal/metrics"
	"github.com/huangsam/bikebin/internal/outwriter"
	"github.com/rs/zerolog"
)

// ExecuteAggregate turns the raw input files into bin aggregates, stores them
// and prints a summary to stdout.
// It serves as the main entry point for the 'aggregate' command.
func ExecuteAggregate(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	log := logger.New("aggregate", cfg.LogLevel)
	rec := metrics.NewRecorder()

	result, err := runAggregation(ctx, cfg, mgr, log, rec)
	if err != nil {
		return err
	}

	writeMetricsFile(rec, cfg, log)
	return outwriter.WriteAggregateSummary(os.Stdout, result.Summary, cfg)
}

// ExecuteEvaluate trains and scores every configured predictor and prints the report.
// It serves as the main entry point for the 'evaluate' command.
func ExecuteEvaluate(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	output, err := GetEvaluationResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.WriteEvaluationResults(output, cfg)
}

// writeMetricsFile writes the run metrics in text exposition format when configured.
func writeMetricsFile(rec *metrics.Recorder, cfg *contract.Config, log zerolog.Logger) {
	if cfg.MetricsFile == "" {
		return
	}
	if err := rec.WriteTextfile(cfg.MetricsFile); err != nil {
		contract.LogWarn("Failed to write metrics file", err)
		return
	}
	log.Debug().Str("path", cfg.MetricsFile).Msg("metrics written")
}

// since returns the elapsed time and records it for the stage.
func since(rec *metrics.Recorder, stage string, start time.Time) time.Duration {
	d := time.Since(start)
	rec.ObserveStage(stage, d)
	return d
}
