package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/bikebin/core/agg"
	"github.com/huangsam/bikebin/internal/contract"
	"github.com/huangsam/bikebin/internal/metrics"
	"github.com/rs/zerolog"
)

// runAggregation performs the read, aggregate and persist steps.
func runAggregation(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, log zerolog.Logger, rec *metrics.Recorder) (*agg.Result, error) {
	if len(cfg.InputFiles) == 0 {
		return nil, errors.New("at least one raw input file is required")
	}

	// --- 1. Open Sources ---
	sources, closeAll, err := openSources(cfg.InputFiles)
	if err != nil {
		return nil, err
	}
	defer closeAll()

	log.Info().
		Strs("files", cfg.InputFiles).
		Time("window_start", cfg.WindowStart).
		Time("window_end", cfg.WindowEnd).
		Int("bins_per_day", cfg.BinsPerDay).
		Int("workers", cfg.Workers).
		Msg("aggregation started")

	// --- 2. Map, Group and Reduce ---
	start := time.Now()
	result, err := agg.NewAggregator(agg.ParamsFromConfig(cfg)).Aggregate(ctx, sources...)
	if err != nil {
		return nil, err
	}
	since(rec, metrics.StageAggregate, start)
	rec.ObserveAggregation(result.Summary)

	log.Info().
		Int("accepted", result.Summary.Accepted).
		Int("dropped", result.Summary.TotalDropped()).
		Int("bins", result.Summary.Bins).
		Int("empty_bins", result.Summary.EmptyBins).
		Int("stations", result.Summary.Stations).
		Dur("duration", result.Summary.Duration).
		Msg("aggregation finished")

	// --- 3. Persist ---
	start = time.Now()
	if store := mgr.GetBinStore(); store != nil {
		if err := store.SaveBins(ctx, result.Bins); err != nil {
			return nil, fmt.Errorf("failed to store bins: %w", err)
		}
	}
	if cfg.OutputFile != "" {
		if err := writeRecordsFile(cfg.OutputFile, result); err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.OutputFile).Int("bins", len(result.Bins)).Msg("bin records written")
	}
	since(rec, metrics.StagePersist, start)

	return result, nil
}

// openSources opens every input file. The returned func closes all of them.
func openSources(paths []string) ([]agg.Source, func(), error) {
	var files []*os.File
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	sources := make([]agg.Source, 0, len(paths))
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to open input file: %w", err)
		}
		files = append(files, f)
		sources = append(sources, agg.Source{Name: path, Reader: f})
	}
	return sources, closeAll, nil
}

// writeRecordsFile writes the bins in their persisted text form.
func writeRecordsFile(path string, result *agg.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create bin records file: %w", err)
	}
	if err := agg.WriteRecords(f, result.Bins); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write bin records: %w", err)
	}
	return f.Close()
}
