// Package agg turns raw dock sensor readings into per-station, per-bin aggregates.
package agg

import (
	"bufio"
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/huangsam/bikebin/internal/contract"
	"github.com/huangsam/bikebin/schema"
)

const (
	linesPerChunk = 512
	maxLineBytes  = 1 << 20
)

// Params configures one aggregation pass.
type Params struct {
	WindowStart time.Time
	WindowEnd   time.Time
	BinDuration time.Duration
	BinsPerDay  int
	Categories  int
	Workers     int
}

// ParamsFromConfig extracts aggregation parameters from the validated config.
func ParamsFromConfig(cfg *contract.Config) Params {
	return Params{
		WindowStart: cfg.WindowStart,
		WindowEnd:   cfg.WindowEnd,
		BinDuration: cfg.BinDuration,
		BinsPerDay:  cfg.BinsPerDay,
		Categories:  cfg.Categories,
		Workers:     cfg.Workers,
	}
}

// Source is a named stream of raw observation lines.
type Source struct {
	Name   string
	Reader io.Reader
}

// Result holds the emitted aggregates and what happened to the input.
type Result struct {
	Bins    []schema.BinAggregate
	Summary schema.AggregateSummary
}

// Aggregator filters, groups and reduces raw observations.
type Aggregator struct {
	params  Params
	reducer GroupReducer[schema.BinKey, Sample, schema.BinAggregate]
}

// NewAggregator creates an Aggregator backed by the in-process sharded reducer.
func NewAggregator(params Params) *Aggregator {
	params.Workers = max(1, params.Workers)
	return &Aggregator{
		params:  params,
		reducer: NewShardedGroupReducer[schema.BinKey, Sample, schema.BinAggregate](params.Workers, shardOfBinKey),
	}
}

// WithGroupReducer swaps the grouping capability, e.g. for a partitioned backend.
func (a *Aggregator) WithGroupReducer(r GroupReducer[schema.BinKey, Sample, schema.BinAggregate]) *Aggregator {
	a.reducer = r
	return a
}

// shardOfBinKey spreads keys across shards.
func shardOfBinKey(k schema.BinKey) int {
	return k.StationID*7919 + k.GlobalBinID
}

// workerTally counts the fate of the lines one worker processed.
type workerTally struct {
	accepted int
	dropped  map[schema.DropReason]int
}

// Aggregate runs the map, group and reduce stages over all sources.
// Bad lines are dropped silently and counted in the summary; a read failure
// or a reduce failure aborts the pass.
func (a *Aggregator) Aggregate(ctx context.Context, sources ...Source) (*Result, error) {
	start := time.Now()
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	workers := a.params.Workers
	chunkCh := make(chan []string, workers)
	kvCh := make(chan KeyValue[schema.BinKey, Sample], workers*linesPerChunk)

	// 1. Scan lines into chunks
	go func() {
		defer close(chunkCh)
		if err := scanSources(ctx, sources, chunkCh); err != nil {
			cancel(err)
		}
	}()

	// 2. Parse and filter in parallel
	tallies := make([]workerTally, workers)
	var wg sync.WaitGroup
	for i := range workers {
		tallies[i].dropped = make(map[schema.DropReason]int)
		wg.Go(func() {
			for chunk := range chunkCh {
				for _, line := range chunk {
					key, s, reason := a.classify(line)
					if reason != "" {
						tallies[i].dropped[reason]++
						continue
					}
					tallies[i].accepted++
					select {
					case kvCh <- KeyValue[schema.BinKey, Sample]{Key: key, Value: s}:
					case <-ctx.Done():
						return
					}
				}
			}
		})
	}
	go func() {
		wg.Wait()
		close(kvCh)
	}()

	// 3. Group by (station, bin) and reduce
	var emptyBins atomic.Int64
	reduce := func(key schema.BinKey, samples []Sample) (schema.BinAggregate, error) {
		bin, err := reduceBin(key, samples, a.params.BinsPerDay, a.params.Categories)
		if err != nil {
			emptyBins.Add(1)
		}
		return bin, err
	}
	bins, err := a.reducer.GroupReduce(ctx, kvCh, reduce)
	if err != nil {
		cancel(err)
	}
	for range kvCh {
		// Drain so blocked workers can observe cancellation and exit.
	}
	if cause := context.Cause(ctx); cause != nil {
		return nil, fmt.Errorf("aggregation failed: %w", cause)
	}

	slices.SortFunc(bins, CompareBins)

	summary := schema.AggregateSummary{
		Dropped:   make(map[schema.DropReason]int),
		Bins:      len(bins),
		EmptyBins: int(emptyBins.Load()),
		Stations:  countStations(bins),
	}
	for _, t := range tallies {
		summary.Accepted += t.accepted
		for reason, n := range t.dropped {
			summary.Dropped[reason] += n
		}
	}
	for _, src := range sources {
		summary.SourceFiles = append(summary.SourceFiles, src.Name)
	}
	summary.Duration = time.Since(start)

	return &Result{Bins: bins, Summary: summary}, nil
}

// scanSources reads every source line by line and sends batches of lines.
func scanSources(ctx context.Context, sources []Source, out chan<- []string) error {
	for _, src := range sources {
		scanner := bufio.NewScanner(src.Reader)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		chunk := make([]string, 0, linesPerChunk)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}
			chunk = append(chunk, line)
			if len(chunk) == linesPerChunk {
				if err := sendChunk(ctx, out, chunk); err != nil {
					return err
				}
				chunk = make([]string, 0, linesPerChunk)
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read %s: %w", src.Name, err)
		}
		if len(chunk) > 0 {
			if err := sendChunk(ctx, out, chunk); err != nil {
				return err
			}
		}
	}
	return nil
}

func sendChunk(ctx context.Context, out chan<- []string, chunk []string) error {
	select {
	case out <- chunk:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CompareBins orders aggregates by day, station, then daily bin.
func CompareBins(a, b schema.BinAggregate) int {
	return cmp.Or(
		cmp.Compare(a.DayID, b.DayID),
		cmp.Compare(a.StationID, b.StationID),
		cmp.Compare(a.DailyBinID, b.DailyBinID),
	)
}

func countStations(bins []schema.BinAggregate) int {
	seen := make(map[int]struct{})
	for _, b := range bins {
		seen[b.StationID] = struct{}{}
	}
	return len(seen)
}
