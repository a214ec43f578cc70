// Package contract provides interfaces and shared utilities for bikebin's internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/bikebin/schema"
)

// StoreManager defines the interface for reaching the configured stores.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetBinStore() BinStore
	GetRunStore() RunStore
}

// BinStore persists bin aggregates produced by the aggregation pass.
type BinStore interface {
	// SaveBins replaces all stored aggregates with the given ones in a single transaction
	SaveBins(ctx context.Context, bins []schema.BinAggregate) error

	// LoadBins returns every stored aggregate ordered by day, station and daily bin
	LoadBins(ctx context.Context) ([]schema.BinAggregate, error)

	// GetStatus returns status information about the bin store
	GetStatus() (schema.BinStatus, error)

	// Close closes the underlying connection
	Close() error
}

// RunStore defines the interface for tracking evaluation runs and their results.
type RunStore interface {
	// BeginRun creates a new evaluation run and returns its unique ID
	BeginRun(startedAt time.Time, configParams map[string]any) (string, error)

	// RecordResult stores the outcome of one predictor for a run
	RecordResult(runID string, result schema.EvaluationResult) error

	// EndRun marks the run as finished
	EndRun(runID string, finishedAt time.Time) error

	// GetStatus returns status information about the run store
	GetStatus() (schema.RunStatus, error)

	// GetAllRuns returns every recorded run, oldest first
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllResults returns every recorded predictor result
	GetAllResults() ([]schema.RunResultRecord, error)

	// Close closes the underlying connection
	Close() error
}
