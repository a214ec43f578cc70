package schema

import "time"

// RunRecord represents a row from the runs table.
type RunRecord struct {
	RunID        string
	StartedAt    time.Time
	FinishedAt   *time.Time
	ConfigParams *string
}

// RunResultRecord represents a row from the run_results table.
type RunResultRecord struct {
	RunID     string
	Predictor string
	Total     int64
	Correct   int64
	Accuracy  float64
	Matrix    string // JSON encoded, row-major
}

// BinStatus represents the status of the bin store.
type BinStatus struct {
	Backend    string `json:"backend"`
	Connected  bool   `json:"connected"`
	TotalBins  int    `json:"total_bins"`
	Stations   int    `json:"stations"`
	Days       int    `json:"days"`
	FirstDayID int    `json:"first_day_id"`
	LastDayID  int    `json:"last_day_id"`
}

// RunStatus represents the status of the run store.
type RunStatus struct {
	Backend      string           `json:"backend"`
	Connected    bool             `json:"connected"`
	TotalRuns    int              `json:"total_runs"`
	LastRunID    string           `json:"last_run_id"`
	LastRunTime  time.Time        `json:"last_run_time"`
	OldestRun    time.Time        `json:"oldest_run_time"`
	TotalResults int              `json:"total_results"`
	TableSizes   map[string]int64 `json:"table_sizes"`
}
