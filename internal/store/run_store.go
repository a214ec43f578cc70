package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/bikebin/internal/contract"
	"github.com/huangsam/bikebin/schema"
)

// RunStoreImpl tracks evaluation runs and their per-predictor results.
type RunStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// NewRunStore opens the run store for the backend and makes sure its tables exist.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (*RunStoreImpl, error) {
	if backend == schema.NoneBackend {
		return &RunStoreImpl{backend: backend}, nil
	}
	db, err := openDB(backend, connStr)
	if err != nil {
		return nil, err
	}
	if err := createTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create run tables: %w", err)
	}
	return &RunStoreImpl{db: db, backend: backend}, nil
}

// BeginRun creates a new run and returns its ID.
func (rs *RunStoreImpl) BeginRun(startedAt time.Time, configParams map[string]any) (string, error) {
	runID := uuid.NewString()
	if rs.db == nil {
		return runID, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config params: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (run_id, started_at, config_params) VALUES (%s)`,
		quoteTableName(runsTable, rs.backend), placeholders(rs.backend, 1, 3))
	if _, err := rs.db.Exec(query, runID, formatTime(startedAt, rs.backend), string(configJSON)); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// RecordResult stores one predictor's outcome for a run.
func (rs *RunStoreImpl) RecordResult(runID string, result schema.EvaluationResult) error {
	if rs.db == nil {
		return nil
	}

	matrixJSON, err := json.Marshal(result.Matrix)
	if err != nil {
		return fmt.Errorf("failed to marshal confusion matrix: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (run_id, predictor, total, correct, accuracy, matrix) VALUES (%s)`,
		quoteTableName(runResultsTable, rs.backend), placeholders(rs.backend, 1, 6))
	if _, err := rs.db.Exec(query, runID, string(result.Predictor), result.Instances, result.Correct, result.Accuracy, string(matrixJSON)); err != nil {
		return fmt.Errorf("failed to insert result for %s: %w", result.Predictor, err)
	}
	return nil
}

// EndRun sets the finish time of a run.
func (rs *RunStoreImpl) EndRun(runID string, finishedAt time.Time) error {
	if rs.db == nil {
		return nil
	}

	var query string
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`UPDATE %s SET finished_at = $1 WHERE run_id = $2`, quoteTableName(runsTable, rs.backend))
	default: // SQLite and MySQL
		query = fmt.Sprintf(`UPDATE %s SET finished_at = ? WHERE run_id = ?`, quoteTableName(runsTable, rs.backend))
	}
	res, err := rs.db.Exec(query, formatTime(finishedAt, rs.backend), runID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// GetStatus returns status information about the run store.
func (rs *RunStoreImpl) GetStatus() (schema.RunStatus, error) {
	status := schema.RunStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if rs.db == nil {
		return status, nil
	}

	runs := quoteTableName(runsTable, rs.backend)
	if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runs)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		row := rs.db.QueryRow(fmt.Sprintf("SELECT run_id, started_at FROM %s ORDER BY started_at DESC LIMIT 1", runs))
		lastTime, err := rs.scanRunTime(row, &status.LastRunID)
		if err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		status.LastRunTime = lastTime

		var oldestID string
		row = rs.db.QueryRow(fmt.Sprintf("SELECT run_id, started_at FROM %s ORDER BY started_at ASC LIMIT 1", runs))
		oldestTime, err := rs.scanRunTime(row, &oldestID)
		if err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.OldestRun = oldestTime
	}

	for _, table := range []string{runsTable, runResultsTable} {
		var count int64
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, rs.backend))
		if err := rs.db.QueryRow(query).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	status.TotalResults = int(status.TableSizes[runResultsTable])

	return status, nil
}

// scanRunTime scans a (run_id, started_at) row, handling SQLite's text times.
func (rs *RunStoreImpl) scanRunTime(row *sql.Row, runID *string) (time.Time, error) {
	if rs.backend == schema.SQLiteBackend {
		var ts string
		if err := row.Scan(runID, &ts); err != nil {
			return time.Time{}, err
		}
		return parseSQLiteTime(ts)
	}
	var ts time.Time
	err := row.Scan(runID, &ts)
	return ts, err
}

// GetAllRuns returns every run, oldest first.
func (rs *RunStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT run_id, started_at, finished_at, config_params FROM %s ORDER BY started_at, run_id", quoteTableName(runsTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord

		switch rs.backend {
		case schema.SQLiteBackend:
			var startedAt string
			var finishedAt *string
			if err := rows.Scan(&record.RunID, &startedAt, &finishedAt, &record.ConfigParams); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
			if record.StartedAt, err = parseSQLiteTime(startedAt); err != nil {
				return nil, fmt.Errorf("failed to parse started_at: %w", err)
			}
			if finishedAt != nil {
				t, err := parseSQLiteTime(*finishedAt)
				if err != nil {
					return nil, fmt.Errorf("failed to parse finished_at: %w", err)
				}
				record.FinishedAt = &t
			}
		default: // MySQL and PostgreSQL store native datetimes
			if err := rows.Scan(&record.RunID, &record.StartedAt, &record.FinishedAt, &record.ConfigParams); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
		}

		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllResults returns every predictor result.
func (rs *RunStoreImpl) GetAllResults() ([]schema.RunResultRecord, error) {
	if rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT run_id, predictor, total, correct, accuracy, matrix FROM %s ORDER BY run_id, predictor", quoteTableName(runResultsTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query run results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunResultRecord
	for rows.Next() {
		var r schema.RunResultRecord
		if err := rows.Scan(&r.RunID, &r.Predictor, &r.Total, &r.Correct, &r.Accuracy, &r.Matrix); err != nil {
			return nil, fmt.Errorf("failed to scan run result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run results: %w", err)
	}
	return results, nil
}

// Close closes the underlying connection.
func (rs *RunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}
