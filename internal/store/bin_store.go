package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/huangsam/bikebin/internal/contract"
	"github.com/huangsam/bikebin/schema"
)

// BinStoreImpl persists bin aggregates in a SQL database.
type BinStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.BinStore = &BinStoreImpl{} // Compile-time check

// NewBinStore opens the bin store for the backend and makes sure its table exists.
func NewBinStore(backend schema.DatabaseBackend, connStr string) (*BinStoreImpl, error) {
	if backend == schema.NoneBackend {
		return &BinStoreImpl{backend: backend}, nil
	}
	db, err := openDB(backend, connStr)
	if err != nil {
		return nil, err
	}
	if err := createTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bin tables: %w", err)
	}
	return &BinStoreImpl{db: db, backend: backend}, nil
}

// upsertQuery inserts a bin or replaces the one with the same key.
func (bs *BinStoreImpl) upsertQuery() string {
	quoted := quoteTableName(binsTable, bs.backend)
	cols := "day_id, station_id, daily_bin, average, station_size, category_label"
	values := placeholders(bs.backend, 1, 6)
	switch bs.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) AS new
			ON DUPLICATE KEY UPDATE average = new.average, station_size = new.station_size, category_label = new.category_label`, quoted, cols, values)
	default: // SQLite and PostgreSQL
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)
			ON CONFLICT (day_id, station_id, daily_bin) DO UPDATE SET average = EXCLUDED.average, station_size = EXCLUDED.station_size, category_label = EXCLUDED.category_label`, quoted, cols, values)
	}
}

// SaveBins replaces the stored bins with the given window in one transaction.
// Keys carry no window start, so rows of an earlier window must not survive.
func (bs *BinStoreImpl) SaveBins(ctx context.Context, bins []schema.BinAggregate) error {
	if bs.db == nil {
		return nil
	}

	tx, err := bs.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", quoteTableName(binsTable, bs.backend))); err != nil {
		return fmt.Errorf("failed to clear previous bins: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, bs.upsertQuery())
	if err != nil {
		return fmt.Errorf("failed to prepare bin upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, b := range bins {
		if _, err := stmt.ExecContext(ctx, b.DayID, b.StationID, b.DailyBinID, b.Average, b.StationSize, b.CategoryLabel); err != nil {
			return fmt.Errorf("failed to upsert bin (day %d, station %d, bin %d): %w", b.DayID, b.StationID, b.DailyBinID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bins: %w", err)
	}
	return nil
}

// LoadBins returns every stored bin ordered by day, station and daily bin.
func (bs *BinStoreImpl) LoadBins(ctx context.Context) ([]schema.BinAggregate, error) {
	if bs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT day_id, station_id, daily_bin, average, station_size, category_label
		FROM %s ORDER BY day_id, station_id, daily_bin`, quoteTableName(binsTable, bs.backend))
	rows, err := bs.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query bins: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var bins []schema.BinAggregate
	for rows.Next() {
		var b schema.BinAggregate
		if err := rows.Scan(&b.DayID, &b.StationID, &b.DailyBinID, &b.Average, &b.StationSize, &b.CategoryLabel); err != nil {
			return nil, fmt.Errorf("failed to scan bin: %w", err)
		}
		bins = append(bins, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bins: %w", err)
	}
	return bins, nil
}

// GetStatus returns row counts and the covered day range.
func (bs *BinStoreImpl) GetStatus() (schema.BinStatus, error) {
	status := schema.BinStatus{
		Backend:   string(bs.backend),
		Connected: bs.db != nil,
	}
	if bs.db == nil {
		return status, nil
	}

	quoted := quoteTableName(binsTable, bs.backend)
	query := fmt.Sprintf(`SELECT COUNT(*), COUNT(DISTINCT station_id), COUNT(DISTINCT day_id),
		COALESCE(MIN(day_id), 0), COALESCE(MAX(day_id), 0) FROM %s`, quoted)
	if err := bs.db.QueryRow(query).Scan(&status.TotalBins, &status.Stations, &status.Days, &status.FirstDayID, &status.LastDayID); err != nil {
		return status, fmt.Errorf("failed to get bin status: %w", err)
	}
	return status, nil
}

// Close closes the underlying connection.
func (bs *BinStoreImpl) Close() error {
	if bs.db != nil {
		return bs.db.Close()
	}
	return nil
}
