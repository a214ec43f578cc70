package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/huangsam/bikebin/internal/contract"
	"github.com/huangsam/bikebin/schema"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// Table names.
const (
	binsTable       = "bin_aggregates"
	runsTable       = "runs"
	runResultsTable = "run_results"
)

// allTables lists every table in creation order.
var allTables = []string{binsTable, runsTable, runResultsTable}

// driverName maps a backend to its database/sql driver.
func driverName(backend schema.DatabaseBackend) (string, error) {
	switch backend {
	case schema.SQLiteBackend:
		return "sqlite", nil
	case schema.MySQLBackend:
		return "mysql", nil
	case schema.PostgreSQLBackend:
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported backend: %s", backend)
	}
}

// openDB opens and pings a database for the backend. An empty SQLite
// connection string selects the default database file.
func openDB(backend schema.DatabaseBackend, connStr string) (*sql.DB, error) {
	driver, err := driverName(backend)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	switch backend {
	case schema.SQLiteBackend:
		dbPath := connStr
		if dbPath == "" {
			dbPath = contract.GetDBFilePath()
		}
		db, err = sql.Open(driver, dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database at %q: %w. Check that the directory is writable", dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)

	case schema.MySQLBackend:
		db, err = sql.Open(driver, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open MySQL database: %w. Check connection string format: user:password@tcp(host:port)/dbname", err)
		}

	case schema.PostgreSQLBackend:
		db, err = sql.Open(driver, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL database: %w. Check connection string format: host=... dbname=...", err)
		}
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		var connDetail string
		switch backend {
		case schema.MySQLBackend:
			connDetail = "Check that MySQL is running and the connection string is correct. Ensure user/password are valid."
		case schema.PostgreSQLBackend:
			connDetail = "Check that PostgreSQL is running and the connection string is correct. Ensure user/password are valid."
		default:
			connDetail = "Verify the database file is accessible."
		}
		return nil, fmt.Errorf("failed to connect to %s database: %w. %s", backend, err, connDetail)
	}
	return db, nil
}

// createTables creates any missing table for the backend.
func createTables(db *sql.DB, backend schema.DatabaseBackend) error {
	for _, table := range allTables {
		if _, err := db.Exec(createTableQuery(table, backend)); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}
	return nil
}

// createTableQuery returns the CREATE TABLE statement of a table. The
// embedded migrations carry the same definitions.
func createTableQuery(table string, backend schema.DatabaseBackend) string {
	quoted := quoteTableName(table, backend)
	switch table {
	case binsTable:
		realType := "REAL"
		switch backend {
		case schema.MySQLBackend:
			realType = "DOUBLE"
		case schema.PostgreSQLBackend:
			realType = "DOUBLE PRECISION"
		}
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				day_id INTEGER NOT NULL,
				station_id INTEGER NOT NULL,
				daily_bin INTEGER NOT NULL,
				average %s NOT NULL,
				station_size INTEGER NOT NULL,
				category_label INTEGER NOT NULL,
				PRIMARY KEY (day_id, station_id, daily_bin)
			)`, quoted, realType)

	case runsTable:
		switch backend {
		case schema.MySQLBackend:
			return fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					run_id VARCHAR(36) PRIMARY KEY,
					started_at DATETIME(6) NOT NULL,
					finished_at DATETIME(6),
					config_params TEXT
				)`, quoted)
		case schema.PostgreSQLBackend:
			return fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					run_id VARCHAR(36) PRIMARY KEY,
					started_at TIMESTAMPTZ NOT NULL,
					finished_at TIMESTAMPTZ,
					config_params TEXT
				)`, quoted)
		default: // SQLite
			return fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					run_id TEXT PRIMARY KEY,
					started_at TEXT NOT NULL,
					finished_at TEXT,
					config_params TEXT
				)`, quoted)
		}

	default: // run_results
		switch backend {
		case schema.MySQLBackend:
			return fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					run_id VARCHAR(36) NOT NULL,
					predictor VARCHAR(32) NOT NULL,
					total BIGINT NOT NULL,
					correct BIGINT NOT NULL,
					accuracy DOUBLE NOT NULL,
					matrix TEXT NOT NULL,
					PRIMARY KEY (run_id, predictor)
				)`, quoted)
		case schema.PostgreSQLBackend:
			return fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					run_id VARCHAR(36) NOT NULL,
					predictor VARCHAR(32) NOT NULL,
					total BIGINT NOT NULL,
					correct BIGINT NOT NULL,
					accuracy DOUBLE PRECISION NOT NULL,
					matrix TEXT NOT NULL,
					PRIMARY KEY (run_id, predictor)
				)`, quoted)
		default: // SQLite
			return fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					run_id TEXT NOT NULL,
					predictor TEXT NOT NULL,
					total INTEGER NOT NULL,
					correct INTEGER NOT NULL,
					accuracy REAL NOT NULL,
					matrix TEXT NOT NULL,
					PRIMARY KEY (run_id, predictor)
				)`, quoted)
		}
	}
}

// quoteTableName returns the properly quoted table name for the given backend.
func quoteTableName(name string, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf("`%s`", name)
	default: // SQLite and PostgreSQL
		return fmt.Sprintf("\"%s\"", name)
	}
}

// placeholders returns n bind parameters starting at position from (1-based).
func placeholders(backend schema.DatabaseBackend, from, n int) string {
	params := make([]string, n)
	for i := range params {
		if backend == schema.PostgreSQLBackend {
			params[i] = fmt.Sprintf("$%d", from+i)
		} else {
			params[i] = "?"
		}
	}
	return strings.Join(params, ", ")
}

// sqliteTimeLayout has a fixed width so that text ordering is chronological.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	switch backend {
	case schema.SQLiteBackend:
		return t.UTC().Format(sqliteTimeLayout)
	default:
		return t
	}
}

// parseSQLiteTime is the inverse of formatTime for SQLite.
func parseSQLiteTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
