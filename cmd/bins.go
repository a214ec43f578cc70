package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/bikebin/internal/contract"
	"github.com/huangsam/bikebin/internal/store"
	"github.com/huangsam/bikebin/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// storeConfigWrapper loads the store settings without opening the stores,
// so clear and migrate work on a missing or outdated schema.
func storeConfigWrapper(_ *cobra.Command, _ []string) error {
	if err := storeSetup(false); err != nil {
		return err
	}
	if cfg.StoreBackend == schema.SQLiteBackend && cfg.StoreDBConnect == "" {
		cfg.StoreDBConnect = contract.GetDBFilePath()
	}
	return nil
}

// binsCmd focused on bin store management.
//
// Note: Store subcommands use minimal initialization (storeSetup) instead of
// the full sharedSetup used by aggregate and evaluate. This avoids window
// and predictor validation for simple store operations.
var binsCmd = &cobra.Command{
	Use:   "bins",
	Short: "Manage stored bin aggregates",
	Long: `Manage the bin aggregates written by "bikebin aggregate".

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show bin store statistics
  clear   - Remove all stored bins and runs
  export  - Export bins to Parquet for analytics
  migrate - Run database schema migrations`,
}

// binsStatusCmd shows bin store status.
var binsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display bin store statistics and connection details",
	Long: `Show the backend, the number of stored bins, the distinct stations and
days they cover.

Examples:
  bikebin bins status
  BIKEBIN_STORE_BACKEND=mysql BIKEBIN_STORE_DB_CONNECT='user:pass@tcp(localhost:3306)/bikebin' bikebin bins status`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		bins := storeManager.GetBinStore()
		if bins == nil {
			contract.LogFatal("Failed to get bin status", fmt.Errorf("bin store is not initialized"))
		}
		status, err := bins.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get bin status", err)
		}
		store.PrintBinStatus(os.Stdout, status)
	},
}

// binsClearCmd clears the store.
var binsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored bins and evaluation runs",
	Long: `Delete the store. For SQLite the database file is removed; for MySQL and
PostgreSQL every bikebin table is dropped.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  bikebin bins export --output-file bins.parquet
  bikebin runs export --output-file history
  bikebin bins clear`,
	PreRunE: storeConfigWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := store.ClearStore(cfg.StoreBackend, cfg.StoreDBConnect, cfg.StoreDBConnect); err != nil {
			contract.LogFatal("Failed to clear store", err)
		}
		fmt.Println("Store cleared successfully.")
	},
}

// binsExportCmd exports bins to a Parquet file.
var binsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored bins to Parquet for BI tools and analytics",
	Long: `Export every stored bin aggregate to a single Parquet file.

Requires: --output-file parameter

Examples:
  bikebin bins export --output-file bins.parquet
  duckdb -c "SELECT station_id, avg(average) FROM read_parquet('bins.parquet') GROUP BY 1"`,
	PreRunE: storeSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		if err := store.ExecuteBinExport(cmd.Context(), storeManager, cfg.OutputFile, os.Stdout); err != nil {
			contract.LogFatal("Failed to export bins", err)
		}
	},
}

// binsMigrateCmd runs database migrations for the store.
var binsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions of the bin and run tables.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  bikebin bins migrate

  # Migrate to specific version
  bikebin bins migrate --target-version 2

  # Rollback to initial state
  bikebin bins migrate --target-version 0`,
	PreRunE: storeConfigWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := store.Migrate(cfg.StoreBackend, cfg.StoreDBConnect, targetVersion, os.Stdout); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
