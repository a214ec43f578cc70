// Package cmd defines the command-line interface for bikebin.
package cmd

import (
	"github.com/huangsam/bikebin/internal/contract"
	"github.com/huangsam/bikebin/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(aggregateCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(binsCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the bins subcommands to the parent bins command
	binsCmd.AddCommand(binsStatusCmd)
	binsCmd.AddCommand(binsClearCmd)
	binsCmd.AddCommand(binsExportCmd)
	binsCmd.AddCommand(binsMigrateCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsExportCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("start", "", "Start of the aggregation window in ISO8601 (e.g. 2013-06-07T00:00:00Z)")
	rootCmd.PersistentFlags().Int("days", contract.DefaultDays, "Number of days in the aggregation window")
	rootCmd.PersistentFlags().Int("bin-minutes", contract.DefaultBinMinutes, "Bin width in minutes (must divide 1440)")
	rootCmd.PersistentFlags().Int("categories", contract.DefaultCategories, "Number of availability categories")
	rootCmd.PersistentFlags().Int("horizon", contract.DefaultHorizon, "Prediction horizon in bins")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or table or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("metrics-file", "", "Optional path to write Prometheus metrics in text format")
	rootCmd.PersistentFlags().String("log-level", contract.DefaultLogLevel, "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of evaluateCmd to Viper
	evaluateCmd.Flags().String("bins-file", "", "Evaluate persisted bin records from this file instead of the store")
	evaluateCmd.Flags().String("predictors", "", "Comma-separated predictors: online, last-value, historic-mean, historic-trend (default all)")
	evaluateCmd.Flags().Float64("lr-rate", contract.DefaultLRRate, "Online classifier learning rate")
	evaluateCmd.Flags().Float64("lr-lambda", contract.DefaultLRLambda, "Online classifier L2 regularization")
	evaluateCmd.Flags().Int("lr-passes", contract.DefaultLRPasses, "Online classifier training passes")
	if err := viper.BindPFlags(evaluateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding evaluate flags", err)
	}

	// Bind all flags of binsMigrateCmd to Viper
	binsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(binsMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding bins migrate flags", err)
	}
}
