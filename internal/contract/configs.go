package contract

import (
	"fmt"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/bikebin/schema"
)

// Default values for configuration.
const (
	DefaultDays        = 14
	DefaultBinMinutes  = 15
	DefaultCategories  = 4
	DefaultHorizon     = 2
	DefaultPrecision   = 4
	DefaultLogLevel    = "info"
	DefaultLRRate      = 0.5
	DefaultLRLambda    = 1e-4
	DefaultLRPasses    = 30
	MaxCategories      = 100
	minutesPerDay      = 24 * 60
	minimumDaysInRange = 2
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// ClassifierParams holds the hyper-parameters of the online classifier.
type ClassifierParams struct {
	Rate   float64
	Lambda float64
	Passes int
}

// Config holds the runtime configuration for aggregation and evaluation.
// This struct is the "final, validated" config.
type Config struct {
	InputFiles []string
	BinsFile   string // Persisted bin records to evaluate instead of the store

	WindowStart time.Time
	WindowEnd   time.Time
	Days        int
	BinDuration time.Duration
	BinsPerDay  int
	Categories  int
	Horizon     int

	Predictors []schema.PredictorKind
	Classifier ClassifierParams

	Workers    int
	Output     schema.OutputMode
	OutputFile string
	Precision  int
	UseColors  bool

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	MetricsFile string
	LogLevel    string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	InputFiles []string

	// --- Fields from rootCmd.PersistentFlags() ---
	Start          string `mapstructure:"start"`
	Days           int    `mapstructure:"days"`
	BinMinutes     int    `mapstructure:"bin-minutes"`
	Categories     int    `mapstructure:"categories"`
	Horizon        int    `mapstructure:"horizon"`
	Workers        int    `mapstructure:"workers"`
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	Precision      int    `mapstructure:"precision"`
	Color          string `mapstructure:"color"`
	StoreBackend   string `mapstructure:"store-backend"`
	StoreDBConnect string `mapstructure:"store-db-connect"`
	MetricsFile    string `mapstructure:"metrics-file"`
	LogLevel       string `mapstructure:"log-level"`

	// --- Fields from evaluateCmd.Flags() ---
	BinsFile   string  `mapstructure:"bins-file"`
	Predictors string  `mapstructure:"predictors"`
	LRRate     float64 `mapstructure:"lr-rate"`
	LRLambda   float64 `mapstructure:"lr-lambda"`
	LRPasses   int     `mapstructure:"lr-passes"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.InputFiles = slices.Clone(c.InputFiles)
	clone.Predictors = slices.Clone(c.Predictors)
	return &clone
}

// TotalBins returns the number of bins in the whole aggregation window.
func (c *Config) TotalBins() int {
	return c.Days * c.BinsPerDay
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processTimeWindow(cfg, input); err != nil {
		return err
	}
	if err := processBinning(cfg, input); err != nil {
		return err
	}
	if err := processPredictors(cfg, input); err != nil {
		return err
	}
	return validateBackendConfig(cfg, input)
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	default:
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	return nil
}

// validateBackendConfig validates the store backend configuration.
func validateBackendConfig(cfg *Config, input *ConfigRawInput) error {
	cfg.StoreBackend = schema.DatabaseBackend(strings.ToLower(input.StoreBackend))
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.StoreBackend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", input.StoreBackend)
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	return ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect)
}

// validateSimpleInputs processes and validates the fields that need no derivation.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.InputFiles = input.InputFiles
	cfg.BinsFile = input.BinsFile
	cfg.OutputFile = input.OutputFile
	cfg.MetricsFile = input.MetricsFile

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.Precision < 1 || input.Precision > 8 {
		return fmt.Errorf("precision must be between 1 and 8 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, table, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("--output-file is required for parquet output")
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(input.LogLevel))
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if input.LRRate <= 0 {
		return fmt.Errorf("lr-rate must be greater than 0 (received %g)", input.LRRate)
	}
	if input.LRLambda < 0 {
		return fmt.Errorf("lr-lambda cannot be negative (received %g)", input.LRLambda)
	}
	if input.LRPasses <= 0 {
		return fmt.Errorf("lr-passes must be greater than 0 (received %d)", input.LRPasses)
	}
	cfg.Classifier = ClassifierParams{Rate: input.LRRate, Lambda: input.LRLambda, Passes: input.LRPasses}

	return nil
}

// processTimeWindow resolves the aggregation window [start, start+days).
func processTimeWindow(cfg *Config, input *ConfigRawInput) error {
	if input.Start == "" {
		return fmt.Errorf("start is required (ISO8601, e.g. 2013-10-01T00:00:00Z)")
	}
	start, err := ParseTimestamp(input.Start)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	if input.Days < minimumDaysInRange {
		return fmt.Errorf("days must be at least %d to hold a training and a test day (received %d)", minimumDaysInRange, input.Days)
	}
	cfg.WindowStart = start
	cfg.Days = input.Days
	cfg.WindowEnd = start.Add(time.Duration(input.Days) * 24 * time.Hour)
	return nil
}

// processBinning validates the bin width, category count and horizon.
func processBinning(cfg *Config, input *ConfigRawInput) error {
	if input.BinMinutes <= 0 || minutesPerDay%input.BinMinutes != 0 {
		return fmt.Errorf("bin-minutes must be a positive divisor of %d (received %d)", minutesPerDay, input.BinMinutes)
	}
	cfg.BinDuration = time.Duration(input.BinMinutes) * time.Minute
	cfg.BinsPerDay = minutesPerDay / input.BinMinutes

	if input.Categories < 2 || input.Categories > MaxCategories {
		return fmt.Errorf("categories must be between 2 and %d (received %d)", MaxCategories, input.Categories)
	}
	cfg.Categories = input.Categories

	if input.Horizon < 1 || input.Horizon >= cfg.BinsPerDay {
		return fmt.Errorf("horizon must be between 1 and %d bins (received %d)", cfg.BinsPerDay-1, input.Horizon)
	}
	cfg.Horizon = input.Horizon
	return nil
}

// processPredictors parses the comma-separated predictor list, keeping its order.
func processPredictors(cfg *Config, input *ConfigRawInput) error {
	if strings.TrimSpace(input.Predictors) == "" {
		cfg.Predictors = slices.Clone(schema.AllPredictors)
		return nil
	}
	cfg.Predictors = nil
	seen := make(map[schema.PredictorKind]struct{})
	for p := range strings.SplitSeq(input.Predictors, ",") {
		kind := schema.PredictorKind(strings.ToLower(strings.TrimSpace(p)))
		if kind == "" {
			continue
		}
		if _, ok := schema.ValidPredictors[kind]; !ok {
			return fmt.Errorf("invalid predictor '%s'. must be online, last-value, historic-mean, historic-trend", kind)
		}
		if _, dup := seen[kind]; dup {
			continue
		}
		seen[kind] = struct{}{}
		cfg.Predictors = append(cfg.Predictors, kind)
	}
	if len(cfg.Predictors) == 0 {
		return fmt.Errorf("at least one predictor is required")
	}
	return nil
}

// RevalidateEvaluation applies per-request overrides of an evaluation on top
// of an already validated config. Zero values keep the current setting.
func RevalidateEvaluation(cfg *Config, predictors string, horizon, categories int) error {
	if predictors != "" {
		if err := processPredictors(cfg, &ConfigRawInput{Predictors: predictors}); err != nil {
			return err
		}
	}
	if horizon != 0 {
		if horizon < 1 || horizon >= cfg.BinsPerDay {
			return fmt.Errorf("horizon must be between 1 and %d bins (received %d)", cfg.BinsPerDay-1, horizon)
		}
		cfg.Horizon = horizon
	}
	if categories != 0 {
		if categories < 2 || categories > MaxCategories {
			return fmt.Errorf("categories must be between 2 and %d (received %d)", MaxCategories, categories)
		}
		cfg.Categories = categories
	}
	return nil
}
