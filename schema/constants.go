package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for bin and run storage.
	DatabaseBackend string

	// PredictorKind identifies a forecasting strategy.
	PredictorKind string

	// DropReason explains why a raw observation did not reach a bin.
	DropReason string
)

// All output modes supported.
const (
	TextOut    OutputMode = "text" // default
	TableOut   OutputMode = "table"
	CSVOut     OutputMode = "csv"
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All store backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All predictor strategies supported.
const (
	OnlinePredictor        PredictorKind = "online"
	LastValuePredictor     PredictorKind = "last-value"
	HistoricMeanPredictor  PredictorKind = "historic-mean"
	HistoricTrendPredictor PredictorKind = "historic-trend"
)

// Reasons for dropping a raw observation.
const (
	DropMalformed   DropReason = "malformed"
	DropOutOfWindow DropReason = "out_of_window"
	DropInvalid     DropReason = "invalid"
)

// AllPredictors lists every strategy in report order.
var AllPredictors = []PredictorKind{
	OnlinePredictor,
	LastValuePredictor,
	HistoricMeanPredictor,
	HistoricTrendPredictor,
}

// PredictorDisplayNames maps a strategy to the name printed in reports.
var PredictorDisplayNames = map[PredictorKind]string{
	OnlinePredictor:        "Online Classifier",
	LastValuePredictor:     "Last Value Predictor",
	HistoricMeanPredictor:  "Historic Mean Predictor",
	HistoricTrendPredictor: "Historic Trend Predictor",
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut:    {},
	TableOut:   {},
	CSVOut:     {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid store backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidPredictors lists all valid predictor strategies.
var ValidPredictors = map[PredictorKind]struct{}{
	OnlinePredictor:        {},
	LastValuePredictor:     {},
	HistoricMeanPredictor:  {},
	HistoricTrendPredictor: {},
}

// DisplayName returns the report name for a strategy, falling back to its key.
func (k PredictorKind) DisplayName() string {
	if name, ok := PredictorDisplayNames[k]; ok {
		return name
	}
	return string(k)
}
