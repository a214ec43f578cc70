package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Accuracy label constants.
const (
	StrongValue   = "Strong"   // Strong value
	GoodValue     = "Good"     // Good value
	FairValue     = "Fair"     // Fair value
	WeakValue     = "Weak"     // Weak value
	NoDataValue   = "No data"  // No counted instances
	dbFileName    = ".bikebin.db"
	dbFileDefault = "bikebin.db"
)

// Color variables for console output.
var (
	StrongColor = color.New(color.FgGreen, color.Bold) // StrongColor marks a clearly useful forecaster.
	GoodColor   = color.New(color.FgCyan)              // GoodColor marks a usable forecaster.
	FairColor   = color.New(color.FgYellow)            // FairColor marks a marginal forecaster.
	WeakColor   = color.New(color.FgRed)               // WeakColor marks a forecaster near chance level.
)

// GetPlainLabel returns a plain text label describing an accuracy in [0,1].
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(accuracy float64, instances int) string {
	switch {
	case instances == 0:
		return NoDataValue
	case accuracy >= 0.8:
		return StrongValue
	case accuracy >= 0.6:
		return GoodValue
	case accuracy >= 0.4:
		return FairValue
	default:
		return WeakValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
func GetColorLabel(accuracy float64, instances int) string {
	text := GetPlainLabel(accuracy, instances)

	switch text {
	case StrongValue:
		return StrongColor.Sprint(text)
	case GoodValue:
		return GoodColor.Sprint(text)
	case FairValue:
		return FairColor.Sprint(text)
	case WeakValue:
		return WeakColor.Sprint(text)
	default:
		return text
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetDBFilePath returns the path to the default SQLite DB file.
func GetDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return dbFileDefault
	}
	return filepath.Join(homeDir, dbFileName)
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
