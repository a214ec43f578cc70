// Package logger builds the structured loggers used across bikebin.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// EnvVar selects a human-readable console format when set to "dev".
const EnvVar = "BIKEBIN_ENV"

// New creates a logger for the given component. Logs go to stderr so that
// stdout stays reserved for reports. An unknown level falls back to info.
func New(component, level string) zerolog.Logger {
	return NewWithWriter(os.Stderr, component, level, useConsole())
}

// NewWithWriter creates a logger writing to w, as JSON or console text.
func NewWithWriter(w io.Writer, component, level string, console bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: !isTerminal(w)}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("component", component).Logger()
}

func useConsole() bool {
	if strings.ToLower(os.Getenv(EnvVar)) == "dev" {
		return true
	}
	return isTerminal(os.Stderr)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
