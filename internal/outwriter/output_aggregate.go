package outwriter

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/huangsam/bikebin/internal/contract"
	"github.com/huangsam/bikebin/schema"
)

// WriteAggregateSummary reports what an aggregation pass did with its input.
// JSON output is honored; every other mode prints text.
func WriteAggregateSummary(w io.Writer, summary schema.AggregateSummary, cfg *contract.Config) error {
	if cfg.Output == schema.JSONOut {
		return writeJSON(w, summary)
	}

	var reasons []string
	for _, reason := range sortedReasons(summary.Dropped) {
		reasons = append(reasons, fmt.Sprintf("%s: %d", reason, summary.Dropped[reason]))
	}

	lines := []string{
		"Aggregation:",
		fmt.Sprintf("Source files: %s", strings.Join(summary.SourceFiles, ", ")),
		fmt.Sprintf("Observations accepted: %d", summary.Accepted),
		fmt.Sprintf("Observations dropped: %d", summary.TotalDropped()),
	}
	if len(reasons) > 0 {
		lines[len(lines)-1] += " (" + strings.Join(reasons, ", ") + ")"
	}
	lines = append(lines,
		fmt.Sprintf("Bins emitted: %d (stations: %d)", summary.Bins, summary.Stations),
		fmt.Sprintf("Bins dropped (empty size): %d", summary.EmptyBins),
		fmt.Sprintf("Aggregation completed in %v with %d workers. Store backend: %s", summary.Duration, cfg.Workers, cfg.StoreBackend),
	)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// sortedReasons returns the drop reasons with a non-zero count in name order.
func sortedReasons(dropped map[schema.DropReason]int) []schema.DropReason {
	reasons := make([]schema.DropReason, 0, len(dropped))
	for reason, n := range dropped {
		if n > 0 {
			reasons = append(reasons, reason)
		}
	}
	slices.Sort(reasons)
	return reasons
}
