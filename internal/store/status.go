package store

import (
	"fmt"
	"io"
	"slices"

	"github.com/huangsam/bikebin/schema"
)

// PrintBinStatus prints bin store status information.
func PrintBinStatus(w io.Writer, status schema.BinStatus) {
	_, _ = fmt.Fprintf(w, "Bin Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Bins: %d\n", status.TotalBins)
	if status.TotalBins > 0 {
		_, _ = fmt.Fprintf(w, "Stations: %d\n", status.Stations)
		_, _ = fmt.Fprintf(w, "Days: %d (day %d to day %d)\n", status.Days, status.FirstDayID, status.LastDayID)
	}
}

// PrintRunStatus prints run store status information.
func PrintRunStatus(w io.Writer, status schema.RunStatus) {
	_, _ = fmt.Fprintf(w, "Run Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Runs: %d\n", status.TotalRuns)
	if status.TotalRuns > 0 {
		_, _ = fmt.Fprintf(w, "Last Run ID: %s\n", status.LastRunID)
		_, _ = fmt.Fprintf(w, "Last Run: %s\n", status.LastRunTime.Format("2006-01-02 15:04:05"))
		_, _ = fmt.Fprintf(w, "Oldest Run: %s\n", status.OldestRun.Format("2006-01-02 15:04:05"))
		_, _ = fmt.Fprintf(w, "Total Results: %d\n", status.TotalResults)
	}
	_, _ = fmt.Fprintln(w, "Table Sizes:")
	tables := make([]string, 0, len(status.TableSizes))
	for table := range status.TableSizes {
		tables = append(tables, table)
	}
	slices.Sort(tables)
	for _, table := range tables {
		_, _ = fmt.Fprintf(w, "  %s: %d rows\n", table, status.TableSizes[table])
	}
}
