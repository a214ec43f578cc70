package cmd

import (
	"github.com/huangsam/bikebin/core"
	"github.com/huangsam/bikebin/internal/contract"
	"github.com/spf13/cobra"
)

// aggregateCmd turns raw sensor files into bin aggregates.
var aggregateCmd = &cobra.Command{
	Use:   "aggregate <raw-file>...",
	Short: "Aggregate raw dock readings into per-station time bins",
	Long: `Parse raw dock sensor readings and reduce them into one aggregate per
station and time bin.

Each input line has the form:
  <stationId> <bikesAvailable> <freeSlots> <timestampIso8601>

Lines outside the [start, start + days) window, lines with negative counts
and malformed lines are dropped and counted in the summary. Each bin keeps the
most frequent station size, the average bike count at that size and the
availability category of that average.

Bins are saved to the configured store. With --output-file they are also
written as tab-separated records that "bikebin evaluate --bins-file" reads.

Examples:
  # Aggregate two weeks of readings in 15 minute bins
  bikebin aggregate --start 2013-06-07T00:00:00Z --days 14 data/*.txt

  # Keep a copy of the bins on disk
  bikebin aggregate --start 2013-06-07T00:00:00Z --output-file bins.tsv data/raw.txt`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		if err := core.ExecuteAggregate(cmd.Context(), cfg, storeManager); err != nil {
			contract.LogFatal("Error aggregating readings", err)
		}
	},
}
