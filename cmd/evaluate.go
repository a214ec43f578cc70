package cmd

import (
	"github.com/huangsam/bikebin/core"
	"github.com/huangsam/bikebin/internal/contract"
	"github.com/spf13/cobra"
)

// evaluateCmd trains and scores the predictors on the stored bins.
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Train and score availability predictors on aggregated bins",
	Long: `Split the aggregated bins into training history and a test day, train every
selected predictor on the history and score its forecasts horizon bins ahead.

The last day of the window is held out for testing; all earlier days are
training history. The report holds one confusion matrix and an accuracy
value per predictor.

Predictors:
  online          Online logistic-regression classifier
  last-value      Repeats the current category
  historic-mean   Category of the mean bike count for the target daily bin
  historic-trend  Current count shifted by the historic change to the target bin

Each run is recorded in the store with its configuration and results.

Examples:
  # Evaluate all predictors on the stored bins
  bikebin evaluate --start 2013-06-07T00:00:00Z

  # Compare two baselines four bins ahead from a bins file
  bikebin evaluate --start 2013-06-07T00:00:00Z --bins-file bins.tsv --predictors last-value,historic-mean --horizon 4

  # Summary table with colored labels
  bikebin evaluate --start 2013-06-07T00:00:00Z --output table`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		if err := core.ExecuteEvaluate(cmd.Context(), cfg, storeManager); err != nil {
			contract.LogFatal("Error evaluating predictors", err)
		}
	},
}
