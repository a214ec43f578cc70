package cmd

import (
	"github.com/huangsam/bikebin/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the bikebin MCP server",
	Long: `Launch an MCP server over stdio that lets AI agents evaluate predictors
and inspect the bin store via standard tools.

Tools:
  evaluate_predictors  Run an evaluation with optional predictors, horizon and categories
  bin_status           Show bin store statistics`,
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(cmd.Context(), cfg, storeManager)
	},
}
