// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/bikebin/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the bikebin MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Bikebin Evaluation Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: evaluate_predictors ---
	s.AddTool(mcp.NewTool("evaluate_predictors",
		mcp.WithDescription("Train and evaluate bike availability predictors on the stored bins. The last day of the window is held out for testing."),
		mcp.WithString("predictors", mcp.Description("Comma-separated predictors (online, last-value, historic-mean, historic-trend). Defaults to the configured list.")),
		mcp.WithNumber("horizon", mcp.Description("Number of bins ahead to forecast.")),
		mcp.WithNumber("categories", mcp.Description("Number of availability categories.")),
	), h.handleEvaluatePredictors)

	// --- 2. Tool: bin_status ---
	s.AddTool(mcp.NewTool("bin_status",
		mcp.WithDescription("Report how many bins are stored and which stations and days they cover."),
	), h.handleBinStatus)

	return s
}

// StartMCPServer starts the bikebin MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
