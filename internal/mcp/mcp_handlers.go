package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/bikebin/core"
	"github.com/huangsam/bikebin/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
}

func (h *toolHandler) handleEvaluatePredictors(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	predictors := request.GetString("predictors", "")
	horizon := request.GetInt("horizon", 0)
	categories := request.GetInt("categories", 0)

	if err := contract.RevalidateEvaluation(cfg, predictors, horizon, categories); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid evaluation parameters: %v", err)), nil
	}

	output, err := core.GetEvaluationResults(ctx, cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("evaluation failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(output, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleBinStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bins := h.mgr.GetBinStore()
	if bins == nil {
		return mcp.NewToolResultError("bin store is not initialized"), nil
	}

	status, err := bins.GetStatus()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("status failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(status, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
