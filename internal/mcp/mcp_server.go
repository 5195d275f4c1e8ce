// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/rowscope/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Tool names exposed by the server.
const (
	AnalyzeFilesTool      = "analyze_files"
	ClassifyLatenciesTool = "classify_latencies"
	RecommendActsTool     = "recommend_acts_per_ref"
)

// NewMCPServer initializes and configures the rowscope MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Rowscope Analysis Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	thresholdOptions := []mcp.ToolOption{
		mcp.WithString("preset", mcp.Description("Threshold preset. Defaults to the server configuration."), mcp.Enum(contract.ActsPreset, contract.TimingsPreset)),
		mcp.WithNumber("no_conflict_threshold", mcp.Description("Latencies strictly below this are row buffer hits.")),
		mcp.WithNumber("conflict_threshold", mcp.Description("Latencies strictly above this are row conflicts.")),
		mcp.WithNumber("max_latency", mcp.Description("Drop samples at or above this latency before classifying. 0 disables filtering.")),
	}

	// --- 1. Tool: analyze_files ---
	s.AddTool(mcp.NewTool(AnalyzeFilesTool, append([]mcp.ToolOption{
		mcp.WithDescription("Classify the access timings in CSV or Parquet captures and recommend acts_per_ref for each one."),
		mcp.WithArray("paths", mcp.Description("Capture files to analyze."), mcp.Required(), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithString("column", mcp.Description("Name of the latency column. Defaults to 'timing'.")),
	}, thresholdOptions...)...), h.handleAnalyzeFiles)

	// --- 2. Tool: classify_latencies ---
	s.AddTool(mcp.NewTool(ClassifyLatenciesTool, append([]mcp.ToolOption{
		mcp.WithDescription("Classify an inline list of access latencies, indexed by position, and summarize conflict spacing."),
		mcp.WithArray("latencies", mcp.Description("Access latencies in acquisition order."), mcp.Required(), mcp.Items(map[string]any{"type": "number"})),
	}, thresholdOptions...)...), h.handleClassifyLatencies)

	// --- 3. Tool: recommend_acts_per_ref ---
	s.AddTool(mcp.NewTool(RecommendActsTool,
		mcp.WithDescription("Turn a known mean conflict spacing into an acts_per_ref value."),
		mcp.WithNumber("gap_mean", mcp.Description("Mean index distance between consecutive conflicts."), mcp.Required()),
	), h.handleRecommendActs)

	return s
}

// StartMCPServer starts the rowscope MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
