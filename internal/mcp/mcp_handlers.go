package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/huangsam/rowscope/core"
	"github.com/huangsam/rowscope/core/algo"
	"github.com/huangsam/rowscope/internal/contract"
	"github.com/huangsam/rowscope/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

func (h *toolHandler) handleAnalyzeFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()

	paths, err := stringArg(request, "paths")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(paths) == 0 {
		return mcp.NewToolResultError("paths must name at least one capture"), nil
	}
	cfg.Files = paths
	if c := strings.TrimSpace(request.GetString("column", "")); c != "" {
		cfg.Column = c
	}

	opts, err := resolveOptions(cfg, request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid thresholds: %v", err)), nil
	}
	cfg.Thresholds, cfg.MaxLatency = opts.Thresholds, opts.MaxLatency

	batch, err := core.RunBatch(ctx, cfg, h.mgr)
	if err != nil && !errors.Is(err, core.ErrAllFailed) {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	return jsonResult(batch)
}

func (h *toolHandler) handleClassifyLatencies(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	latencies, err := floatArg(request, "latencies")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	opts, err := resolveOptions(h.baseCfg, request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid thresholds: %v", err)), nil
	}

	analysis, err := algo.Analyze(schema.NewSampleSet(latencies), opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("classification failed: %v", err)), nil
	}
	return jsonResult(analysis)
}

func (h *toolHandler) handleRecommendActs(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, ok := request.GetArguments()["gap_mean"]; !ok {
		return mcp.NewToolResultError("gap_mean is required"), nil
	}
	gapMean := request.GetFloat("gap_mean", 0)

	acts, err := algo.RecommendActsPerRef(gapMean)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("recommendation failed: %v", err)), nil
	}
	return jsonResult(map[string]any{"gap_mean": gapMean, "acts_per_ref": acts})
}

// resolveOptions starts from base, applies a requested preset, then explicit overrides.
func resolveOptions(base *contract.Config, request mcp.CallToolRequest) (algo.Options, error) {
	opts := algo.Options{Thresholds: base.Thresholds, MaxLatency: base.MaxLatency}
	args := request.GetArguments()

	if name := strings.ToLower(request.GetString("preset", "")); name != "" {
		preset, ok := contract.Presets[name]
		if !ok {
			return opts, fmt.Errorf("%w: unknown preset %q", schema.ErrInvalidConfiguration, name)
		}
		opts.Thresholds, opts.MaxLatency = preset.Thresholds, preset.MaxLatency
	}
	if _, ok := args["no_conflict_threshold"]; ok {
		opts.Thresholds.NoConflict = request.GetFloat("no_conflict_threshold", 0)
	}
	if _, ok := args["conflict_threshold"]; ok {
		opts.Thresholds.Conflict = request.GetFloat("conflict_threshold", 0)
	}
	if _, ok := args["max_latency"]; ok {
		opts.MaxLatency = request.GetFloat("max_latency", 0)
	}

	return opts, opts.Validate()
}

// stringArg reads a required array of strings.
func stringArg(request mcp.CallToolRequest, key string) ([]string, error) {
	raw, err := arrayArg(request, key)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(raw))
	for i, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%s[%d] must be a string", key, i)
		}
		out = append(out, s)
	}
	return out, nil
}

// floatArg reads a required array of numbers.
func floatArg(request mcp.CallToolRequest, key string) ([]float64, error) {
	raw, err := arrayArg(request, key)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(raw))
	for i, v := range raw {
		switch n := v.(type) {
		case float64:
			out = append(out, n)
		case int:
			out = append(out, float64(n))
		case json.Number:
			f, err := n.Float64()
			if err != nil {
				return nil, fmt.Errorf("%s[%d] must be a number", key, i)
			}
			out = append(out, f)
		default:
			return nil, fmt.Errorf("%s[%d] must be a number", key, i)
		}
	}
	return out, nil
}

func arrayArg(request mcp.CallToolRequest, key string) ([]any, error) {
	v, ok := request.GetArguments()[key]
	if !ok {
		return nil, fmt.Errorf("%s is required", key)
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%s must be an array", key)
	}
	return raw, nil
}

// jsonResult wraps data as indented JSON text.
func jsonResult(data any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
