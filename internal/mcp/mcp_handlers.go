package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/racebar/core"
	"github.com/huangsam/racebar/internal/contract"
	"github.com/huangsam/racebar/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

// sourceConfig clones the base config and applies the table source arguments.
func (h *toolHandler) sourceConfig(request mcp.CallToolRequest) *contract.Config {
	cfg := h.baseCfg.Clone()
	if p := request.GetString("repo_path", ""); p != "" {
		cfg.RepoPath = p
		cfg.InputFile = ""
	}
	if in := request.GetString("input", ""); in != "" {
		cfg.InputFile = in
	}
	return cfg
}

// failure turns an error into a tool error result, naming bad input as such.
func failure(action string, err error) *mcp.CallToolResult {
	if schema.IsInvalidInput(err) {
		return mcp.NewToolResultError(fmt.Sprintf("invalid input: %v", err))
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", action, err))
}

// jsonResult encodes v as indented JSON text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleClassifyTenure(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.sourceConfig(request)

	result, _, err := core.GetTenureResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return failure("tenure classification", err), nil
	}
	return jsonResult(result)
}

func (h *toolHandler) handleBuildFrame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.sourceConfig(request)
	cfg.Bucket = request.GetString("bucket", cfg.Bucket)
	cfg.Speed = request.GetFloat("speed", cfg.Speed)
	cfg.MaxBars = request.GetInt("max_bars", cfg.MaxBars)
	cfg.Animate = request.GetBool("animate", cfg.Animate)

	// Reject bad frame options before touching git
	if err := contract.ValidateFrameInputs(cfg.Speed, cfg.MaxBars); err != nil {
		return failure("frame build", err), nil
	}

	chartFrame, _, err := core.GetFrameResult(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return failure("frame build", err), nil
	}
	return jsonResult(chartFrame)
}

func (h *toolHandler) handleListBuckets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.sourceConfig(request)

	summaries, _, err := core.GetBucketResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return failure("bucket listing", err), nil
	}
	return jsonResult(summaries)
}
