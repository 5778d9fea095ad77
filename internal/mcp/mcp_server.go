// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/racebar/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the racebar MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"racebar",
		version,
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: classify_tenure ---
	s.AddTool(mcp.NewTool("classify_tenure",
		mcp.WithDescription("Count how often each contributor reappears across time buckets and report the long-term contributors."),
		mcp.WithString("repo_path", mcp.Description("Path to the Git repository (defaults to the server's repository).")),
		mcp.WithString("input", mcp.Description("Path to an activity table JSON file, used instead of git history.")),
	), h.handleClassifyTenure)

	// --- 2. Tool: build_frame ---
	s.AddTool(mcp.NewTool("build_frame",
		mcp.WithDescription("Build the racing bar chart configuration for one time bucket."),
		mcp.WithString("repo_path", mcp.Description("Path to the Git repository.")),
		mcp.WithString("input", mcp.Description("Path to an activity table JSON file, used instead of git history.")),
		mcp.WithString("bucket", mcp.Description("Bucket key such as 2024-03. Defaults to the most recent bucket.")),
		mcp.WithNumber("speed", mcp.Description("Playback speed multiplier. Must be positive.")),
		mcp.WithNumber("max_bars", mcp.Description("Number of bars to keep (1 to 1000).")),
		mcp.WithBoolean("animate", mcp.Description("Animate axis and label transitions.")),
	), h.handleBuildFrame)

	// --- 3. Tool: list_buckets ---
	s.AddTool(mcp.NewTool("list_buckets",
		mcp.WithDescription("List the time buckets of the activity table with record counts, totals and leaders."),
		mcp.WithString("repo_path", mcp.Description("Path to the Git repository.")),
		mcp.WithString("input", mcp.Description("Path to an activity table JSON file, used instead of git history.")),
	), h.handleListBuckets)

	return s
}

// StartMCPServer serves the racebar tools over stdio until the client disconnects.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager, version string) error {
	s := NewMCPServer(baseCfg, mgr, version)
	return server.ServeStdio(s)
}
