package cmd

import (
	"github.com/huangsam/racebar/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp [repo-path]",
	Short: "Start the racebar MCP server",
	Long: `Launch an MCP server over stdio that lets AI agents classify tenure,
build frames and list buckets via standard tools.

The repository and flags given here become the defaults for every tool call.

Examples:
  # Serve the current repository
  racebar mcp

  # Serve with quarterly buckets and no history tracking
  racebar mcp --granularity quarter`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager, version)
	},
}
