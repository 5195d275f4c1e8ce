package cmd

import (
	"github.com/huangsam/rowscope/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the rowscope MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents classify captures and
inline latencies through standard tools.

The root flags and config file set the default thresholds, which each tool
call may override.`,
	PreRunE: func(_ *cobra.Command, args []string) error {
		return sharedSetup(rootCtx, args, false)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}
