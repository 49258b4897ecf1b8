// Package cli implements the cobra command surface of the server.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/yugasun/Feishu-MCP/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	verboseFlag bool
	configFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "feishu-mcp",
	Short: "MCP server for Feishu/Lark documents",
	Long: `feishu-mcp exposes Feishu (Lark) document operations to MCP-compatible
AI assistants. It manages platform credentials transparently: tenant or
user auth mode, token caching and refresh, and scope verification.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging to stderr")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "path to config.toml (default ~/.feishu-mcp/config.toml)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
