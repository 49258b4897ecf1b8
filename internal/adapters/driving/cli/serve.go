package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yugasun/Feishu-MCP/internal/adapters/driving/mcp"
	"github.com/yugasun/Feishu-MCP/internal/adapters/driving/oauth"
	"github.com/yugasun/Feishu-MCP/internal/core/domain"
	"github.com/yugasun/Feishu-MCP/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

Use --port to start an HTTP server instead.

In user auth mode a local OAuth callback server runs alongside the MCP
transport so authorization URLs handed to the assistant can complete.

Examples:
  # Stdio mode (default, for Claude Desktop)
  feishu-mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  feishu-mcp serve --port 8080`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	a, err := buildApp()
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{Document: a.documents})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if a.cfg.Mode() == domain.AuthModeUser {
		callback := oauth.NewCallbackServer(a.cfg.CallbackPort, a.user)
		if err := callback.Start(); err != nil {
			return fmt.Errorf("starting callback server: %w", err)
		}
		defer callback.Stop(context.Background()) //nolint:errcheck
		logger.Info("OAuth callback server listening on port %d", callback.Port())
	}

	if port > 0 {
		logger.Info("MCP server listening on :%d", port)
		return server.RunHTTP(ctx, fmt.Sprintf(":%d", port))
	}
	return server.Run(ctx)
}
