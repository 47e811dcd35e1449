package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brokerdesk/connect/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

The MCP session is bound to a single user; every fetch runs against that
user's provider connections. By default the server communicates over stdio
using JSON-RPC.

Use --port to start an HTTP server instead, which enables:
  - Testing with MCP Inspector web UI
  - Remote access via HTTP

Examples:
  # Stdio mode (default)
  connectd mcp serve --user broker-7

  # HTTP mode
  connectd mcp serve --user broker-7 --port 8090`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().String("user", "", "user id the MCP session acts for (required)")
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.MarkFlagRequired("user") //nolint:errcheck
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	user, err := cmd.Flags().GetString("user")
	if err != nil {
		return fmt.Errorf("getting user flag: %w", err)
	}
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	ports := &mcp.Ports{
		Fetch:       fetchService,
		Connections: connectionService,
	}

	server, err := mcp.NewServer(ports, user)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
