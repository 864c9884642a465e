package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/camdeck/internal/adapters/driving/mcp"
)

var mcpAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose clips to AI assistants over MCP",
	Long: `Runs a Model Context Protocol server with tools to list and inspect
clips and to report the running playback session.

The server speaks JSON-RPC on stdin/stdout unless --addr is given, in
which case it serves streamable HTTP at that address. "camdeck serve"
also mounts the same server under /mcp.

Assistant configuration:
  {
    "mcpServers": {
      "camdeck": {"command": "/path/to/camdeck", "args": ["mcp"]}
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpAddr, "addr", "", "serve HTTP on this address instead of stdio")
	rootCmd.AddCommand(mcpCmd)
}

// newMCPServer builds the MCP server over the configured services.
func newMCPServer() (*mcp.Server, error) {
	return mcp.NewServer(mcp.Config{
		Index:    indexService,
		Playback: playbackService,
		Version:  version,
		Logger:   appLogger,
	})
}

func runMCP(cmd *cobra.Command, _ []string) error {
	server, err := newMCPServer()
	if err != nil {
		return err
	}

	// stdout is the protocol channel, so the first scan runs in the background.
	ctx := commandContext(cmd)
	go func(ctx context.Context) {
		if _, err := ensureIndex(ctx); err != nil {
			appLogger.Warn("Building index: %v", err)
		}
	}(ctx)

	if mcpAddr == "" {
		return server.Run(ctx)
	}
	appLogger.Info("MCP listening on %s", mcpAddr)
	return server.RunHTTP(ctx, mcpAddr)
}
