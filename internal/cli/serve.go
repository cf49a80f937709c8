package cli

import (
	"github.com/spf13/cobra"

	"github.com/jmhartley/docdex/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdio",
	Long: `Start the Model Context Protocol server.

The server speaks JSON-RPC over stdio and exposes the ingest, search, and
cache tools to MCP-compatible assistants. Logs go to stderr; stdout carries
the protocol.

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "docdex": {
        "command": "/path/to/docdex",
        "args": ["serve"],
        "env": { "DOCDEX_ROOT": "/path/to/documents" }
      }
    }
  }`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	srv, err := mcp.NewServer(cfg)
	if err != nil {
		return err
	}
	return srv.Serve(cmd.Context())
}
