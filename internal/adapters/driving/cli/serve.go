package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/mcp"
)

var (
	serveAddr string
	serveMCP  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves the knowledge base over HTTP.

Endpoints:
  POST /upload   multipart form with a "file" field
  POST /ask      {"query": "...", "top_k": 4}
  POST /chat     {"message": "..."}
  GET  /stats
  GET  /health

With --mcp the MCP streamable HTTP transport is also served at /mcp.

Uploaded files are kept under <data-dir>/uploaded_files.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8000", "listen address")
	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "also serve MCP at /mcp")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if knowledgeService == nil {
		return errors.New("knowledge service not configured")
	}

	server, err := httpapi.NewServer(&httpapi.Ports{
		Knowledge: knowledgeService,
		Chat:      chatService,
	}, uploadDir)
	if err != nil {
		return err
	}

	if serveMCP {
		mcpServer, err := mcp.NewServer(&mcp.Ports{Knowledge: knowledgeService, Chat: chatService})
		if err != nil {
			return err
		}
		server.Mount("/mcp", mcpServer.Handler())
		cmd.Printf("MCP available at http://%s/mcp\n", serveAddr)
	}

	cmd.Printf("HTTP API listening on http://%s\n", serveAddr)
	return server.Run(cmd.Context(), serveAddr)
}
