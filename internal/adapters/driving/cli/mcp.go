package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/mcp"
)

var (
	mcpAddr   string
	mcpNoChat bool
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the knowledge base to MCP clients",
	Long: `Serve the knowledge base as MCP tools: add_file, ask_knowledge_base,
search_knowledge_base and, when a language model is configured, chat.

Without --addr the server speaks JSON-RPC on stdin and stdout, which is what
desktop assistants expect:

  {"mcpServers": {"sercha-kb": {"command": "sercha-kb", "args": ["mcp", "serve"]}}}

With --addr it serves the streamable HTTP transport instead, e.g. for the
MCP Inspector. 'sercha-kb serve --mcp' mounts the same server under /mcp
next to the HTTP API.`,
	Example: `  sercha-kb mcp serve
  sercha-kb mcp serve --addr 127.0.0.1:8080`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().StringVar(&mcpAddr, "addr", "", "serve HTTP on this address instead of stdio")
	mcpServeCmd.Flags().BoolVar(&mcpNoChat, "no-chat", false, "do not offer the chat tool")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if knowledgeService == nil {
		return errors.New("knowledge service not configured")
	}

	ports := &mcp.Ports{Knowledge: knowledgeService}
	if !mcpNoChat {
		ports.Chat = chatService
	}
	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if mcpAddr == "" {
		return server.Run(cmd.Context())
	}
	// stdout is free in HTTP mode.
	fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://%s\n", mcpAddr)
	return server.RunHTTP(cmd.Context(), mcpAddr)
}
