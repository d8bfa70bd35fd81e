package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// AddFileInput is the input schema for the add_file tool.
type AddFileInput struct {
	Path string `json:"path" jsonschema:"absolute path of a .pdf, .docx or .csv file to add"`
}

// AddFileOutput is the output schema for the add_file tool.
type AddFileOutput struct {
	Message string `json:"message"`
	Chunks  int    `json:"chunks"`
}

// AskInput is the input schema for the ask_knowledge_base tool.
type AskInput struct {
	Query string `json:"query" jsonschema:"the question to answer from the knowledge base"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of chunks to retrieve (default 4)"`
}

// AskOutput is the output schema for the ask_knowledge_base tool.
type AskOutput struct {
	Response     string        `json:"response"`
	SourceChunks []ChunkOutput `json:"source_chunks"`
}

// SearchInput is the input schema for the search_knowledge_base tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"text to find similar chunks for"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of chunks to return (default 4)"`
}

// SearchOutput is the output schema for the search_knowledge_base tool.
type SearchOutput struct {
	Results []ChunkOutput `json:"results"`
	Count   int           `json:"count"`
}

// ChatInput is the input schema for the chat tool.
type ChatInput struct {
	Message string `json:"message" jsonschema:"a chat message; mention the knowledge base, a file or a document to search it"`
}

// ChatOutput is the output schema for the chat tool.
type ChatOutput struct {
	Response string `json:"response"`
	Route    string `json:"route"`
}

// ChunkOutput represents a single retrieved chunk.
type ChunkOutput struct {
	ChunkID  string         `json:"chunk_id"`
	Source   string         `json:"source"`
	Content  string         `json:"content"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.sdk, &mcp.Tool{
		Name:        "add_file",
		Description: "Add a PDF, DOCX or CSV file to the knowledge base",
	}, s.handleAddFile)

	mcp.AddTool(s.sdk, &mcp.Tool{
		Name:        "ask_knowledge_base",
		Description: "Answer a question using the files in the knowledge base",
	}, s.handleAsk)

	mcp.AddTool(s.sdk, &mcp.Tool{
		Name:        "search_knowledge_base",
		Description: "Return the chunks most similar to a query without generating an answer",
	}, s.handleSearch)

	if s.ports.Chat != nil {
		mcp.AddTool(s.sdk, &mcp.Tool{
			Name:        "chat",
			Description: "Send a chat message, answered from the knowledge base when it asks about files",
		}, s.handleChat)
	}
}

// handleAddFile handles the add_file tool invocation.
func (s *Server) handleAddFile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AddFileInput,
) (*mcp.CallToolResult, AddFileOutput, error) {
	result, err := s.ports.Knowledge.AddFile(ctx, input.Path)
	if err != nil {
		return nil, AddFileOutput{}, err
	}
	return nil, AddFileOutput{Message: result.Message, Chunks: result.Chunks}, nil
}

// handleAsk handles the ask_knowledge_base tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Knowledge.Ask(ctx, input.Query, domain.AskOptions{TopK: input.TopK})
	if err != nil {
		return nil, AskOutput{}, err
	}
	return nil, AskOutput{
		Response:     answer.Response,
		SourceChunks: toChunkOutputs(answer.Sources),
	}, nil
}

// handleSearch handles the search_knowledge_base tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = domain.DefaultTopK
	}

	results, err := s.ports.Knowledge.Search(ctx, input.Query, limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	return nil, SearchOutput{
		Results: toChunkOutputs(results),
		Count:   len(results),
	}, nil
}

// handleChat handles the chat tool invocation.
func (s *Server) handleChat(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ChatInput,
) (*mcp.CallToolResult, ChatOutput, error) {
	reply, err := s.ports.Chat.Chat(ctx, input.Message)
	if err != nil {
		return nil, ChatOutput{}, err
	}
	return nil, ChatOutput{Response: reply.Response, Route: string(reply.Route)}, nil
}

func toChunkOutputs(chunks []domain.RetrievedChunk) []ChunkOutput {
	out := make([]ChunkOutput, len(chunks))
	for i := range chunks {
		out[i] = ChunkOutput{
			ChunkID:  chunks[i].ID,
			Source:   chunks[i].Source,
			Content:  chunks[i].Content,
			Score:    chunks[i].Score,
			Metadata: chunks[i].Metadata,
		}
	}
	return out
}
