// Package mcp provides an MCP (Model Context Protocol) server adapter for the
// knowledge base. AI assistants can add files, ask questions and search chunks.
package mcp

import "errors"

// ErrMissingKnowledgeService is returned when the knowledge service is not provided.
var ErrMissingKnowledgeService = errors.New("mcp: knowledge service is required")
