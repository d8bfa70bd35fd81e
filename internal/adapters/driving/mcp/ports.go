package mcp

import (
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

// Ports are the services the MCP tools call.
type Ports struct {
	// Knowledge adds files and answers questions.
	Knowledge driving.KnowledgeService

	// Chat routes free-form messages. Optional.
	Chat driving.ChatService
}

// Validate reports a missing knowledge service. Chat may be nil.
func (p *Ports) Validate() error {
	if p == nil || p.Knowledge == nil {
		return ErrMissingKnowledgeService
	}
	return nil
}
