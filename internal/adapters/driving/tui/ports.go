// Package tui provides an interactive terminal chat over the knowledge base.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the TUI.
type Ports struct {
	// Knowledge answers questions and reports index stats.
	Knowledge driving.KnowledgeService

	// Chat routes messages between the knowledge base and the language model.
	// Optional: without it every message is asked of the knowledge base.
	Chat driving.ChatService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(knowledge driving.KnowledgeService, chat driving.ChatService) *Ports {
	return &Ports{
		Knowledge: knowledge,
		Chat:      chat,
	}
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Knowledge == nil {
		return ErrMissingKnowledgeService
	}
	return nil
}
