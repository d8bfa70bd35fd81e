package tui

import "errors"

var (
	// ErrMissingKnowledgeService means Ports has no knowledge service.
	ErrMissingKnowledgeService = errors.New("tui: knowledge service is required")

	// ErrInvalidPorts wraps every Ports validation failure.
	ErrInvalidPorts = errors.New("tui: invalid ports configuration")
)
