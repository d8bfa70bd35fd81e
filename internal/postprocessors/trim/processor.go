// Package trim drops chunks that carry no text.
package trim

import (
	"context"
	"strings"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// Processor removes whitespace-only chunks and renumbers the survivors.
// It is not in the default pipeline because it changes chunk counts.
type Processor struct{}

// Name is the pipeline.processors entry for this processor.
const Name = "trim"

// New creates a trim processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return Name
}

// Process filters the chunks.
func (p *Processor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	kept := chunks[:0]
	for _, c := range chunks {
		if strings.TrimSpace(c.Content) == "" {
			continue
		}
		c.Position = len(kept)
		kept = append(kept, c)
	}
	return kept, nil
}
