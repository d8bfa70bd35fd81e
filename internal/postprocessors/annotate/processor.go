// Package annotate copies document provenance onto chunks.
package annotate

import (
	"context"
	"maps"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// Processor stamps every chunk with its document's metadata plus the
// source path, format and character offset, so retrieved chunks can be
// traced back to a page or row.
type Processor struct{}

// Name is the pipeline.processors entry for this processor.
const Name = "annotate"

// New creates an annotate processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return Name
}

// Process annotates chunks in place and returns them.
func (p *Processor) Process(_ context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	for i := range chunks {
		meta := make(map[string]any, len(doc.Metadata)+3)
		maps.Copy(meta, doc.Metadata)
		maps.Copy(meta, chunks[i].Metadata)
		meta[domain.MetaSource] = doc.Source
		meta[domain.MetaFormat] = doc.Format.String()
		meta[domain.MetaOffset] = chunks[i].Offset
		chunks[i].Metadata = meta
	}
	return chunks, nil
}
