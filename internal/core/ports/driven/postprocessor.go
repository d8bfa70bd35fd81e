package driven

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// PostProcessor is one pipeline stage. The chunker receives nil chunks
// and creates them from the document; later stages rewrite what the
// previous stage returned.
type PostProcessor interface {
	// Name is how pipeline.processors refers to the stage.
	Name() string
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline turns a loaded document into indexable chunks.
type PostProcessorPipeline interface {
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
