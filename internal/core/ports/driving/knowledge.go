package driving

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// KnowledgeService is the ingestion/query facade over the knowledge base.
//
// Failures are returned as *domain.Error tagged with a kind, so callers choose
// how to present them. An empty knowledge base is not an error: Ask returns an
// Answer with EmptyKnowledgeBase set.
type KnowledgeService interface {
	// AddFile loads, chunks, embeds and appends the file at path.
	// Unsupported extensions fail with kind UnsupportedFormat and leave the index untouched.
	AddFile(ctx context.Context, path string) (*domain.IngestResult, error)

	// AddContent ingests file bytes already in memory. name selects the format.
	AddContent(ctx context.Context, name string, data []byte) (*domain.IngestResult, error)

	// Ask answers a question from the most similar chunks.
	Ask(ctx context.Context, query string, opts domain.AskOptions) (*domain.Answer, error)

	// Search returns the k most similar chunks without calling the language model.
	Search(ctx context.Context, query string, k int) ([]domain.RetrievedChunk, error)

	// Stats summarises the knowledge base.
	Stats(ctx context.Context) (*domain.KnowledgeBaseStats, error)
}
