package driven

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// KnowledgeIndex stores embedding records and answers similarity queries.
//
// The index is append-only. It is created on the first Append and, for
// persistent implementations, loaded again on start. Appends and searches
// may run concurrently; a search never observes part of an Append.
type KnowledgeIndex interface {
	// Append adds records atomically. The first call fixes the index dimension;
	// later records of a different length fail with domain.ErrDimensionMismatch.
	// model names the embedding model and is recorded on creation.
	Append(ctx context.Context, model string, records []domain.EmbeddingRecord) error

	// Search returns up to k records ordered by cosine similarity, highest first.
	// Equal scores keep insertion order. An empty index returns no results and no error.
	Search(ctx context.Context, vector []float32, k int) ([]domain.RetrievedChunk, error)

	// Count returns the number of records.
	Count(ctx context.Context) (int, error)

	// Stats summarises the index.
	Stats(ctx context.Context) (*domain.KnowledgeBaseStats, error)

	// Close releases resources.
	Close() error
}
