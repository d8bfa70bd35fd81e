package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// Retriever finds the chunks most similar to a query.
type Retriever struct {
	embedder driven.EmbeddingService
	index    driven.KnowledgeIndex
	topK     int
}

// NewRetriever creates a retriever. topK is used when a call passes k <= 0;
// a non-positive topK falls back to domain.DefaultTopK.
func NewRetriever(embedder driven.EmbeddingService, index driven.KnowledgeIndex, topK int) *Retriever {
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	return &Retriever{
		embedder: embedder,
		index:    index,
		topK:     topK,
	}
}

// TopK returns the default number of chunks retrieved.
func (r *Retriever) TopK() int {
	return r.topK
}

// Retrieve embeds the query and returns up to k chunks, most similar first.
// Embedding failures are tagged UpstreamFailure.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievedChunk, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if k <= 0 {
		k = r.topK
	}
	if r.embedder == nil {
		return nil, domain.NewError(domain.KindUpstreamFailure, "retrieve", domain.ErrEmbeddingUnavailable)
	}

	logger.Debug("Retrieving top %d chunks for %q", k, query)

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, domain.NewError(domain.KindUpstreamFailure, "retrieve", fmt.Errorf("embed query: %w", err))
	}

	results, err := r.index.Search(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	for i, res := range results {
		logger.Debug("  %d. %s (position %d) score=%.4f", i+1, res.Source, res.Position, res.Score)
	}
	return results, nil
}
