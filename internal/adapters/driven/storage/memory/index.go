package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.KnowledgeIndex = (*Index)(nil)

// Index is an in-memory knowledge index with brute-force cosine search.
// It is used directly for ephemeral sessions and as the search mirror of
// the SQLite index.
type Index struct {
	mu      sync.RWMutex
	model   string
	dims    int
	records []domain.EmbeddingRecord
	nextSeq int64
}

// NewIndex creates an empty in-memory index.
func NewIndex() *Index {
	return &Index{nextSeq: 1}
}

// Validate checks that records can be appended: every vector is non-empty,
// they all share one dimension, and that dimension matches the bound one.
// It returns the batch dimension.
func (i *Index) Validate(model string, records []domain.EmbeddingRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	dims := len(records[0].Vector)
	if dims == 0 {
		return 0, fmt.Errorf("%w: record %s has no vector", domain.ErrInvalidInput, records[0].ID)
	}
	for _, r := range records[1:] {
		if len(r.Vector) != dims {
			return 0, fmt.Errorf("%w: batch mixes %d and %d dimensions", domain.ErrDimensionMismatch, dims, len(r.Vector))
		}
	}

	i.mu.RLock()
	bound, boundModel := i.dims, i.model
	i.mu.RUnlock()

	if bound != 0 && bound != dims {
		return 0, fmt.Errorf("%w: index built with %s (%d dimensions), got %s (%d dimensions)",
			domain.ErrDimensionMismatch, boundModel, bound, model, dims)
	}
	return dims, nil
}

// Append validates the records, assigns insertion sequence numbers and adds
// them. Readers see either none or all of the batch.
func (i *Index) Append(ctx context.Context, model string, records []domain.EmbeddingRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dims, err := i.Validate(model, records)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	batch := slices.Clone(records)

	i.mu.Lock()
	defer i.mu.Unlock()

	// Another append may have bound the index since Validate ran.
	if i.dims != 0 && i.dims != dims {
		return fmt.Errorf("%w: index has %d dimensions, got %d", domain.ErrDimensionMismatch, i.dims, dims)
	}

	for j := range batch {
		batch[j].Seq = i.nextSeq
		i.nextSeq++
	}
	i.bind(model, dims)
	i.records = append(i.records, batch...)
	return nil
}

// Restore adds records whose sequence numbers were assigned elsewhere, e.g.
// rows loaded from disk. Records must be in ascending Seq order.
func (i *Index) Restore(model string, records []domain.EmbeddingRecord) {
	if len(records) == 0 {
		return
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	i.bind(model, len(records[0].Vector))
	i.records = append(i.records, records...)
	if last := records[len(records)-1].Seq; last >= i.nextSeq {
		i.nextSeq = last + 1
	}
}

// Bind records the model and dimension without adding records. Used when
// an index is loaded with metadata but no rows.
func (i *Index) Bind(model string, dims int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.bind(model, dims)
}

func (i *Index) bind(model string, dims int) {
	if i.dims == 0 {
		i.model = model
		i.dims = dims
	}
}

// NextSeq returns the sequence number the next appended record will get.
func (i *Index) NextSeq() int64 {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.nextSeq
}

// Search returns the k records most similar to vector, most similar first.
// Records with equal scores keep insertion order. An empty index returns an
// empty result.
func (i *Index) Search(ctx context.Context, vector []float32, k int) ([]domain.RetrievedChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	if len(i.records) == 0 {
		return []domain.RetrievedChunk{}, nil
	}
	if len(vector) != i.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(vector), i.dims)
	}

	queryNorm := Norm(vector)
	results := make([]domain.RetrievedChunk, len(i.records))
	for j, r := range i.records {
		results[j] = domain.RetrievedChunk{
			Chunk: r.Chunk,
			Score: Cosine(vector, queryNorm, r.Vector),
		}
	}

	slices.SortStableFunc(results, func(a, b domain.RetrievedChunk) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Count returns the number of records.
func (i *Index) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.records), nil
}

// Stats summarises the index. Sources are listed in first-ingested order.
func (i *Index) Stats(ctx context.Context) (*domain.KnowledgeBaseStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	stats := &domain.KnowledgeBaseStats{
		Created:    i.dims != 0,
		Records:    len(i.records),
		Dimensions: i.dims,
		Model:      i.model,
	}

	seen := make(map[string]int)
	for _, r := range i.records {
		idx, ok := seen[r.Source]
		if !ok {
			idx = len(stats.Sources)
			seen[r.Source] = idx
			stats.Sources = append(stats.Sources, domain.SourceStat{Source: r.Source})
		}
		stats.Sources[idx].Chunks++
	}
	return stats, nil
}

// Close releases the records.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.records = nil
	return nil
}
