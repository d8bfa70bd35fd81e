package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// Ensure KnowledgeBase implements the interface.
var _ driving.KnowledgeService = (*KnowledgeBase)(nil)

// DefaultEmbedBatchSize is the number of chunks embedded per EmbedBatch call.
const DefaultEmbedBatchSize = 64

// KnowledgeBase is the ingestion and query facade. It owns the index handed
// to it and serialises whole-file ingests.
type KnowledgeBase struct {
	ingestMu  sync.Mutex
	loader    driven.DocumentLoader
	pipeline  driven.PostProcessorPipeline
	embedder  driven.EmbeddingService
	index     driven.KnowledgeIndex
	retriever *Retriever
	responder *Responder
	batchSize int
}

// KnowledgeBaseOption configures a KnowledgeBase.
type KnowledgeBaseOption func(*KnowledgeBase)

// WithTopK sets the default number of chunks retrieved per question.
func WithTopK(k int) KnowledgeBaseOption {
	return func(kb *KnowledgeBase) {
		kb.retriever = NewRetriever(kb.embedder, kb.index, k)
	}
}

// WithEmbedBatchSize sets how many chunks are embedded per call.
func WithEmbedBatchSize(n int) KnowledgeBaseOption {
	return func(kb *KnowledgeBase) {
		if n > 0 {
			kb.batchSize = n
		}
	}
}

// NewKnowledgeBase creates the facade. llm may be nil: files can still be
// added and searched, but Ask fails with UpstreamFailure.
func NewKnowledgeBase(
	loader driven.DocumentLoader,
	pipeline driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
	index driven.KnowledgeIndex,
	llm driven.LLMService,
	prompts driven.PromptStore,
	opts ...KnowledgeBaseOption,
) *KnowledgeBase {
	kb := &KnowledgeBase{
		loader:    loader,
		pipeline:  pipeline,
		embedder:  embedder,
		index:     index,
		responder: NewResponder(llm, prompts),
		batchSize: DefaultEmbedBatchSize,
	}
	kb.retriever = NewRetriever(embedder, index, domain.DefaultTopK)

	for _, opt := range opts {
		opt(kb)
	}
	return kb
}

// AddFile loads, chunks, embeds and appends the file at path.
func (kb *KnowledgeBase) AddFile(ctx context.Context, path string) (*domain.IngestResult, error) {
	const op = "add_file"

	format, err := domain.FormatFromPath(path)
	if err != nil {
		return nil, domain.NewError(domain.KindUnsupportedFormat, op, err)
	}

	logger.Section("Add File")
	logger.Debug("Path: %s (%s)", path, format)

	docs, err := kb.loader.Load(ctx, path)
	if err != nil {
		return nil, tagLoadError(op, err)
	}
	return kb.ingest(ctx, op, path, format, docs)
}

// AddContent ingests file bytes already in memory. name selects the format.
func (kb *KnowledgeBase) AddContent(ctx context.Context, name string, data []byte) (*domain.IngestResult, error) {
	const op = "add_content"

	format, err := domain.FormatFromPath(name)
	if err != nil {
		return nil, domain.NewError(domain.KindUnsupportedFormat, op, err)
	}

	logger.Section("Add Content")
	logger.Debug("Name: %s (%s, %d bytes)", name, format, len(data))

	docs, err := kb.loader.LoadBytes(ctx, name, data)
	if err != nil {
		return nil, tagLoadError(op, err)
	}
	return kb.ingest(ctx, op, name, format, docs)
}

// ingest chunks, embeds and appends documents from one file. The index sees
// either every record of the file or none.
func (kb *KnowledgeBase) ingest(
	ctx context.Context, op, source string, format domain.Format, docs []domain.Document,
) (*domain.IngestResult, error) {
	kb.ingestMu.Lock()
	defer kb.ingestMu.Unlock()

	name := filepath.Base(source)
	result := &domain.IngestResult{
		Source:    source,
		Format:    format,
		Documents: len(docs),
	}

	var chunks []domain.Chunk
	for i := range docs {
		docChunks, err := kb.pipeline.Process(ctx, &docs[i])
		if err != nil {
			return nil, fmt.Errorf("%s: chunk %s: %w", op, name, err)
		}
		chunks = append(chunks, docChunks...)
	}
	logger.Debug("Loaded %d documents, %d chunks", len(docs), len(chunks))

	if len(chunks) == 0 {
		logger.Info("%s: %v", name, domain.ErrEmptyDocument)
		result.Empty = true
		result.Message = fmt.Sprintf("File %s contained no extractable text; nothing was added.", name)
		return result, nil
	}

	vectors, err := kb.embed(ctx, chunks)
	if err != nil {
		return nil, domain.NewError(domain.KindUpstreamFailure, op, err)
	}

	records := make([]domain.EmbeddingRecord, len(chunks))
	for i := range chunks {
		records[i] = domain.EmbeddingRecord{Chunk: chunks[i], Vector: vectors[i]}
	}

	if err := kb.index.Append(ctx, kb.embedder.ModelName(), records); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result.Chunks = len(records)
	result.Message = fmt.Sprintf("File %s added to the knowledge base!", name)
	logger.Info("Added %s: %d documents, %d chunks", name, result.Documents, result.Chunks)
	return result, nil
}

// embed returns one vector per chunk, calling the embedder in batches.
func (kb *KnowledgeBase) embed(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	if kb.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += kb.batchSize {
		end := min(start+kb.batchSize, len(chunks))

		texts := make([]string, end-start)
		for i, c := range chunks[start:end] {
			texts[i] = c.Content
		}

		batch, err := kb.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks %d-%d: %w", start, end-1, err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("embed chunks %d-%d: got %d vectors for %d texts", start, end-1, len(batch), len(texts))
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// Ask answers a question from the most similar chunks. Before anything has
// been ingested it returns the empty knowledge base message without calling
// the embedder or the language model.
func (kb *KnowledgeBase) Ask(ctx context.Context, query string, opts domain.AskOptions) (*domain.Answer, error) {
	logger.Section("Ask")

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("ask: %w: empty question", domain.ErrInvalidInput)
	}

	count, err := kb.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("ask: %w", err)
	}
	if count == 0 {
		logger.Debug("Knowledge base is empty")
		return &domain.Answer{
			Query:              query,
			Response:           domain.EmptyKnowledgeBaseMessage,
			EmptyKnowledgeBase: true,
		}, nil
	}

	chunks, err := kb.retriever.Retrieve(ctx, query, opts.TopK)
	if err != nil {
		return nil, err
	}
	return kb.responder.Respond(ctx, query, chunks)
}

// Search returns the k most similar chunks without calling the language model.
func (kb *KnowledgeBase) Search(ctx context.Context, query string, k int) ([]domain.RetrievedChunk, error) {
	count, err := kb.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if count == 0 {
		return []domain.RetrievedChunk{}, nil
	}
	return kb.retriever.Retrieve(ctx, query, k)
}

// Stats summarises the knowledge base.
func (kb *KnowledgeBase) Stats(ctx context.Context) (*domain.KnowledgeBaseStats, error) {
	return kb.index.Stats(ctx)
}

// tagLoadError tags unsupported formats and wraps everything else.
func tagLoadError(op string, err error) error {
	if errors.Is(err, domain.ErrUnsupportedFormat) {
		return domain.NewError(domain.KindUnsupportedFormat, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
