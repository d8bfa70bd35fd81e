package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// mockKnowledgeService is a mock implementation of driving.KnowledgeService.
type mockKnowledgeService struct {
	result  *domain.IngestResult
	answer  *domain.Answer
	results []domain.RetrievedChunk
	stats   *domain.KnowledgeBaseStats
	err     error

	lastPath  string
	lastQuery string
	lastTopK  int
	lastLimit int
}

func (m *mockKnowledgeService) AddFile(_ context.Context, path string) (*domain.IngestResult, error) {
	m.lastPath = path
	return m.result, m.err
}

func (m *mockKnowledgeService) AddContent(_ context.Context, name string, _ []byte) (*domain.IngestResult, error) {
	m.lastPath = name
	return m.result, m.err
}

func (m *mockKnowledgeService) Ask(_ context.Context, query string, opts domain.AskOptions) (*domain.Answer, error) {
	m.lastQuery = query
	m.lastTopK = opts.TopK
	return m.answer, m.err
}

func (m *mockKnowledgeService) Search(_ context.Context, query string, k int) ([]domain.RetrievedChunk, error) {
	m.lastQuery = query
	m.lastLimit = k
	return m.results, m.err
}

func (m *mockKnowledgeService) Stats(_ context.Context) (*domain.KnowledgeBaseStats, error) {
	return m.stats, m.err
}

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	reply *domain.ChatReply
	err   error
}

func (m *mockChatService) Chat(_ context.Context, _ string) (*domain.ChatReply, error) {
	return m.reply, m.err
}

func sampleChunk(id, source, content string, score float64) domain.RetrievedChunk {
	return domain.RetrievedChunk{
		Chunk: domain.Chunk{
			ID:       id,
			Source:   source,
			Content:  content,
			Metadata: map[string]any{domain.MetaPage: 2},
		},
		Score: score,
	}
}
