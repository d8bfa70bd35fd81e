package httpapi

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// mockKnowledgeService is a mock implementation of driving.KnowledgeService.
type mockKnowledgeService struct {
	mu sync.Mutex

	addFileFunc func(path string) (*domain.IngestResult, error)
	answer      *domain.Answer
	stats       *domain.KnowledgeBaseStats
	err         error

	addedPaths []string
	lastQuery  string
	lastOpts   domain.AskOptions
}

func (m *mockKnowledgeService) AddFile(_ context.Context, path string) (*domain.IngestResult, error) {
	m.mu.Lock()
	m.addedPaths = append(m.addedPaths, path)
	m.mu.Unlock()
	if m.addFileFunc != nil {
		return m.addFileFunc(path)
	}
	return &domain.IngestResult{Source: path, Message: "added"}, m.err
}

func (m *mockKnowledgeService) AddContent(_ context.Context, name string, _ []byte) (*domain.IngestResult, error) {
	return &domain.IngestResult{Source: name}, m.err
}

func (m *mockKnowledgeService) Ask(_ context.Context, query string, opts domain.AskOptions) (*domain.Answer, error) {
	m.lastQuery = query
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

func (m *mockKnowledgeService) Search(_ context.Context, _ string, _ int) ([]domain.RetrievedChunk, error) {
	return nil, m.err
}

func (m *mockKnowledgeService) Stats(_ context.Context) (*domain.KnowledgeBaseStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	reply       *domain.ChatReply
	err         error
	lastMessage string
}

func (m *mockChatService) Chat(_ context.Context, message string) (*domain.ChatReply, error) {
	m.lastMessage = message
	if m.err != nil {
		return nil, m.err
	}
	return m.reply, nil
}
