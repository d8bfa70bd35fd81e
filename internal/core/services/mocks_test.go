package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/loaders"
	"github.com/custodia-labs/sercha-kb/internal/postprocessors"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	mu        sync.Mutex
	embedding []float32
	embedErr  error
	calls     int
}

func (m *mockEmbeddingService) Embed(_ context.Context, _ string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.embedding, nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = m.embedding
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	return len(m.embedding)
}

func (m *mockEmbeddingService) ModelName() string {
	return "mock-embed"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return nil
}

func (m *mockEmbeddingService) Close() error {
	return nil
}

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	mu            sync.Mutex
	response      string
	err           error
	generateCalls int
	chatCalls     int
	lastPrompt    string
	lastMessages  []driven.ChatMessage
}

func (m *mockLLMService) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generateCalls++
	m.lastPrompt = prompt
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLMService) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chatCalls++
	m.lastMessages = messages
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLMService) ModelName() string {
	return "mock-llm"
}

func (m *mockLLMService) Ping(_ context.Context) error {
	return nil
}

func (m *mockLLMService) Close() error {
	return nil
}

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
	err     error
}

func newMockPromptStore() *mockPromptStore {
	return &mockPromptStore{prompts: map[string]string{
		driven.PromptAnswer:     "CONTEXT:\n%s\nQUESTION: %s",
		driven.PromptChatSystem: "You are a test assistant.",
	}}
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	p, ok := m.prompts[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// mockAIConfigValidator implements driven.AIConfigValidator for testing.
type mockAIConfigValidator struct {
	embedErr  error
	llmErr    error
	embedSeen *domain.EmbeddingSettings
	llmSeen   *domain.LLMSettings
}

func (m *mockAIConfigValidator) ValidateEmbedding(cfg *domain.EmbeddingSettings) error {
	m.embedSeen = cfg
	return m.embedErr
}

func (m *mockAIConfigValidator) ValidateLLM(cfg *domain.LLMSettings) error {
	m.llmSeen = cfg
	return m.llmErr
}

// pageParser stands in for the PDF parser: pages are separated by form feeds
// and each non-blank page becomes one document.
type pageParser struct{}

func (pageParser) Format() domain.Format { return domain.FormatPDF }

func (pageParser) Parse(_ context.Context, source string, data []byte) ([]domain.Document, error) {
	docs := []domain.Document{}
	for i, page := range strings.Split(string(data), "\f") {
		if strings.TrimSpace(page) == "" {
			continue
		}
		docs = append(docs, domain.Document{
			ID:       uuid.NewString(),
			Source:   source,
			Format:   domain.FormatPDF,
			Content:  page,
			Metadata: map[string]any{domain.MetaPage: i + 1},
		})
	}
	return docs, nil
}

// --- Test helpers ---

// testKB is a knowledge base wired to the real loaders, the default pipeline,
// the hashing embedder and an in-memory index.
type testKB struct {
	kb     *KnowledgeBase
	index  *memory.Index
	llm    *mockLLMService
	loader *loaders.Registry
}

func newTestKB(t *testing.T, opts ...KnowledgeBaseOption) *testKB {
	t.Helper()

	loader := loaders.NewDefaultRegistry()
	loader.Register(pageParser{})

	pipeline, err := postprocessors.NewDefaultPipeline(domain.DefaultAppSettings().Chunking)
	require.NoError(t, err)

	embedder, err := hashing.NewEmbeddingService()
	require.NoError(t, err)

	index := memory.NewIndex()
	llm := &mockLLMService{response: "generated answer"}

	return &testKB{
		kb:     NewKnowledgeBase(loader, pipeline, embedder, index, llm, newMockPromptStore(), opts...),
		index:  index,
		llm:    llm,
		loader: loader,
	}
}
