package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		provider AIProvider
		expected bool
	}{
		{AIProviderHashing, true},
		{AIProviderOllama, true},
		{AIProviderOpenAI, true},
		{AIProviderAnthropic, true},
		{AIProvider("cohere"), false},
		{AIProvider(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		expected bool
	}{
		{"hashing needs nothing", EmbeddingSettings{Provider: AIProviderHashing}, true},
		{"ollama without key", EmbeddingSettings{Provider: AIProviderOllama}, true},
		{"openai without key", EmbeddingSettings{Provider: AIProviderOpenAI}, false},
		{"openai with key", EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "sk-x"}, true},
		{"anthropic has no embeddings", EmbeddingSettings{Provider: AIProviderAnthropic, APIKey: "k"}, false},
		{"empty", EmbeddingSettings{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings LLMSettings
		expected bool
	}{
		{"ollama", LLMSettings{Provider: AIProviderOllama}, true},
		{"anthropic without key", LLMSettings{Provider: AIProviderAnthropic}, false},
		{"anthropic with key", LLMSettings{Provider: AIProviderAnthropic, APIKey: "k"}, true},
		{"hashing is not an llm", LLMSettings{Provider: AIProviderHashing}, false},
		{"empty", LLMSettings{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

func TestChunkingSettings_Valid(t *testing.T) {
	assert.True(t, ChunkingSettings{Size: 1000, Overlap: 100}.Valid())
	assert.True(t, ChunkingSettings{Size: 10, Overlap: 0}.Valid())
	assert.False(t, ChunkingSettings{Size: 100, Overlap: 100}.Valid())
	assert.False(t, ChunkingSettings{Size: 0, Overlap: 0}.Valid())
	assert.False(t, ChunkingSettings{Size: 10, Overlap: -1}.Valid())
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, AIProviderHashing, s.Embedding.Provider)
	assert.True(t, s.Embedding.IsConfigured())
	assert.False(t, s.LLM.IsConfigured())
	assert.Equal(t, DefaultTopK, s.Retrieval.TopK)
	assert.Equal(t, 1000, s.Chunking.Size)
	assert.Equal(t, 100, s.Chunking.Overlap)
	assert.Equal(t, DefaultRouteKeywords(), s.Chat.RouteKeywords)
}

func TestDefaultModels_CoverProviders(t *testing.T) {
	embedModels := DefaultEmbeddingModels()
	for _, p := range AllEmbeddingProviders() {
		model, ok := embedModels[p]
		assert.True(t, ok, p)
		assert.NotZero(t, EmbeddingDimensions()[model], model)
	}

	llmModels := DefaultLLMModels()
	for _, p := range AllLLMProviders() {
		assert.NotEmpty(t, llmModels[p], p)
	}
}

func TestAIProvider_Capabilities(t *testing.T) {
	tests := []struct {
		provider             AIProvider
		embeds, answers, key bool
	}{
		{AIProviderHashing, true, false, false},
		{AIProviderOllama, true, true, false},
		{AIProviderOpenAI, true, true, true},
		{AIProviderAnthropic, false, true, true},
		{AIProvider("cohere"), false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.provider.String(), func(t *testing.T) {
			assert.Equal(t, tt.embeds, tt.provider.SupportsEmbeddings())
			assert.Equal(t, tt.answers, tt.provider.SupportsLLM())
			assert.Equal(t, tt.key, tt.provider.RequiresAPIKey())
		})
	}

	assert.Equal(t, unknownDescription, AIProvider("cohere").Description())
	assert.Equal(t, []AIProvider{AIProviderHashing, AIProviderOllama, AIProviderOpenAI}, AllEmbeddingProviders())
	assert.Equal(t, []AIProvider{AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic}, AllLLMProviders())
}
