package services

import (
	"fmt"
	"slices"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyEmbedProvider = "embedding.provider"
	KeyEmbedModel    = "embedding.model"
	KeyEmbedBaseURL  = "embedding.base_url"
	KeyEmbedAPIKey   = "embedding.api_key"
	KeyLLMProvider   = "llm.provider"
	KeyLLMModel      = "llm.model"
	KeyLLMBaseURL    = "llm.base_url"
	KeyLLMAPIKey     = "llm.api_key"
	KeyTopK          = "retrieval.top_k"
	KeyChunkSize     = "pipeline.chunker.chunk_size"
	KeyChunkOverlap  = "pipeline.chunker.overlap"
	KeyProcessors    = "pipeline.processors"
	KeyRouteKeywords = "chat.route_keywords"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	errProviderAPIKeyf = "API key required for %s"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service. aiValidator may be nil,
// in which case provider changes are saved without a connectivity check.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings, filling gaps with defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(KeyEmbedProvider, defaults.Embedding.Provider),
			Model:    s.configStore.GetString(KeyEmbedModel),
			BaseURL:  s.configStore.GetString(KeyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(KeyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(KeyLLMProvider, defaults.LLM.Provider),
			Model:    s.configStore.GetString(KeyLLMModel),
			BaseURL:  s.configStore.GetString(KeyLLMBaseURL),
			APIKey:   s.configStore.GetString(KeyLLMAPIKey),
		},
		Retrieval: domain.RetrievalSettings{
			TopK: s.getPositiveInt(KeyTopK, defaults.Retrieval.TopK),
		},
		Chunking: domain.ChunkingSettings{
			Size:    s.getPositiveInt(KeyChunkSize, defaults.Chunking.Size),
			Overlap: s.getInt(KeyChunkOverlap, defaults.Chunking.Overlap),
		},
		Chat: domain.ChatSettings{
			RouteKeywords: s.getStringSlice(KeyRouteKeywords, defaults.Chat.RouteKeywords),
		},
	}

	// A stored model only applies to the provider it was chosen for.
	if settings.Embedding.Model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
	}
	if settings.LLM.Model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[settings.LLM.Provider]
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if !settings.Chunking.Valid() {
		return fmt.Errorf("%w: chunk overlap %d must be less than size %d",
			domain.ErrInvalidInput, settings.Chunking.Overlap, settings.Chunking.Size)
	}
	if settings.Retrieval.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidInput, settings.Retrieval.TopK)
	}

	values := []struct {
		key   string
		value any
		skip  bool
	}{
		{KeyEmbedProvider, settings.Embedding.Provider.String(), false},
		{KeyEmbedModel, settings.Embedding.Model, false},
		{KeyEmbedBaseURL, settings.Embedding.BaseURL, false},
		{KeyEmbedAPIKey, settings.Embedding.APIKey, settings.Embedding.APIKey == ""},
		{KeyLLMProvider, settings.LLM.Provider.String(), false},
		{KeyLLMModel, settings.LLM.Model, false},
		{KeyLLMBaseURL, settings.LLM.BaseURL, false},
		{KeyLLMAPIKey, settings.LLM.APIKey, settings.LLM.APIKey == ""},
		{KeyTopK, settings.Retrieval.TopK, false},
		{KeyChunkSize, settings.Chunking.Size, false},
		{KeyChunkOverlap, settings.Chunking.Overlap, false},
		{KeyRouteKeywords, settings.Chat.RouteKeywords, len(settings.Chat.RouteKeywords) == 0},
	}

	for _, v := range values {
		if v.skip {
			continue
		}
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider. The new
// configuration is pinged before it is saved.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf(errProviderAPIKeyf, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	previous := settings.Embedding.Provider
	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = baseURLFor(provider, previous, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	if s.aiValidator != nil {
		if err := s.aiValidator.ValidateEmbedding(&settings.Embedding); err != nil {
			return err
		}
	}
	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider. The new configuration is
// pinged before it is saved.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if !slices.Contains(domain.AllLLMProviders(), provider) {
		return fmt.Errorf("provider %s does not support text generation", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf(errProviderAPIKeyf, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	previous := settings.LLM.Provider
	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = baseURLFor(provider, previous, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	if s.aiValidator != nil {
		if err := s.aiValidator.ValidateLLM(&settings.LLM); err != nil {
			return err
		}
	}
	return s.Save(settings)
}

// SetRetrieval updates the number of chunks retrieved per question.
func (s *SettingsService) SetRetrieval(topK int) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Retrieval.TopK = topK
	return s.Save(settings)
}

// SetChunking updates the chunker window. It only affects files added afterwards.
func (s *SettingsService) SetChunking(size, overlap int) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Chunking = domain.ChunkingSettings{Size: size, Overlap: overlap}
	return s.Save(settings)
}

// Validate checks that the current settings can ingest files and answer questions.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %q is not configured",
			domain.ErrEmbeddingUnavailable, settings.Embedding.Provider)
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: questions need an LLM provider", domain.ErrLLMUnavailable)
	}
	if !settings.Chunking.Valid() {
		return fmt.Errorf("%w: chunk overlap %d must be less than size %d",
			domain.ErrInvalidInput, settings.Chunking.Overlap, settings.Chunking.Size)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getPositiveInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getStringSlice(key string, defaultVal []string) []string {
	val := s.configStore.GetStringSlice(key)
	if len(val) == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func modelOrDefault(model, defaultModel string) string {
	if model != "" {
		return model
	}
	return defaultModel
}

// baseURLFor keeps a custom Ollama URL when staying on Ollama, falls back to
// the local default when switching to it, and clears it for other providers.
func baseURLFor(provider, previous domain.AIProvider, current string) string {
	if !provider.NeedsBaseURL() {
		return ""
	}
	if previous == provider && current != "" {
		return current
	}
	return defaultOllamaURL
}
