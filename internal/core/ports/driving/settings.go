package driving

import "github.com/custodia-labs/sercha-kb/internal/core/domain"

// SettingsService reads and changes the persisted settings. Provider
// changes are checked against the provider before they are saved.
type SettingsService interface {
	Get() (*domain.AppSettings, error)
	Save(settings *domain.AppSettings) error

	// GetDefaults returns the settings of a fresh install.
	GetDefaults() domain.AppSettings

	// SetEmbeddingProvider and SetLLMProvider fill in the provider's
	// default model when model is empty.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// SetRetrieval sets top-k, which must be positive.
	SetRetrieval(topK int) error

	// SetChunking requires 0 <= overlap < size.
	SetChunking(size, overlap int) error

	// Validate reports whether questions can be answered with the saved settings.
	Validate() error

	// ValidateEmbeddingConfig and ValidateLLMConfig ping the saved providers.
	ValidateEmbeddingConfig() error
	ValidateLLMConfig() error
}
