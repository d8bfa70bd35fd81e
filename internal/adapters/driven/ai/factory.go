// Package ai builds the embedding and language model adapters named by the
// settings and checks that they answer before anything depends on them.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	hashingembed "github.com/custodia-labs/sercha-kb/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/sercha-kb/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/sercha-kb/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/sercha-kb/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/sercha-kb/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/sercha-kb/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// pingTimeout bounds each connectivity check.
const pingTimeout = 5 * time.Second

// ErrNoEmbeddingSupport is returned for providers that only offer chat models.
var ErrNoEmbeddingSupport = errors.New("provider does not support embeddings")

type (
	embedderFunc func(*domain.EmbeddingSettings) (driven.EmbeddingService, error)
	llmFunc      func(*domain.LLMSettings) (driven.LLMService, error)
)

var embedders = map[domain.AIProvider]embedderFunc{
	domain.AIProviderHashing: func(s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
		svc, err := hashingembed.NewEmbeddingService(
			hashingembed.WithDimensions(hashingembed.DimensionsFromModel(s.Model)))
		if err != nil {
			return nil, err
		}
		return svc, nil
	},
	domain.AIProviderOllama: func(s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{BaseURL: s.BaseURL, Model: s.Model}), nil
	},
	domain.AIProviderOpenAI: func(s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil
	},
}

var llms = map[domain.AIProvider]llmFunc{
	domain.AIProviderOllama: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return ollamallm.NewLLMService(ollamallm.Config{BaseURL: s.BaseURL, Model: s.Model}), nil
	},
	domain.AIProviderOpenAI: func(s *domain.LLMSettings) (driven.LLMService, error) {
		svc, err := openaillm.NewLLMService(openaillm.Config{
			APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil
	},
	domain.AIProviderAnthropic: func(s *domain.LLMSettings) (driven.LLMService, error) {
		svc, err := anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil
	},
}

// InitResult holds the services built at startup.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService

	// Warnings are problems that leave the knowledge base usable, such as
	// an unreachable LLM.
	Warnings []string
}

// Close closes whichever services were built.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		_ = r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		_ = r.LLMService.Close()
	}
}

// Init builds and pings both services. Without a configured embedder the
// hashing embedder is used. The LLM is optional: ingestion and search work
// without one, so its problems become warnings.
func Init(settings *domain.AppSettings) (*InitResult, error) {
	embedding, err := CreateAndValidateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, err
	}

	result := &InitResult{EmbeddingService: embedding}
	if embedding == nil {
		if result.EmbeddingService, err = hashingembed.NewEmbeddingService(); err != nil {
			return nil, err
		}
		result.warn("embedding provider not configured, using the built-in hashing embedder")
	}

	result.LLMService, err = CreateAndValidateLLMService(&settings.LLM)
	switch {
	case err != nil:
		result.warn(err.Error())
	case result.LLMService == nil:
		result.warn("LLM provider not configured, questions cannot be answered. Run 'sercha-kb settings llm' to fix")
	}
	return result, nil
}

func (r *InitResult) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// CreateEmbeddingService builds the embedder named by settings, or returns
// nil when none is configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}
	if settings.Provider == domain.AIProviderAnthropic {
		return nil, fmt.Errorf("anthropic: %w, use hashing, ollama or openai", ErrNoEmbeddingSupport)
	}
	if !settings.IsConfigured() {
		return nil, nil
	}
	build, ok := embedders[settings.Provider]
	if !ok {
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
	return build(settings)
}

// CreateLLMService builds the language model named by settings, or returns
// nil when none is configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}
	build, ok := llms[settings.Provider]
	if !ok {
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
	return build(settings)
}

// CreateAndValidateEmbeddingService is CreateEmbeddingService followed by
// a ping. Failures wrap domain.ErrEmbeddingUnavailable.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	return ready(svc, err, domain.ErrEmbeddingUnavailable, "embedding")
}

// CreateAndValidateLLMService is CreateLLMService followed by a ping.
// Failures wrap domain.ErrLLMUnavailable.
func CreateAndValidateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	return ready(svc, err, domain.ErrLLMUnavailable, "llm")
}

// service is what both adapter kinds share.
type service interface {
	Ping(ctx context.Context) error
	Close() error
}

// ready pings a freshly built service and closes it on failure. section
// names the settings command that fixes the problem.
func ready[S service](svc S, err error, sentinel error, section string) (S, error) {
	var none S
	if err != nil {
		return none, fmt.Errorf("%w: %w. Run 'sercha-kb settings %s' to fix", sentinel, err, section)
	}
	if any(svc) == nil {
		return none, nil
	}
	if err := ping(svc); err != nil {
		_ = svc.Close()
		return none, fmt.Errorf("%w: service unreachable (%w). Run 'sercha-kb settings %s' to fix", sentinel, err, section)
	}
	return svc, nil
}

func ping(svc service) error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}
