// Package bootstrap wires the driven adapters into the core services.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/services"
	"github.com/custodia-labs/sercha-kb/internal/loaders"
	"github.com/custodia-labs/sercha-kb/internal/logger"
	"github.com/custodia-labs/sercha-kb/internal/postprocessors"
)

// Directory names under the data directory.
const (
	KnowledgeBaseDir = "knowledge_base"
	PromptsDir       = "prompts"
)

// Environment variables consulted when a cloud provider has no stored key.
const (
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
)

// Options controls how the application is assembled.
type Options struct {
	// DataDir is the root data directory. Empty means ~/.sercha-kb.
	DataDir string

	// Ephemeral keeps the knowledge base in memory for this process only.
	Ephemeral bool

	// ConfigStore overrides the TOML config store. Used by tests.
	ConfigStore driven.ConfigStore
}

// App holds the assembled services.
type App struct {
	Knowledge *services.KnowledgeBase
	Chat      *services.ChatService
	Settings  *services.SettingsService

	DataDir  string
	Warnings []string

	index driven.KnowledgeIndex
	ai    *ai.InitResult
}

// New builds the application. The persistent index is opened but not created:
// nothing is written under the knowledge base directory until the first file
// is added.
func New(ctx context.Context, opts Options) (*App, error) {
	dataDir := opts.DataDir
	if dataDir == "" {
		var err error
		if dataDir, err = file.DefaultDataDir(); err != nil {
			return nil, err
		}
	}

	configStore := opts.ConfigStore
	if configStore == nil {
		store, err := file.NewConfigStore(dataDir)
		if err != nil {
			return nil, fmt.Errorf("opening config: %w", err)
		}
		configStore = store
	}

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	settings.Storage.DataDir = dataDir
	ApplyEnv(settings)

	aiResult, err := ai.Init(settings)
	if err != nil {
		return nil, fmt.Errorf("initialising AI services: %w", err)
	}
	for _, w := range aiResult.Warnings {
		logger.Warn("%s", w)
	}

	pipeline, err := BuildPipeline(configStore, settings.Chunking)
	if err != nil {
		aiResult.Close()
		return nil, err
	}

	index, err := openIndex(ctx, dataDir, opts.Ephemeral)
	if err != nil {
		aiResult.Close()
		return nil, err
	}

	prompts, err := file.NewPromptStore(filepath.Join(dataDir, PromptsDir))
	if err != nil {
		aiResult.Close()
		index.Close()
		return nil, err
	}

	kb := services.NewKnowledgeBase(
		loaders.NewDefaultRegistry(),
		pipeline,
		aiResult.EmbeddingService,
		index,
		aiResult.LLMService,
		prompts,
		services.WithTopK(settings.Retrieval.TopK),
	)

	return &App{
		Knowledge: kb,
		Chat:      services.NewChatService(kb, aiResult.LLMService, prompts, settings.Chat.RouteKeywords),
		Settings:  settingsService,
		DataDir:   dataDir,
		Warnings:  aiResult.Warnings,
		index:     index,
		ai:        aiResult,
	}, nil
}

// NewSettingsService opens only the settings, for commands that must work
// while the AI providers are misconfigured.
func NewSettingsService(dataDir string) (*services.SettingsService, error) {
	store, err := file.NewConfigStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	return services.NewSettingsService(store, ai.NewConfigValidator()), nil
}

// UploadDir is where the HTTP API stores uploaded files.
func (a *App) UploadDir() string {
	return filepath.Join(a.DataDir, httpapi.UploadDir)
}

// Close releases the index and the AI services.
func (a *App) Close() error {
	var errs []error
	if a.index != nil {
		errs = append(errs, a.index.Close())
	}
	if a.ai != nil {
		a.ai.Close()
	}
	return errors.Join(errs...)
}

// ApplyEnv fills missing cloud API keys from the environment.
func ApplyEnv(settings *domain.AppSettings) {
	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = envKey(settings.Embedding.Provider)
	}
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = envKey(settings.LLM.Provider)
	}
}

func envKey(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderOpenAI:
		return os.Getenv(EnvOpenAIKey)
	case domain.AIProviderAnthropic:
		return os.Getenv(EnvAnthropicKey)
	default:
		return ""
	}
}

// BuildPipeline builds the post-processor pipeline named by the
// pipeline.processors key, passing each processor its pipeline.<name>.* settings.
func BuildPipeline(cfg driven.ConfigStore, chunking domain.ChunkingSettings) (*postprocessors.Pipeline, error) {
	if !chunking.Valid() {
		return nil, fmt.Errorf("%w: chunk overlap %d must be less than size %d",
			domain.ErrInvalidInput, chunking.Overlap, chunking.Size)
	}

	names := cfg.GetStringSlice(services.KeyProcessors)
	if len(names) == 0 {
		names = postprocessors.DefaultProcessors()
	}

	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)

	configs := map[string]map[string]any{
		"chunker": postprocessors.ChunkerConfig(chunking),
	}

	pipeline, err := registry.BuildPipeline(names, configs)
	if err != nil {
		return nil, fmt.Errorf("building pipeline: %w", err)
	}
	logger.Debug("Pipeline: %v", pipeline.Names())
	return pipeline, nil
}

func openIndex(ctx context.Context, dataDir string, ephemeral bool) (driven.KnowledgeIndex, error) {
	if ephemeral {
		logger.Debug("Using an in-memory knowledge base")
		return memory.NewIndex(), nil
	}

	index, err := sqlite.OpenIndex(ctx, filepath.Join(dataDir, KnowledgeBaseDir))
	if err != nil {
		return nil, fmt.Errorf("opening knowledge base: %w", err)
	}
	return index, nil
}
