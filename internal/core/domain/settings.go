package domain

const unknownDescription = "Unknown"

// AIProvider names a service that embeds text, answers prompts, or both.
type AIProvider string

// Known providers.
const (
	// AIProviderHashing embeds in-process by feature hashing. It needs no
	// network and no model download, and cannot answer questions.
	AIProviderHashing AIProvider = "hashing"

	AIProviderOllama    AIProvider = "ollama"
	AIProviderOpenAI    AIProvider = "openai"
	AIProviderAnthropic AIProvider = "anthropic"
)

// providerInfo is what the rest of the program needs to know about a
// provider. An empty default model means the provider lacks that capability.
type providerInfo struct {
	description    string
	apiKey         bool
	local          bool
	baseURL        bool
	embeddingModel string
	llmModel       string
}

// providerOrder fixes the order providers are offered in.
var providerOrder = []AIProvider{AIProviderHashing, AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic}

var providers = map[AIProvider]providerInfo{
	AIProviderHashing: {
		description:    "Hashing (built-in, offline)",
		local:          true,
		embeddingModel: "hashing-512",
	},
	AIProviderOllama: {
		description:    "Ollama (local)",
		local:          true,
		baseURL:        true,
		embeddingModel: "nomic-embed-text",
		llmModel:       "llama3.2",
	},
	AIProviderOpenAI: {
		description:    "OpenAI (cloud)",
		apiKey:         true,
		embeddingModel: "text-embedding-3-small",
		llmModel:       "gpt-4o-mini",
	},
	AIProviderAnthropic: {
		description: "Anthropic (cloud)",
		apiKey:      true,
		llmModel:    "claude-3-5-haiku-latest",
	},
}

// IsValid reports whether p is a known provider.
func (p AIProvider) IsValid() bool {
	_, ok := providers[p]
	return ok
}

// RequiresAPIKey reports whether p is a cloud API that needs a key.
func (p AIProvider) RequiresAPIKey() bool { return providers[p].apiKey }

// IsLocal reports whether p runs on the user's machine.
func (p AIProvider) IsLocal() bool { return providers[p].local }

// NeedsBaseURL reports whether p is a server whose address is configurable.
func (p AIProvider) NeedsBaseURL() bool { return providers[p].baseURL }

// SupportsEmbeddings reports whether p can embed text.
func (p AIProvider) SupportsEmbeddings() bool { return providers[p].embeddingModel != "" }

// SupportsLLM reports whether p can answer prompts.
func (p AIProvider) SupportsLLM() bool { return providers[p].llmModel != "" }

func (p AIProvider) String() string {
	return string(p)
}

// Description is the name shown in menus and settings output.
func (p AIProvider) Description() string {
	if info, ok := providers[p]; ok {
		return info.description
	}
	return unknownDescription
}

// EmbeddingSettings selects the embedder.
type EmbeddingSettings struct {
	Provider AIProvider
	Model    string

	// BaseURL overrides the provider endpoint: an Ollama server, or an
	// OpenAI-compatible one.
	BaseURL string
	APIKey  string
}

// IsConfigured reports whether the settings name an embedder that can be built.
func (e EmbeddingSettings) IsConfigured() bool {
	return e.Provider.SupportsEmbeddings() && (!e.Provider.RequiresAPIKey() || e.APIKey != "")
}

// LLMSettings selects the language model.
type LLMSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string
}

// IsConfigured reports whether the settings name a model that can be built.
func (l LLMSettings) IsConfigured() bool {
	return l.Provider.SupportsLLM() && (!l.Provider.RequiresAPIKey() || l.APIKey != "")
}

// RetrievalSettings controls how many chunks back an answer.
type RetrievalSettings struct {
	// TopK is the number of chunks retrieved per question.
	TopK int
}

// ChunkingSettings controls the sliding-window chunker.
type ChunkingSettings struct {
	// Size is the window length in characters.
	Size int

	// Overlap is the number of characters shared by consecutive chunks.
	// Must be strictly less than Size.
	Overlap int
}

// Valid returns true if the window advances on every step.
func (c ChunkingSettings) Valid() bool {
	return c.Size > 0 && c.Overlap >= 0 && c.Overlap < c.Size
}

// ChatSettings controls the conversational router.
type ChatSettings struct {
	// RouteKeywords send a message to the knowledge base when any appears in it.
	RouteKeywords []string
}

// StorageSettings controls where data is kept.
type StorageSettings struct {
	// DataDir is the root data directory. Empty means ~/.sercha-kb.
	DataDir string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Retrieval RetrievalSettings
	Chunking  ChunkingSettings
	Chat      ChatSettings
	Storage   StorageSettings
}

// DefaultAppSettings returns settings that work offline out of the box.
// The LLM is left unconfigured; questions need one to be answered.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderHashing,
			Model:    providers[AIProviderHashing].embeddingModel,
		},
		LLM: LLMSettings{},
		Retrieval: RetrievalSettings{
			TopK: DefaultTopK,
		},
		Chunking: ChunkingSettings{
			Size:    1000,
			Overlap: 100,
		},
		Chat: ChatSettings{
			RouteKeywords: DefaultRouteKeywords(),
		},
	}
}

// DefaultRouteKeywords returns the phrases that route a chat message to the knowledge base.
func DefaultRouteKeywords() []string {
	return []string{"knowledge base", "file", "document"}
}

// AllEmbeddingProviders lists the providers that can embed, in menu order.
func AllEmbeddingProviders() []AIProvider {
	return filterProviders(AIProvider.SupportsEmbeddings)
}

// AllLLMProviders lists the providers that can answer, in menu order.
func AllLLMProviders() []AIProvider {
	return filterProviders(AIProvider.SupportsLLM)
}

func filterProviders(keep func(AIProvider) bool) []AIProvider {
	var out []AIProvider
	for _, p := range providerOrder {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// DefaultEmbeddingModels maps each embedding provider to its default model.
func DefaultEmbeddingModels() map[AIProvider]string {
	out := make(map[AIProvider]string)
	for p, info := range providers {
		if info.embeddingModel != "" {
			out[p] = info.embeddingModel
		}
	}
	return out
}

// DefaultLLMModels maps each LLM provider to its default model.
func DefaultLLMModels() map[AIProvider]string {
	out := make(map[AIProvider]string)
	for p, info := range providers {
		if info.llmModel != "" {
			out[p] = info.llmModel
		}
	}
	return out
}

// EmbeddingDimensions lists the vector sizes of well-known embedding models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"hashing-512":            512,
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"all-minilm":             384,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
