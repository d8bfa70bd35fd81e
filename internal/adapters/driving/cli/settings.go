package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

var settingsYAML bool

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change settings",
	Long: `Without a subcommand, print the current settings and whether questions can
be answered with them. Subcommands change one group of settings; provider
changes are checked against the provider before they are saved.`,
	Annotations: map[string]string{annotationSettingsOnly: "true"},
	RunE:        runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings",
	RunE:  runSettingsShow,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Choose the embedding provider",
	Long: `Choose the provider that embeds chunks and questions.

Vectors from different models cannot be compared. After switching models,
start a new data directory or re-add your files.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return configureProvider(cmd, embeddingPicker)
	},
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Choose the language model provider",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return configureProvider(cmd, llmPicker)
	},
}

var settingsRetrievalCmd = &cobra.Command{
	Use:   "retrieval [top-k]",
	Short: "Set how many chunks back each answer",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSettingsRetrieval,
}

var settingsChunkingCmd = &cobra.Command{
	Use:   "chunking <size> <overlap>",
	Short: "Set the chunk window for files added from now on",
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsChunking,
}

func init() {
	settingsShowCmd.Flags().BoolVar(&settingsYAML, "yaml", false, "print settings as YAML")
	settingsCmd.AddCommand(settingsShowCmd, settingsEmbeddingCmd, settingsLLMCmd,
		settingsRetrievalCmd, settingsChunkingCmd)
	rootCmd.AddCommand(settingsCmd)
}

func requireSettings() error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return nil
}

// providerOutput is a provider section of `settings show --yaml`.
type providerOutput struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model,omitempty"`
	BaseURL    string `yaml:"base_url,omitempty"`
	APIKey     string `yaml:"api_key,omitempty"`
	Configured bool   `yaml:"configured"`
}

type settingsOutput struct {
	Embedding providerOutput `yaml:"embedding"`
	LLM       providerOutput `yaml:"llm"`
	TopK      int            `yaml:"top_k"`
	Chunking  struct {
		Size    int `yaml:"size"`
		Overlap int `yaml:"overlap"`
	} `yaml:"chunking"`
	RouteKeywords []string `yaml:"route_keywords"`
	Problem       string   `yaml:"problem,omitempty"`
}

func newProviderOutput(p domain.AIProvider, model, baseURL, apiKey string, configured bool) providerOutput {
	out := providerOutput{Provider: string(p), Model: model, Configured: configured}
	if p.NeedsBaseURL() {
		out.BaseURL = baseURL
	}
	if p.RequiresAPIKey() {
		out.APIKey = apiKeyStatus(apiKey)
	}
	return out
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	s, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	out := settingsOutput{
		Embedding: newProviderOutput(s.Embedding.Provider, s.Embedding.Model,
			s.Embedding.BaseURL, s.Embedding.APIKey, s.Embedding.IsConfigured()),
		LLM: newProviderOutput(s.LLM.Provider, s.LLM.Model,
			s.LLM.BaseURL, s.LLM.APIKey, s.LLM.IsConfigured()),
		TopK:          s.Retrieval.TopK,
		RouteKeywords: s.Chat.RouteKeywords,
	}
	out.Chunking.Size = s.Chunking.Size
	out.Chunking.Overlap = s.Chunking.Overlap
	if err := settingsService.Validate(); err != nil {
		out.Problem = err.Error()
	}

	if settingsYAML {
		return printYAML(cmd, out)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	printProvider(cmd, "Embedding", s.Embedding.Provider, out.Embedding)
	printProvider(cmd, "LLM", s.LLM.Provider, out.LLM)
	cmd.Printf("\n[Retrieval]\n  Top K: %d\n", out.TopK)
	cmd.Printf("\n[Chunking]\n  Size: %d\n  Overlap: %d\n", out.Chunking.Size, out.Chunking.Overlap)
	cmd.Printf("\n[Chat]\n  Route keywords: %s\n\n", strings.Join(out.RouteKeywords, ", "))

	if out.Problem != "" {
		cmd.Printf("Warning: %s\n", out.Problem)
		cmd.Println("Run 'sercha-kb settings llm' or 'sercha-kb settings embedding' to fix.")
		return nil
	}
	cmd.Println("Configuration is valid.")
	return nil
}

func printProvider(cmd *cobra.Command, title string, p domain.AIProvider, out providerOutput) {
	cmd.Printf("\n[%s]\n", title)
	if p == "" {
		cmd.Println("  Provider: (not set)")
	} else {
		cmd.Printf("  Provider: %s\n  Model: %s\n", p.Description(), out.Model)
	}
	if p.NeedsBaseURL() {
		cmd.Printf("  Base URL: %s\n", out.BaseURL)
	}
	if p.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", out.APIKey)
	}
	cmd.Printf("  Status: %s\n", configuredStatus(out.Configured))
}

// providerPicker describes one interactive provider choice.
type providerPicker struct {
	kind      string
	providers func() []domain.AIProvider
	defaults  func() map[domain.AIProvider]string
	save      func(p domain.AIProvider, model, apiKey string) error
}

var embeddingPicker = providerPicker{
	kind:      "Embedding",
	providers: domain.AllEmbeddingProviders,
	defaults:  domain.DefaultEmbeddingModels,
	save: func(p domain.AIProvider, model, apiKey string) error {
		return settingsService.SetEmbeddingProvider(p, model, apiKey)
	},
}

var llmPicker = providerPicker{
	kind:      "LLM",
	providers: domain.AllLLMProviders,
	defaults:  domain.DefaultLLMModels,
	save: func(p domain.AIProvider, model, apiKey string) error {
		return settingsService.SetLLMProvider(p, model, apiKey)
	},
}

func configureProvider(cmd *cobra.Command, pick providerPicker) error {
	if err := requireSettings(); err != nil {
		return err
	}
	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Printf("Select %s Provider\n", pick.kind)
	providers := pick.providers()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	provider := providers[parseChoice(readLine(reader), len(providers), 1)-1]

	model := pick.defaults()[provider]
	cmd.Printf("Enter model name [%s]: ", model)
	if typed := readLine(reader); typed != "" {
		model = typed
	}

	var apiKey string
	if provider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	cmd.Print("Validating configuration... ")
	if err := pick.save(provider, model, apiKey); err != nil {
		cmd.Println("FAILED")
		return fmt.Errorf("failed to configure %s provider: %w", strings.ToLower(pick.kind), err)
	}
	cmd.Println("OK")
	cmd.Printf("%s provider configured: %s (%s)\n\n", pick.kind, provider.Description(), model)
	return nil
}

func runSettingsRetrieval(cmd *cobra.Command, args []string) error {
	if err := requireSettings(); err != nil {
		return err
	}

	var input string
	if len(args) == 1 {
		input = args[0]
	} else {
		s, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		cmd.Printf("Chunks per answer [%d]: ", s.Retrieval.TopK)
		if input = readLine(bufio.NewReader(cmd.InOrStdin())); input == "" {
			input = strconv.Itoa(s.Retrieval.TopK)
		}
	}

	topK, err := strconv.Atoi(input)
	if err != nil {
		return fmt.Errorf("top-k must be a number, got %q", input)
	}
	if err := settingsService.SetRetrieval(topK); err != nil {
		return fmt.Errorf("failed to set retrieval: %w", err)
	}
	cmd.Printf("Top K set to %d\n", topK)
	return nil
}

func runSettingsChunking(cmd *cobra.Command, args []string) error {
	if err := requireSettings(); err != nil {
		return err
	}

	var window [2]int
	for i, name := range []string{"size", "overlap"} {
		n, err := strconv.Atoi(args[i])
		if err != nil {
			return fmt.Errorf("%s must be a number, got %q", name, args[i])
		}
		window[i] = n
	}

	if err := settingsService.SetChunking(window[0], window[1]); err != nil {
		return fmt.Errorf("failed to set chunking: %w", err)
	}
	cmd.Printf("Chunking set to %d characters with %d overlap. Files already added keep their chunks.\n",
		window[0], window[1])
	return nil
}

func readLine(reader *bufio.Reader) string {
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

// parseChoice turns a 1-based menu answer into a choice, using def for
// blank or out-of-range answers.
func parseChoice(input string, n, def int) int {
	choice, err := strconv.Atoi(input)
	if err != nil || choice < 1 || choice > n {
		return def
	}
	return choice
}

// readPassword reads without echo from a terminal, or a plain line otherwise.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if secret, err := term.ReadPassword(int(f.Fd())); err == nil {
			return strings.TrimSpace(string(secret))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func apiKeyStatus(key string) string {
	if key == "" {
		return "(not set)"
	}
	return maskAPIKey(key)
}

func configuredStatus(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}
