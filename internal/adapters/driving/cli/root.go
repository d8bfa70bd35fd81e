// Package cli implements the sercha-kb command line.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/bootstrap"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// Command annotations that limit what is bootstrapped.
const (
	annotationNoServices   = "no-services"
	annotationSettingsOnly = "settings-only"
)

var (
	version = "dev"

	verbose   bool
	dataDir   string
	ephemeral bool
)

// Services used by the commands. Set by bootstrap, or by SetServices in tests.
var (
	knowledgeService driving.KnowledgeService
	chatService      driving.ChatService
	settingsService  driving.SettingsService
	uploadDir        string

	app *bootstrap.App
)

var rootCmd = &cobra.Command{
	Use:   "sercha-kb",
	Short: "Ask questions about your PDF, DOCX and CSV files",
	Long: `sercha-kb builds a local knowledge base from PDF, DOCX and CSV files and
answers questions about them with a language model.

Files are split into overlapping chunks, embedded and stored under the data
directory. Questions retrieve the most similar chunks and pass them to the
configured LLM as context.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.sercha-kb)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep the knowledge base in memory only")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetServices injects the services used by the commands.
func SetServices(kb driving.KnowledgeService, chat driving.ChatService, settings driving.SettingsService, uploads string) {
	knowledgeService = kb
	chatService = chat
	settingsService = settings
	uploadDir = uploads
}

// Execute runs the root command. Interrupts cancel the command context so
// long-running commands shut down cleanly.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if hasAnnotation(cmd, annotationNoServices) {
		return nil
	}

	// A missing .env is fine.
	_ = godotenv.Load()

	if hasAnnotation(cmd, annotationSettingsOnly) {
		if settingsService != nil {
			return nil
		}
		svc, err := bootstrap.NewSettingsService(dataDir)
		if err != nil {
			return err
		}
		settingsService = svc
		return nil
	}

	if knowledgeService != nil {
		return nil
	}

	a, err := bootstrap.New(cmd.Context(), bootstrap.Options{
		DataDir:   dataDir,
		Ephemeral: ephemeral,
	})
	if err != nil {
		return err
	}
	app = a
	SetServices(a.Knowledge, a.Chat, a.Settings, a.UploadDir())
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if app == nil {
		return nil
	}
	err := app.Close()
	app = nil
	SetServices(nil, nil, nil, "")
	return err
}

// hasAnnotation reports whether cmd or any parent carries the annotation.
func hasAnnotation(cmd *cobra.Command, key string) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if _, ok := c.Annotations[key]; ok {
			return true
		}
	}
	return false
}
