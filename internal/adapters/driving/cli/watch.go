package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/connectors/filesystem"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

var (
	watchScan     bool
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Add files to the knowledge base as they appear in a directory",
	Long: `Watches a directory tree and adds every PDF, DOCX or CSV file that is
created or rewritten. Hidden files and directories are ignored. Deleting a file
does not remove it from the knowledge base.

Press Ctrl-C to stop.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchScan, "scan", false, "also add supported files already in the directory")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", filesystem.DefaultDebounce,
		"quiet period after the last write before a file is added")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if knowledgeService == nil {
		return errors.New("knowledge service not configured")
	}

	root, err := filesystem.ResolvePath(args[0])
	if err != nil {
		return err
	}

	opts := []filesystem.Option{
		filesystem.WithDebounce(watchDebounce),
		filesystem.WithResultHandler(func(path string, result *domain.IngestResult, err error) {
			if err != nil {
				cmd.PrintErrf("Error adding %s: %v\n", path, userError(err))
				return
			}
			cmd.Println(result.Message)
		}),
	}
	if watchScan {
		opts = append(opts, filesystem.WithInitialScan())
	}

	w := filesystem.New(root, knowledgeService, opts...)
	defer w.Close()

	cmd.Printf("Watching %s (Ctrl-C to stop)\n", root)
	return w.Run(cmd.Context())
}
