package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/connectors/filesystem"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

var addCmd = &cobra.Command{
	Use:   "add <file>...",
	Short: "Add files to the knowledge base",
	Long: `Loads PDF, DOCX and CSV files, splits them into chunks and appends their
embeddings to the knowledge base. Adding the same file twice stores it twice.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	if knowledgeService == nil {
		return errors.New("knowledge service not configured")
	}

	failed := 0
	for _, arg := range args {
		path, err := filesystem.ResolvePath(arg)
		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			failed++
			continue
		}

		result, err := knowledgeService.AddFile(cmd.Context(), path)
		if err != nil {
			cmd.PrintErrf("Error: %v\n", userError(err))
			failed++
			continue
		}
		cmd.Println(result.Message)
	}

	if failed > 0 {
		return fmt.Errorf("failed to add %d of %d files", failed, len(args))
	}
	return nil
}

// userError adds a hint for the error kinds a user can act on.
func userError(err error) error {
	switch domain.KindOf(err) {
	case domain.KindUnsupportedFormat:
		return fmt.Errorf("%w (supported: .pdf, .docx, .csv)", err)
	case domain.KindUpstreamFailure:
		return fmt.Errorf("%w. Check the provider with 'sercha-kb settings'", err)
	default:
		return err
	}
}
