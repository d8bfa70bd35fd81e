package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

var (
	askTopK int
	askJSON bool
	askYAML bool
)

// askOutput is the serialised answer.
type askOutput struct {
	Response     string        `json:"response" yaml:"response"`
	SourceChunks []chunkOutput `json:"source_chunks" yaml:"source_chunks"`
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about your files",
	Long: `Retrieves the chunks most similar to the question and asks the configured
LLM to answer from them. The chunks used are listed as sources.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of chunks to retrieve (default from settings)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().BoolVar(&askYAML, "yaml", false, "output the answer as YAML")
	askCmd.MarkFlagsMutuallyExclusive("json", "yaml")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if knowledgeService == nil {
		return errors.New("knowledge service not configured")
	}

	question := strings.Join(args, " ")
	answer, err := knowledgeService.Ask(cmd.Context(), question, domain.AskOptions{TopK: askTopK})
	if err != nil {
		return userError(err)
	}

	out := askOutput{
		Response:     answer.Response,
		SourceChunks: toChunkOutputs(answer.Sources),
	}
	switch {
	case askJSON:
		return printJSON(cmd, out)
	case askYAML:
		return printYAML(cmd, out)
	}

	cmd.Println(answer.Response)
	printSources(cmd, answer.Sources)
	return nil
}
