package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show what the knowledge base contains",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output stats as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if knowledgeService == nil {
		return errors.New("knowledge service not configured")
	}

	stats, err := knowledgeService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}

	if statsJSON {
		return printJSON(cmd, stats)
	}

	if !stats.Created {
		cmd.Println("Knowledge base is empty. Add files with 'sercha-kb add <file>'.")
		return nil
	}

	cmd.Println("Knowledge Base")
	cmd.Println("==============")
	if stats.Path != "" {
		cmd.Printf("  Path: %s\n", stats.Path)
	}
	cmd.Printf("  Records: %d\n", stats.Records)
	cmd.Printf("  Model: %s (%d dimensions)\n", stats.Model, stats.Dimensions)
	cmd.Println()

	cmd.Println("Files:")
	for _, s := range stats.Sources {
		cmd.Printf("  %-40s %d chunks\n", filepath.Base(s.Source), s.Chunks)
	}
	return nil
}
