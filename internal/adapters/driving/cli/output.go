package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// chunkOutput is the serialised form of a retrieved chunk.
type chunkOutput struct {
	ChunkID  string         `json:"chunk_id" yaml:"chunk_id"`
	Source   string         `json:"source" yaml:"source"`
	Content  string         `json:"content" yaml:"content"`
	Score    float64        `json:"score" yaml:"score"`
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

func toChunkOutputs(chunks []domain.RetrievedChunk) []chunkOutput {
	out := make([]chunkOutput, len(chunks))
	for i := range chunks {
		out[i] = chunkOutput{
			ChunkID:  chunks[i].ID,
			Source:   chunks[i].Source,
			Content:  chunks[i].Content,
			Score:    chunks[i].Score,
			Metadata: chunks[i].Metadata,
		}
	}
	return out
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func printYAML(cmd *cobra.Command, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Print(string(data))
	return nil
}

// sourceLabel names where a chunk came from: "report.pdf, page 2".
func sourceLabel(c *domain.RetrievedChunk) string {
	label := filepath.Base(c.Source)
	if page, ok := c.Metadata[domain.MetaPage]; ok {
		return fmt.Sprintf("%s, page %v", label, page)
	}
	if row, ok := c.Metadata[domain.MetaRow]; ok {
		return fmt.Sprintf("%s, row %v", label, row)
	}
	return label
}

// snippet shortens chunk text for listings.
func snippet(text string, maxRunes int) string {
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes]) + "..."
}

func printSources(cmd *cobra.Command, chunks []domain.RetrievedChunk) {
	if len(chunks) == 0 {
		return
	}
	cmd.Println()
	cmd.Println("Sources:")
	for i := range chunks {
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, sourceLabel(&chunks[i]), chunks[i].Score)
	}
}
