package postprocessors

import (
	"math"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/postprocessors/annotate"
	"github.com/custodia-labs/sercha-kb/internal/postprocessors/chunker"
	"github.com/custodia-labs/sercha-kb/internal/postprocessors/trim"
)

// Chunker config keys.
const (
	keyChunkSize = "chunk_size"
	keyOverlap   = "overlap"
)

// DefaultProcessors is the pipeline used when pipeline.processors is unset.
func DefaultProcessors() []string {
	return []string{chunkerName, annotate.Name}
}

// RegisterDefaults installs the built-in processors.
func RegisterDefaults(r *Registry) {
	r.Register(chunkerName, buildChunker)
	r.Register(annotate.Name, func(map[string]any) (driven.PostProcessor, error) {
		return annotate.New(), nil
	})
	r.Register(trim.Name, func(map[string]any) (driven.PostProcessor, error) {
		return trim.New(), nil
	})
}

// ChunkerConfig expresses chunking settings as chunker config.
func ChunkerConfig(chunking domain.ChunkingSettings) map[string]any {
	return map[string]any{
		keyChunkSize: chunking.Size,
		keyOverlap:   chunking.Overlap,
	}
}

// NewDefaultPipeline returns DefaultProcessors with the given window.
func NewDefaultPipeline(chunking domain.ChunkingSettings) (*Pipeline, error) {
	r := NewRegistry()
	RegisterDefaults(r)
	return r.BuildPipeline(DefaultProcessors(), map[string]map[string]any{
		chunkerName: ChunkerConfig(chunking),
	})
}

// buildChunker reads chunk_size and overlap; either may be omitted.
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option
	if n, ok := intSetting(cfg, keyChunkSize); ok {
		opts = append(opts, chunker.WithChunkSize(n))
	}
	if n, ok := intSetting(cfg, keyOverlap); ok {
		opts = append(opts, chunker.WithOverlap(n))
	}
	return chunker.New(opts...)
}

// intSetting accepts the integer shapes TOML and JSON decoding produce.
// Fractional floats are rejected.
func intSetting(cfg map[string]any, key string) (int, bool) {
	switch v := cfg[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	}
	return 0, false
}
