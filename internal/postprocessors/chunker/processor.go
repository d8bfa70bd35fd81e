// Package chunker provides a deterministic sliding-window text chunker.
package chunker

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// Name is the pipeline.processors entry for this processor.
const Name = "chunker"

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of characters shared by neighbouring chunks.
const DefaultChunkOverlap = 100

// Processor splits document content into fixed-size, overlapping windows.
// Sizes are counted in runes, so multi-byte text is never split mid-character.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// New creates a chunker. Overlap must be non-negative and strictly less than
// the chunk size, otherwise the window would never advance.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidInput, p.chunkSize)
	}
	if p.overlap < 0 || p.overlap >= p.chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be in [0, %d)", domain.ErrInvalidInput, p.overlap, p.chunkSize)
	}

	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return Name
}

// ChunkSize returns the configured window length.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Count returns how many chunks a text of n characters produces:
// 0 for empty text, 1 when it fits in one window, ceil((n-overlap)/(size-overlap)) otherwise.
func (p *Processor) Count(n int) int {
	switch {
	case n <= 0:
		return 0
	case n <= p.chunkSize:
		return 1
	}
	step := p.chunkSize - p.overlap
	return (n - p.overlap + step - 1) / step
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content := []rune(doc.Content)
	n := len(content)
	if n == 0 {
		return nil, nil
	}

	step := p.chunkSize - p.overlap
	chunks := make([]domain.Chunk, 0, p.Count(n))

	for start, position := 0, 0; ; start, position = start+step, position+1 {
		end := min(start+p.chunkSize, n)

		chunks = append(chunks, domain.Chunk{
			ID:         chunkID(doc.ID, position),
			DocumentID: doc.ID,
			Source:     doc.Source,
			Content:    string(content[start:end]),
			Position:   position,
			Offset:     start,
			Metadata:   make(map[string]any),
		})

		// The window that reaches the end of the text is the last one.
		if end == n {
			break
		}
	}

	return chunks, nil
}

// chunkID derives a stable ID from the owning document and position.
func chunkID(documentID string, position int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(documentID+"#"+strconv.Itoa(position))).String()
}
