package driven

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// DocumentParser extracts raw text documents from the bytes of one file format.
// There is exactly one parser per domain.Format.
type DocumentParser interface {
	// Format returns the format this parser handles.
	Format() domain.Format

	// Parse extracts documents from data. source is the file path or upload name,
	// recorded on every document. A file with no text returns an empty slice.
	Parse(ctx context.Context, source string, data []byte) ([]domain.Document, error)
}

// DocumentLoader selects a parser by file extension and loads files.
type DocumentLoader interface {
	// Load reads the file at path and parses it. Unsupported extensions fail with
	// domain.ErrUnsupportedFormat before any I/O.
	Load(ctx context.Context, path string) ([]domain.Document, error)

	// LoadBytes parses data already in memory, using name to select the parser.
	LoadBytes(ctx context.Context, name string, data []byte) ([]domain.Document, error)
}
