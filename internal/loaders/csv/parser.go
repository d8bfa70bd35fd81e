// Package csv turns CSV rows into documents.
package csv

import (
	"bytes"
	"context"
	encodingcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// utf8BOM is stripped from the start of the file.
var utf8BOM = []byte("\xef\xbb\xbf")

// Ensure Parser implements the interface.
var _ driven.DocumentParser = (*Parser)(nil)

// Parser handles CSV files. The first record is the header; every
// non-blank data row becomes one document with a "header: value" line per column.
type Parser struct {
	comma rune
}

// Option configures the CSV parser.
type Option func(*Parser)

// WithComma sets the field delimiter.
func WithComma(r rune) Option {
	return func(p *Parser) {
		p.comma = r
	}
}

// New creates a new CSV parser.
func New(opts ...Option) *Parser {
	p := &Parser{comma: ','}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Format returns domain.FormatCSV.
func (p *Parser) Format() domain.Format {
	return domain.FormatCSV
}

// Parse reads every row. Row numbers in metadata are 1-based and count data
// rows only, so the first row after the header is row 1.
func (p *Parser) Parse(ctx context.Context, source string, data []byte) ([]domain.Document, error) {
	r := encodingcsv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.Comma = p.comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []domain.Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", domain.ErrInvalidInput, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	name := filepath.Base(source)
	docs := []domain.Document{}
	for row := 1; ; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", domain.ErrInvalidInput, row, err)
		}

		content := formatRow(header, record)
		if content == "" {
			continue
		}

		docs = append(docs, domain.Document{
			ID:      uuid.New().String(),
			Source:  source,
			Name:    name,
			Format:  domain.FormatCSV,
			Content: content,
			Metadata: map[string]any{
				domain.MetaRow: row,
			},
			CreatedAt: time.Now(),
		})
	}

	return docs, nil
}

// formatRow renders a record as "header: value" lines. Columns beyond the
// header are named by their 1-based index. A row of blank fields renders as "".
func formatRow(header, record []string) string {
	blank := true
	lines := make([]string, 0, len(record))
	for i, value := range record {
		value = strings.TrimSpace(value)
		if value != "" {
			blank = false
		}

		key := fmt.Sprintf("column %d", i+1)
		if i < len(header) && header[i] != "" {
			key = header[i]
		}
		lines = append(lines, key+": "+value)
	}

	if blank {
		return ""
	}
	return strings.Join(lines, "\n")
}
