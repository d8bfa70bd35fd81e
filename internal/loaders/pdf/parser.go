// Package pdf extracts text from PDF files, one document per page.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// Ensure Parser implements the interface.
var _ driven.DocumentParser = (*Parser)(nil)

// Parser handles PDF files.
type Parser struct{}

// New creates a new PDF parser.
func New() *Parser {
	return &Parser{}
}

// Format returns domain.FormatPDF.
func (p *Parser) Format() domain.Format {
	return domain.FormatPDF
}

// Parse extracts the plain text of every page. Pages without text are
// skipped; page numbers in metadata are 1-based.
func (p *Parser) Parse(ctx context.Context, source string, data []byte) (docs []domain.Document, err error) {
	// The reader panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			docs, err = nil, fmt.Errorf("%w: malformed pdf: %v", domain.ErrInvalidInput, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %v", domain.ErrInvalidInput, err)
	}

	name := filepath.Base(source)
	docs = []domain.Document{}
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warn("%s: page %d: %v", name, i, err)
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		docs = append(docs, domain.Document{
			ID:      uuid.New().String(),
			Source:  source,
			Name:    name,
			Format:  domain.FormatPDF,
			Content: text,
			Metadata: map[string]any{
				domain.MetaPage: i,
			},
			CreatedAt: time.Now(),
		})
	}

	return docs, nil
}
