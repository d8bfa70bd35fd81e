package loaders

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/loaders/csv"
	"github.com/custodia-labs/sercha-kb/internal/loaders/docx"
	"github.com/custodia-labs/sercha-kb/internal/loaders/pdf"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.DocumentLoader = (*Registry)(nil)

// Registry maps formats to parsers and loads files through them.
type Registry struct {
	mu      sync.RWMutex
	parsers map[domain.Format]driven.DocumentParser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		parsers: make(map[domain.Format]driven.DocumentParser),
	}
}

// NewDefaultRegistry creates a registry with every built-in parser installed.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}

// RegisterDefaults installs the pdf, docx and csv parsers.
func RegisterDefaults(r *Registry) {
	r.Register(pdf.New())
	r.Register(docx.New())
	r.Register(csv.New())
}

// Register adds a parser, replacing any existing parser for the same format.
func (r *Registry) Register(p driven.DocumentParser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[p.Format()] = p
}

// Parser returns the parser for a format.
func (r *Registry) Parser(format domain.Format) (driven.DocumentParser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.parsers[format]
	if !ok {
		return nil, fmt.Errorf("%w: no parser for %s", domain.ErrUnsupportedFormat, format)
	}
	return p, nil
}

// Formats returns the formats with a registered parser, in canonical order.
func (r *Registry) Formats() []domain.Format {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var formats []domain.Format
	for _, f := range domain.AllFormats() {
		if _, ok := r.parsers[f]; ok {
			formats = append(formats, f)
		}
	}
	return formats
}

// Load reads and parses the file at path. The extension is checked before
// the file is opened, so unsupported files are rejected without any I/O.
func (r *Registry) Load(ctx context.Context, path string) ([]domain.Document, error) {
	parser, err := r.parserFor(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return r.parse(ctx, parser, path, data)
}

// LoadBytes parses data already in memory. name selects the parser and is
// recorded as the source of every document.
func (r *Registry) LoadBytes(ctx context.Context, name string, data []byte) ([]domain.Document, error) {
	parser, err := r.parserFor(name)
	if err != nil {
		return nil, err
	}
	return r.parse(ctx, parser, name, data)
}

func (r *Registry) parserFor(path string) (driven.DocumentParser, error) {
	format, err := domain.FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	return r.Parser(format)
}

func (r *Registry) parse(ctx context.Context, parser driven.DocumentParser, source string, data []byte) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	docs, err := parser.Parse(ctx, source, data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(source), err)
	}

	if len(docs) == 0 {
		logger.Warn("%s: %v", filepath.Base(source), domain.ErrEmptyDocument)
		return []domain.Document{}, nil
	}

	logger.Debug("loaded %d document(s) from %s", len(docs), source)
	return docs, nil
}
