// Package docx extracts text from Word documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.DocumentParser = (*Parser)(nil)

// Parser handles DOCX files. A file yields a single document.
type Parser struct{}

// New creates a new DOCX parser.
func New() *Parser {
	return &Parser{}
}

// Format returns domain.FormatDOCX.
func (p *Parser) Format() domain.Format {
	return domain.FormatDOCX
}

// Parse extracts the body text of a DOCX file.
func (p *Parser) Parse(_ context.Context, source string, data []byte) ([]domain.Document, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a docx archive: %v", domain.ErrInvalidInput, err)
	}

	content, err := extractDocumentText(reader)
	if err != nil {
		return nil, err
	}
	if content == "" {
		return []domain.Document{}, nil
	}

	doc := domain.Document{
		ID:      uuid.New().String(),
		Source:  source,
		Name:    filepath.Base(source),
		Format:  domain.FormatDOCX,
		Content: content,
		Metadata: map[string]any{
			domain.MetaTitle: extractTitle(reader, source),
		},
		CreatedAt: time.Now(),
	}

	return []domain.Document{doc}, nil
}

// extractDocumentText extracts text from word/document.xml.
func extractDocumentText(reader *zip.Reader) (string, error) {
	content, ok, err := readEntry(reader, "word/document.xml")
	if err != nil {
		return "", fmt.Errorf("%w: read document body: %v", domain.ErrInvalidInput, err)
	}
	if !ok {
		return "", nil
	}
	return parseDocumentXML(content)
}

// readEntry returns the contents of the named archive member.
func readEntry(reader *zip.Reader, name string) ([]byte, bool, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, false, err
		}
		defer rc.Close()

		content, err := io.ReadAll(rc)
		if err != nil {
			return nil, false, err
		}
		return content, true, nil
	}
	return nil, false, nil
}

// documentXML is the subset of word/document.xml we read.
type documentXML struct {
	Body body `xml:"body"`
}

// body keeps paragraphs and tables in document order, one line per
// paragraph or table row.
type body struct {
	Lines []string
}

func (b *body) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				var para paragraph
				if err := d.DecodeElement(&para, &t); err != nil {
					return err
				}
				b.Lines = append(b.Lines, para.text())
			case "tbl":
				var tbl table
				if err := d.DecodeElement(&tbl, &t); err != nil {
					return err
				}
				b.Lines = append(b.Lines, tbl.rows()...)
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
	Tabs []struct{}    `xml:"tab"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

type table struct {
	Rows []struct {
		Cells []struct {
			Paragraphs []paragraph `xml:"p"`
		} `xml:"tc"`
	} `xml:"tr"`
}

func (p paragraph) text() string {
	var b strings.Builder
	for _, r := range p.Runs {
		for range r.Tabs {
			b.WriteString("\t")
		}
		for _, t := range r.Text {
			b.WriteString(t.Content)
		}
	}
	return b.String()
}

// rows renders one line per row with cells separated by " | ".
func (t table) rows() []string {
	lines := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		cells := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			parts := make([]string, 0, len(cell.Paragraphs))
			for _, para := range cell.Paragraphs {
				parts = append(parts, para.text())
			}
			cells = append(cells, strings.TrimSpace(strings.Join(parts, " ")))
		}
		lines = append(lines, strings.Join(cells, " | "))
	}
	return lines
}

// parseDocumentXML joins the body lines with newlines.
func parseDocumentXML(content []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", fmt.Errorf("%w: malformed document body: %v", domain.ErrInvalidInput, err)
	}
	return strings.TrimSpace(strings.Join(doc.Body.Lines, "\n")), nil
}

// coreXML represents the structure of docProps/core.xml.
type coreXML struct {
	Title string `xml:"title"`
}

// extractTitle reads the title from docProps/core.xml, falling back to the file name.
func extractTitle(reader *zip.Reader, source string) string {
	if content, ok, err := readEntry(reader, "docProps/core.xml"); err == nil && ok {
		var core coreXML
		if err := xml.Unmarshal(content, &core); err == nil && strings.TrimSpace(core.Title) != "" {
			return strings.TrimSpace(core.Title)
		}
	}

	filename := filepath.Base(source)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}
