package domain

import "time"

// Well-known metadata keys attached to documents and chunks.
const (
	MetaSource = "source"
	MetaFormat = "format"
	MetaPage   = "page"
	MetaRow    = "row"
	MetaTitle  = "title"
	MetaOffset = "offset"
)

// Document is a raw text unit produced by a loader.
// A PDF yields one document per page, a CSV one per row, a DOCX one per file.
type Document struct {
	// ID uniquely identifies this document.
	ID string

	// Source is the path of the file the document was loaded from.
	Source string

	// Name is the base name of the source file.
	Name string

	// Format is the format of the source file.
	Format Format

	// Content is the extracted plain text.
	Content string

	// Metadata holds loader-specific attributes (page, row, title).
	Metadata map[string]any

	// CreatedAt is when the document was loaded.
	CreatedAt time.Time
}

// Chunk is a bounded-length span of a document's text.
type Chunk struct {
	// ID uniquely identifies this chunk.
	ID string

	// DocumentID references the document this chunk came from.
	DocumentID string

	// Source is the path of the file the document was loaded from.
	Source string

	// Content is the chunk text.
	Content string

	// Position is the chunk's index within its document.
	Position int

	// Offset is the rune offset of the chunk's first character in the document.
	Offset int

	// Metadata holds the document metadata plus chunk attributes.
	Metadata map[string]any
}

// EmbeddingRecord is a chunk together with its vector, as stored in the knowledge base.
type EmbeddingRecord struct {
	Chunk

	// Vector is the embedding of Chunk.Content.
	Vector []float32

	// Seq is the insertion sequence assigned by the index.
	Seq int64
}
