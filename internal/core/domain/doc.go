// Package domain defines the core entities of the sercha-kb knowledge base.
//
// This package is the innermost layer of the hexagon. It has no external
// dependencies and defines the fundamental types:
//
//   - Format: the closed set of ingestible file formats (pdf, docx, csv)
//   - Document: a raw text unit produced by a loader (a page, a row, a file)
//   - Chunk: a bounded, overlapping span of a document
//   - EmbeddingRecord: a chunk plus its vector, as stored in the knowledge base
//   - Answer: a generated response with the chunks it was grounded on
//   - Error: the tagged error type returned by the ingestion/query facade
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
