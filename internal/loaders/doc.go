// Package loaders turns files into raw text documents.
//
// The set of formats is closed: pdf, docx and csv. Each format has one
// parser, selected purely by file extension. Parsers are registered with
// the Registry at startup.
package loaders
