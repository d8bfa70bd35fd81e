package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies an ingestible file format.
type Format string

// Supported formats. The set is closed: anything else is rejected at the boundary.
const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatCSV  Format = "csv"
)

// AllFormats returns every supported format.
func AllFormats() []Format {
	return []Format{FormatPDF, FormatDOCX, FormatCSV}
}

// IsValid returns true if the format is one of the supported formats.
func (f Format) IsValid() bool {
	switch f {
	case FormatPDF, FormatDOCX, FormatCSV:
		return true
	default:
		return false
	}
}

// Extension returns the file extension including the leading dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// String returns the string representation.
func (f Format) String() string {
	return string(f)
}

// Description returns a human-readable name.
func (f Format) Description() string {
	switch f {
	case FormatPDF:
		return "PDF document"
	case FormatDOCX:
		return "Word document"
	case FormatCSV:
		return "CSV table"
	default:
		return unknownDescription
	}
}

// FormatFromPath selects a format purely by file extension (case-insensitive).
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	f := Format(ext)
	if !f.IsValid() {
		if ext == "" {
			return "", fmt.Errorf("%w: %q has no extension", ErrUnsupportedFormat, filepath.Base(path))
		}
		return "", fmt.Errorf("%w: .%s", ErrUnsupportedFormat, ext)
	}
	return f, nil
}
