package loaders

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// stubParser records calls and returns fixed documents.
type stubParser struct {
	format domain.Format
	docs   []domain.Document
	err    error
	calls  int
}

func (s *stubParser) Format() domain.Format { return s.format }

func (s *stubParser) Parse(_ context.Context, _ string, _ []byte) ([]domain.Document, error) {
	s.calls++
	return s.docs, s.err
}

func TestNewDefaultRegistry(t *testing.T) {
	r := NewDefaultRegistry()
	assert.Equal(t, domain.AllFormats(), r.Formats())

	for _, f := range domain.AllFormats() {
		p, err := r.Parser(f)
		require.NoError(t, err)
		assert.Equal(t, f, p.Format())
	}
}

func TestParser_Unregistered(t *testing.T) {
	_, err := NewRegistry().Parser(domain.FormatPDF)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestLoad_UnsupportedExtensionNoIO(t *testing.T) {
	r := NewDefaultRegistry()

	// The file does not exist: a read attempt would surface os.ErrNotExist.
	for _, path := range []string{"/nonexistent/notes.txt", "/nonexistent/README", "/nonexistent/sheet.xlsx"} {
		_, err := r.Load(context.Background(), path)
		assert.ErrorIs(t, err, domain.ErrUnsupportedFormat, path)
		assert.False(t, errors.Is(err, os.ErrNotExist), path)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := NewDefaultRegistry().Load(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_CSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.CSV")
	require.NoError(t, os.WriteFile(path, []byte("name\nAda\nGrace\n"), 0600))

	docs, err := NewDefaultRegistry().Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, path, docs[0].Source)
}

func TestLoadBytes_EmptyDocumentIsNotAnError(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubParser{format: domain.FormatCSV})

	docs, err := r.LoadBytes(context.Background(), "empty.csv", []byte("x"))
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestLoadBytes_ParserError(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubParser{format: domain.FormatPDF, err: domain.ErrInvalidInput})

	_, err := r.LoadBytes(context.Background(), "bad.pdf", []byte("x"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLoadBytes_Dispatch(t *testing.T) {
	pdfStub := &stubParser{format: domain.FormatPDF, docs: []domain.Document{{ID: "p1"}}}
	csvStub := &stubParser{format: domain.FormatCSV}

	r := NewRegistry()
	r.Register(pdfStub)
	r.Register(csvStub)

	docs, err := r.LoadBytes(context.Background(), "Report.PDF", []byte("x"))
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, 1, pdfStub.calls)
	assert.Equal(t, 0, csvStub.calls)
}

func TestLoadBytes_CancelledContext(t *testing.T) {
	stub := &stubParser{format: domain.FormatCSV}
	r := NewRegistry()
	r.Register(stub)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.LoadBytes(ctx, "a.csv", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, stub.calls)
}
