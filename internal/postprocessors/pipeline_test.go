package postprocessors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// stubProcessor records what it saw and replies with out (or its input
// when out is nil).
type stubProcessor struct {
	name string
	out  []domain.Chunk
	err  error

	got [][]domain.Chunk
}

func (s *stubProcessor) Name() string { return s.name }

func (s *stubProcessor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	s.got = append(s.got, chunks)
	if s.err != nil {
		return nil, s.err
	}
	if s.out != nil {
		return s.out, nil
	}
	return chunks, nil
}

func testDoc() *domain.Document {
	return &domain.Document{ID: "doc-1", Content: "alpha beta"}
}

func TestPipeline_ThreadsChunks(t *testing.T) {
	first := &stubProcessor{name: "first", out: []domain.Chunk{{ID: "a"}}}
	second := &stubProcessor{name: "second", out: []domain.Chunk{{ID: "a"}, {ID: "b"}}}
	passthrough := &stubProcessor{name: "passthrough"}

	p := NewPipeline(first, second)
	p.Add(passthrough)
	assert.Equal(t, 3, p.Len())
	assert.Equal(t, []string{"first", "second", "passthrough"}, p.Names())

	chunks, err := p.Process(context.Background(), testDoc())
	require.NoError(t, err)

	assert.Nil(t, first.got[0], "the first processor starts from nothing")
	assert.Equal(t, first.out, second.got[0])
	assert.Equal(t, second.out, passthrough.got[0])
	assert.Equal(t, second.out, chunks)
}

func TestPipeline_Empty(t *testing.T) {
	chunks, err := NewPipeline().Process(context.Background(), testDoc())
	require.NoError(t, err)
	assert.Nil(t, chunks)
}

func TestPipeline_NilDocument(t *testing.T) {
	_, err := NewPipeline(&stubProcessor{name: "x"}).Process(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPipeline_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	failing := &stubProcessor{name: "failing", err: boom}
	after := &stubProcessor{name: "after"}

	_, err := NewPipeline(failing, after).Process(context.Background(), testDoc())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "processor failing")
	assert.Empty(t, after.got)
}

func TestNewDefaultPipeline(t *testing.T) {
	p, err := NewDefaultPipeline(domain.ChunkingSettings{Size: 10, Overlap: 2})
	require.NoError(t, err)
	assert.Equal(t, DefaultProcessors(), p.Names())

	doc := &domain.Document{
		ID:       "doc-1",
		Source:   "/tmp/report.pdf",
		Format:   domain.FormatPDF,
		Content:  "abcdefghijklmnopqrstuvwxyz",
		Metadata: map[string]any{domain.MetaPage: 2},
	}
	chunks, err := p.Process(context.Background(), doc)
	require.NoError(t, err)

	// 26 runes, window 10, step 8.
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.Equal(t, 2, c.Metadata[domain.MetaPage], "chunk %d", c.Position)
		assert.Equal(t, "/tmp/report.pdf", c.Metadata[domain.MetaSource], "chunk %d", c.Position)
	}
}

func TestNewDefaultPipeline_InvalidChunking(t *testing.T) {
	_, err := NewDefaultPipeline(domain.ChunkingSettings{Size: 10, Overlap: 10})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
