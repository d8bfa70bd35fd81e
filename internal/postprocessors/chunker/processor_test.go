package chunker

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

func mustNew(t *testing.T, opts ...Option) *Processor {
	t.Helper()
	p, err := New(opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p
}

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := mustNew(t)
		if p.ChunkSize() != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, p.ChunkSize())
		}
		if p.Overlap() != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, p.Overlap())
		}
	})

	t.Run("custom chunk size", func(t *testing.T) {
		p := mustNew(t, WithChunkSize(500))
		if p.ChunkSize() != 500 {
			t.Errorf("expected chunkSize 500, got %d", p.ChunkSize())
		}
	})

	t.Run("zero overlap", func(t *testing.T) {
		p := mustNew(t, WithOverlap(0))
		if p.Overlap() != 0 {
			t.Errorf("expected overlap 0, got %d", p.Overlap())
		}
	})

	rejected := []struct {
		name string
		opts []Option
	}{
		{"overlap equals chunk size", []Option{WithChunkSize(100), WithOverlap(100)}},
		{"overlap exceeds chunk size", []Option{WithChunkSize(100), WithOverlap(150)}},
		{"negative overlap", []Option{WithOverlap(-1)}},
		{"zero chunk size", []Option{WithChunkSize(0), WithOverlap(0)}},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts...)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestProcessor_Name(t *testing.T) {
	p := mustNew(t)
	if p.Name() != "chunker" {
		t.Errorf("expected name 'chunker', got %q", p.Name())
	}
}

func TestProcessor_Process_EmptyContent(t *testing.T) {
	p := mustNew(t)
	doc := &domain.Document{ID: "doc-1", Content: ""}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks, got %d", len(chunks))
	}
}

func TestProcessor_Process_ShortContent(t *testing.T) {
	p := mustNew(t)
	doc := &domain.Document{ID: "doc-1", Source: "notes.docx", Content: "short text"}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Content != "short text" {
		t.Errorf("expected content 'short text', got %q", chunks[0].Content)
	}
	if chunks[0].DocumentID != "doc-1" || chunks[0].Source != "notes.docx" {
		t.Errorf("chunk lost provenance: %+v", chunks[0])
	}
}

func TestProcessor_Process_ExactWindow(t *testing.T) {
	p := mustNew(t)
	doc := &domain.Document{ID: "doc-1", Content: strings.Repeat("a", DefaultChunkSize)}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Errorf("expected 1 chunk for text of exactly one window, got %d", len(chunks))
	}
}

func TestProcessor_Process_2500Characters(t *testing.T) {
	p := mustNew(t)
	doc := &domain.Document{ID: "doc-1", Content: strings.Repeat("x", 2500)}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Windows start at 0, 900 and 1800.
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	wantOffsets := []int{0, 900, 1800}
	wantLens := []int{1000, 1000, 700}
	for i, c := range chunks {
		if c.Offset != wantOffsets[i] {
			t.Errorf("chunk %d: expected offset %d, got %d", i, wantOffsets[i], c.Offset)
		}
		if len(c.Content) != wantLens[i] {
			t.Errorf("chunk %d: expected length %d, got %d", i, wantLens[i], len(c.Content))
		}
		if c.Position != i {
			t.Errorf("chunk %d: expected position %d, got %d", i, i, c.Position)
		}
	}
}

func TestProcessor_Process_Overlap(t *testing.T) {
	p := mustNew(t, WithChunkSize(10), WithOverlap(3))
	doc := &domain.Document{ID: "doc-1", Content: "0123456789abcdefghij"}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1].Content
		tail := prev[len(prev)-3:]
		if !strings.HasPrefix(chunks[i].Content, tail) {
			t.Errorf("chunk %d should start with %q, got %q", i, tail, chunks[i].Content)
		}
	}
}

func TestProcessor_Process_CountMatchesFormula(t *testing.T) {
	p := mustNew(t, WithChunkSize(50), WithOverlap(10))

	for _, n := range []int{1, 49, 50, 51, 89, 90, 91, 130, 131, 1000, 1001} {
		doc := &domain.Document{ID: "doc", Content: strings.Repeat("z", n)}
		chunks, err := p.Process(context.Background(), doc, nil)
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}
		if len(chunks) != p.Count(n) {
			t.Errorf("n=%d: produced %d chunks, Count says %d", n, len(chunks), p.Count(n))
		}
		last := chunks[len(chunks)-1]
		if last.Offset+len(last.Content) != n {
			t.Errorf("n=%d: last chunk does not reach the end of the text", n)
		}
	}
}

func TestProcessor_Count(t *testing.T) {
	p := mustNew(t)

	tests := []struct {
		n    int
		want int
	}{
		{0, 0},
		{1, 1},
		{1000, 1},
		{1001, 2},
		{1900, 2},
		{1901, 3},
		{2500, 3},
	}
	for _, tt := range tests {
		if got := p.Count(tt.n); got != tt.want {
			t.Errorf("Count(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestProcessor_Process_Deterministic(t *testing.T) {
	p := mustNew(t, WithChunkSize(20), WithOverlap(5))
	doc := &domain.Document{ID: "doc-1", Content: strings.Repeat("the quick brown fox ", 10)}

	first, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID || first[i].Content != second[i].Content {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestProcessor_Process_MultiByte(t *testing.T) {
	p := mustNew(t, WithChunkSize(4), WithOverlap(1))
	doc := &domain.Document{ID: "doc-1", Content: "héllo wörld"}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range chunks {
		if n := len([]rune(c.Content)); n > 4 {
			t.Errorf("chunk %q has %d runes, want at most 4", c.Content, n)
		}
	}
	if chunks[0].Content != "héll" {
		t.Errorf("expected first chunk 'héll', got %q", chunks[0].Content)
	}
}

func TestProcessor_Process_CancelledContext(t *testing.T) {
	p := mustNew(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Process(ctx, &domain.Document{ID: "doc-1", Content: "text"}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
