package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

func TestAddCmd_RequiresArg(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, nil, "add")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestAddCmd_AddsEachFile(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, nil, "add", "a.pdf", "b.csv")

	require.NoError(t, err)
	require.Len(t, mocks.knowledge.addedPaths, 2)
	assert.True(t, filepath.IsAbs(mocks.knowledge.addedPaths[0]))
	assert.Equal(t, "a.pdf", filepath.Base(mocks.knowledge.addedPaths[0]))
	assert.Contains(t, out, "added to the knowledge base!")
}

func TestAddCmd_ContinuesAfterFailure(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mocks.knowledge.addFileFunc = func(_ context.Context, path string) (*domain.IngestResult, error) {
		if filepath.Ext(path) == ".txt" {
			return nil, domain.NewError(domain.KindUnsupportedFormat, "add_file", domain.ErrUnsupportedFormat)
		}
		return &domain.IngestResult{Message: "File ok.csv added to the knowledge base!"}, nil
	}

	out, err := execute(t, nil, "add", "notes.txt", "ok.csv")

	require.Error(t, err)
	assert.Equal(t, "failed to add 1 of 2 files", err.Error())
	assert.Len(t, mocks.knowledge.addedPaths, 2)
	assert.Contains(t, out, "supported: .pdf, .docx, .csv")
	assert.Contains(t, out, "File ok.csv added")
}

func TestAddCmd_EmptyDocumentIsNotAnError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mocks.knowledge.addFileFunc = func(context.Context, string) (*domain.IngestResult, error) {
		return &domain.IngestResult{Empty: true, Message: "File blank.pdf contained no extractable text; nothing was added."}, nil
	}

	out, err := execute(t, nil, "add", "blank.pdf")

	require.NoError(t, err)
	assert.Contains(t, out, "no extractable text")
}

func TestAddCmd_NotConfigured(t *testing.T) {
	knowledgeService = nil
	err := runAdd(addCmd, []string{"a.pdf"})

	assert.EqualError(t, err, "knowledge service not configured")
}

func TestUserError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains string
		is       error
	}{
		{
			name:     "unsupported format",
			err:      domain.NewError(domain.KindUnsupportedFormat, "add_file", errors.New(".txt")),
			contains: "supported: .pdf, .docx, .csv",
			is:       domain.ErrUnsupportedFormat,
		},
		{
			name:     "upstream failure",
			err:      domain.NewError(domain.KindUpstreamFailure, "ask", domain.ErrLLMUnavailable),
			contains: "sercha-kb settings",
			is:       domain.ErrLLMUnavailable,
		},
		{
			name:     "other",
			err:      fmt.Errorf("disk full: %w", domain.ErrIndexUnavailable),
			contains: "disk full",
			is:       domain.ErrIndexUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := userError(tt.err)
			assert.Contains(t, got.Error(), tt.contains)
			assert.ErrorIs(t, got, tt.is)
		})
	}
}
