package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

const (
	// contextSeparator separates chunks in the prompt context.
	contextSeparator = "\n\n"

	answerMaxTokens = 1024
)

// Responder composes an answer from retrieved chunks with a language model.
type Responder struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	opts    driven.GenerateOptions
}

// NewResponder creates a responder. llm may be nil, in which case every
// answer fails with UpstreamFailure wrapping domain.ErrLLMUnavailable.
func NewResponder(llm driven.LLMService, prompts driven.PromptStore) *Responder {
	return &Responder{
		llm:     llm,
		prompts: prompts,
		opts: driven.GenerateOptions{
			MaxTokens: answerMaxTokens,
		},
	}
}

// Respond builds the context from chunks, formats the answer prompt and calls
// the language model once.
func (r *Responder) Respond(ctx context.Context, query string, chunks []domain.RetrievedChunk) (*domain.Answer, error) {
	if r.llm == nil {
		return nil, domain.NewError(domain.KindUpstreamFailure, "ask", domain.ErrLLMUnavailable)
	}

	template, err := r.prompts.Load(driven.PromptAnswer)
	if err != nil {
		return nil, fmt.Errorf("load answer prompt: %w", err)
	}

	prompt := fmt.Sprintf(template, BuildContext(chunks), query)
	logger.Debug("Prompt: %d chars from %d chunks", len(prompt), len(chunks))

	response, err := r.llm.Generate(ctx, prompt, r.opts)
	if err != nil {
		return nil, domain.NewError(domain.KindUpstreamFailure, "ask", err)
	}

	return &domain.Answer{
		Query:    query,
		Response: strings.TrimSpace(response),
		Sources:  chunks,
		Model:    r.llm.ModelName(),
	}, nil
}

// BuildContext joins chunk contents with blank lines, most similar first.
func BuildContext(chunks []domain.RetrievedChunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Content
	}
	return strings.Join(parts, contextSeparator)
}
