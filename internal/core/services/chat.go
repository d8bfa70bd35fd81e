package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// ChatService routes a message either through the knowledge base or straight
// to the language model, depending on whether it mentions a route keyword.
type ChatService struct {
	kb       driving.KnowledgeService
	llm      driven.LLMService
	prompts  driven.PromptStore
	keywords []string
}

// NewChatService creates a chat router. Empty keywords fall back to
// domain.DefaultRouteKeywords. llm may be nil; direct messages then fail
// with UpstreamFailure.
func NewChatService(
	kb driving.KnowledgeService,
	llm driven.LLMService,
	prompts driven.PromptStore,
	keywords []string,
) *ChatService {
	if len(keywords) == 0 {
		keywords = domain.DefaultRouteKeywords()
	}

	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			lowered = append(lowered, k)
		}
	}

	return &ChatService{
		kb:       kb,
		llm:      llm,
		prompts:  prompts,
		keywords: lowered,
	}
}

// Route decides where a message goes. Matching is case-insensitive.
func (s *ChatService) Route(message string) domain.ChatRoute {
	lower := strings.ToLower(message)
	for _, k := range s.keywords {
		if strings.Contains(lower, k) {
			return domain.ChatRouteKnowledgeBase
		}
	}
	return domain.ChatRouteDirect
}

// Chat replies to a single message.
func (s *ChatService) Chat(ctx context.Context, message string) (*domain.ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("chat: %w: empty message", domain.ErrInvalidInput)
	}

	route := s.Route(message)
	logger.Debug("Chat route: %s", route)

	if route == domain.ChatRouteKnowledgeBase {
		answer, err := s.kb.Ask(ctx, message, domain.AskOptions{})
		if err != nil {
			return nil, err
		}
		return &domain.ChatReply{
			Response: answer.Response,
			Route:    route,
			Answer:   answer,
		}, nil
	}

	if s.llm == nil {
		return nil, domain.NewError(domain.KindUpstreamFailure, "chat", domain.ErrLLMUnavailable)
	}

	system, err := s.prompts.Load(driven.PromptChatSystem)
	if err != nil {
		return nil, fmt.Errorf("load chat prompt: %w", err)
	}

	response, err := s.llm.Chat(ctx, []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: system},
		{Role: driven.RoleUser, Content: message},
	}, driven.ChatOptions{})
	if err != nil {
		return nil, domain.NewError(domain.KindUpstreamFailure, "chat", err)
	}

	return &domain.ChatReply{
		Response: strings.TrimSpace(response),
		Route:    route,
	}, nil
}
