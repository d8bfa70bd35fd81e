package driving

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// ChatService answers conversational messages, routing questions about
// files or the knowledge base through retrieval and everything else
// straight to the language model.
type ChatService interface {
	// Chat replies to a single message.
	Chat(ctx context.Context, message string) (*domain.ChatReply, error)
}
