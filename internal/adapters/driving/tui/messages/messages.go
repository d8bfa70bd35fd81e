// Package messages holds the tea.Msg types passed between the TUI models.
package messages

import (
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// MessageSent is emitted when the user submits a chat message.
type MessageSent struct {
	Text string
}

// ReplyReceived carries the reply to a chat message back to the model.
type ReplyReceived struct {
	Text  string
	Reply *domain.ChatReply
	Err   error
}

// Sources returns the chunks cited by the reply, if it came from the
// knowledge base.
func (r ReplyReceived) Sources() []domain.RetrievedChunk {
	if r.Reply == nil || r.Reply.Answer == nil {
		return nil
	}
	return r.Reply.Answer.Sources
}

// StatsLoaded carries knowledge base stats for the header.
type StatsLoaded struct {
	Stats *domain.KnowledgeBaseStats
	Err   error
}

// ViewChanged switches the screen.
type ViewChanged struct {
	View ViewType
}

// ViewType is a screen of the app.
type ViewType int

// Screens.
const (
	ViewChat ViewType = iota
	ViewHelp
)

func (v ViewType) String() string {
	switch v {
	case ViewChat:
		return "chat"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred records a failure outside a reply.
type ErrorOccurred struct {
	Err error
}

// Quit exits the app.
type Quit struct{}
