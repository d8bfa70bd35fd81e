package messages

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

func TestViewType_String(t *testing.T) {
	tests := []struct {
		view ViewType
		want string
	}{
		{ViewChat, "chat"},
		{ViewHelp, "help"},
		{ViewType(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.view.String())
		})
	}
}

func TestReplyReceived_Sources(t *testing.T) {
	sources := []domain.RetrievedChunk{
		{Chunk: domain.Chunk{ID: "c1", Source: "guide.pdf"}, Score: 0.8},
	}

	tests := []struct {
		name string
		msg  ReplyReceived
		want []domain.RetrievedChunk
	}{
		{
			name: "knowledge base reply",
			msg: ReplyReceived{Reply: &domain.ChatReply{
				Route:  domain.ChatRouteKnowledgeBase,
				Answer: &domain.Answer{Sources: sources},
			}},
			want: sources,
		},
		{
			name: "direct reply",
			msg:  ReplyReceived{Reply: &domain.ChatReply{Route: domain.ChatRouteDirect}},
			want: nil,
		},
		{
			name: "failed reply",
			msg:  ReplyReceived{Err: errors.New("boom")},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.msg.Sources())
		})
	}
}
