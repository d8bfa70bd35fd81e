package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// chatServer answers /api/chat with reply and hands each request to inspect.
func chatServer(t *testing.T, reply string, inspect func(chatRequest)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		if inspect != nil {
			inspect(req)
		}
		_ = json.NewEncoder(w).Encode(chatResponse{
			Message: chatMessage{Role: driven.RoleAssistant, Content: reply},
			Done:    true,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewLLMService_Defaults(t *testing.T) {
	s := NewLLMService(Config{})
	assert.Equal(t, DefaultModel, s.ModelName())
	assert.NoError(t, s.Close())
}

func TestGenerate_SingleUserTurn(t *testing.T) {
	srv := chatServer(t, "forty-two", func(req chatRequest) {
		require.Len(t, req.Messages, 1)
		assert.Equal(t, driven.RoleUser, req.Messages[0].Role)
		assert.Equal(t, "answer?", req.Messages[0].Content)
		require.NotNil(t, req.Options)
		assert.Equal(t, []string{"\n\n"}, req.Options.Stop)
	})

	out, err := NewLLMService(Config{BaseURL: srv.URL}).Generate(context.Background(), "answer?",
		driven.GenerateOptions{StopWords: []string{"\n\n"}})
	require.NoError(t, err)
	assert.Equal(t, "forty-two", out)
}

func TestChat_KeepsRolesAndOptions(t *testing.T) {
	srv := chatServer(t, "hello back", func(req chatRequest) {
		require.Len(t, req.Messages, 2)
		assert.Equal(t, driven.RoleSystem, req.Messages[0].Role)
		require.NotNil(t, req.Options)
		assert.Equal(t, 64, req.Options.NumPredict)
	})

	out, err := NewLLMService(Config{BaseURL: srv.URL}).Chat(context.Background(), []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: "sys"},
		{Role: driven.RoleUser, Content: "hello"},
	}, driven.ChatOptions{MaxTokens: 64})
	require.NoError(t, err)
	assert.Equal(t, "hello back", out)
}

func TestChat_NoOptionsWhenUnset(t *testing.T) {
	srv := chatServer(t, "ok", func(req chatRequest) {
		assert.Nil(t, req.Options)
	})

	_, err := NewLLMService(Config{BaseURL: srv.URL}).Chat(context.Background(),
		[]driven.ChatMessage{{Role: driven.RoleUser, Content: "hi"}}, driven.ChatOptions{})
	require.NoError(t, err)
}

func TestChat_EmptyReply(t *testing.T) {
	srv := chatServer(t, "", nil)

	_, err := NewLLMService(Config{BaseURL: srv.URL}).Generate(context.Background(), "q", driven.GenerateOptions{})
	assert.ErrorContains(t, err, "empty reply")
}

func TestGenerate_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'llama3.2' not found"}`))
	}))
	defer srv.Close()

	_, err := NewLLMService(Config{BaseURL: srv.URL}).Generate(context.Background(), "q", driven.GenerateOptions{})
	assert.ErrorContains(t, err, "model 'llama3.2' not found")
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	assert.NoError(t, NewLLMService(Config{BaseURL: srv.URL}).Ping(context.Background()))
}
