package mcp

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer_RequiresKnowledge(t *testing.T) {
	for name, ports := range map[string]*Ports{
		"nil ports":   nil,
		"chat only":   {Chat: &mockChatService{}},
		"empty ports": {},
	} {
		t.Run(name, func(t *testing.T) {
			server, err := NewServer(ports)
			assert.Nil(t, server)
			assert.Error(t, err)
		})
	}
}

// connect opens an in-memory client session against a server built from ports.
func connect(t *testing.T, ports *Ports) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server, err := NewServer(ports)
	require.NoError(t, err)
	require.NotNil(t, server.Handler())

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ss, err := server.sdk.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func toolNames(t *testing.T, cs *mcp.ClientSession) []string {
	t.Helper()
	res, err := cs.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	return names
}

func TestServer_ToolsOverSession(t *testing.T) {
	t.Run("knowledge only", func(t *testing.T) {
		cs := connect(t, &Ports{Knowledge: &mockKnowledgeService{}})
		assert.ElementsMatch(t,
			[]string{"add_file", "ask_knowledge_base", "search_knowledge_base"},
			toolNames(t, cs))
	})

	t.Run("chat registered when available", func(t *testing.T) {
		cs := connect(t, &Ports{Knowledge: &mockKnowledgeService{}, Chat: &mockChatService{}})
		assert.Contains(t, toolNames(t, cs), "chat")
	})
}
