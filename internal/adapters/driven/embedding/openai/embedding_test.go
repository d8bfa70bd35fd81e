package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/apiclient"
	"github.com/custodia-labs/sercha-kb/internal/ratelimit"
)

type embedRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions"`
}

// writeJSON answers like the API does; the SDK only decodes JSON bodies.
func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func newTestService(t *testing.T, url string, batchSize int) *EmbeddingService {
	t.Helper()
	s, err := NewEmbeddingService(Config{
		APIKey:    "sk-test",
		BaseURL:   url,
		BatchSize: batchSize,
		Limiter:   ratelimit.NewWithConfig(ratelimit.Config{RequestsPerSecond: 1000, BurstSize: 100}),
	})
	require.NoError(t, err)
	return s
}

func TestNewEmbeddingService_RequiresAPIKey(t *testing.T) {
	_, err := NewEmbeddingService(Config{})
	assert.Error(t, err)
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	s, err := NewEmbeddingService(Config{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, s.ModelName())
	assert.Equal(t, 1536, s.Dimensions())
}

func TestEmbedBatch_SplitsAndOrders(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultModel, req.Model)
		assert.Equal(t, 1536, req.Dimensions)

		type item struct {
			Embedding []float64 `json:"embedding"`
			Index     int       `json:"index"`
		}
		// Respond in reverse order; the adapter must reorder by index.
		data := make([]item, len(req.Input))
		for i := range req.Input {
			j := len(req.Input) - 1 - i
			data[i] = item{Embedding: []float64{float64(len(req.Input[j]))}, Index: j}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
	defer srv.Close()

	s := newTestService(t, srv.URL, 2)

	vecs, err := s.EmbedBatch(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	assert.Equal(t, 2, requests)
	require.Len(t, vecs, 3)
	assert.Equal(t, []float32{1}, vecs[0])
	assert.Equal(t, []float32{2}, vecs[1])
	assert.Equal(t, []float32{3}, vecs[2])
}

func TestEmbed_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	_, err := newTestService(t, srv.URL, 0).Embed(context.Background(), "hello")

	var statusErr *apiclient.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.Status)
	assert.Contains(t, err.Error(), "bad key")
}

func TestEmbed_WrongCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `{"data":[]}`)
	}))
	defer srv.Close()

	_, err := newTestService(t, srv.URL, 0).Embed(context.Background(), "hello")
	assert.ErrorContains(t, err, "0 embeddings for 1 texts")
}

func TestEmbed_OtherModelsSendNoDimensions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Zero(t, req.Dimensions)
		writeJSON(w, `{"data":[{"embedding":[0.5],"index":0}]}`)
	}))
	defer srv.Close()

	s, err := NewEmbeddingService(Config{
		APIKey:  "sk-test",
		BaseURL: srv.URL,
		Model:   "text-embedding-ada-002",
		Limiter: ratelimit.NewWithConfig(ratelimit.Config{RequestsPerSecond: 1000, BurstSize: 100}),
	})
	require.NoError(t, err)

	vec, err := s.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5}, vec)
}

func TestEmbedBatch_Empty(t *testing.T) {
	vecs, err := newTestService(t, "http://unused", 0).EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, `{"data":[]}`)
	}))
	defer srv.Close()

	assert.NoError(t, newTestService(t, srv.URL, 0).Ping(context.Background()))
}

func TestPing_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := newTestService(t, srv.URL, 0).Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
