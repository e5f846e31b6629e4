package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler, batchSize int) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("TEST_EMBED_KEY", "secret")
	c, err := NewClient(Config{
		BaseURL:   srv.URL,
		APIKeyEnv: "TEST_EMBED_KEY",
		Model:     "test-model",
		BatchSize: batchSize,
	})
	require.NoError(t, err)
	return c
}

func embeddingsResponse(vectors [][]float64) map[string]any {
	data := make([]map[string]any, len(vectors))
	for i, v := range vectors {
		data[i] = map[string]any{"index": i, "embedding": v}
	}
	return map[string]any{"data": data}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY", "")
	_, err := NewClient(Config{APIKeyEnv: "TEST_EMBED_KEY"})
	require.Error(t, err)
}

func TestEmbedSingle(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var body struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"hello"}, body.Input)
		assert.Equal(t, "test-model", body.Model)
		json.NewEncoder(w).Encode(embeddingsResponse([][]float64{{0.1, 0.2, 0.3}}))
	}), 0)

	vec, err := c.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, 3, c.Dimension())
}

func TestEmbedBatchPreservesOrder(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		// Answer out of order on purpose; the index field governs.
		resp := map[string]any{"data": []map[string]any{
			{"index": 1, "embedding": []float64{float64(len(body.Input[1]))}},
			{"index": 0, "embedding": []float64{float64(len(body.Input[0]))}},
		}}
		json.NewEncoder(w).Encode(resp)
	}), 0)

	vectors, err := c.EmbedBatch(context.Background(), []string{"a", "bbb"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float64{1}, vectors[0])
	assert.Equal(t, []float64{3}, vectors[1])
}

func TestEmbedBatchSplitsLargeInput(t *testing.T) {
	var calls int
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var body struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.LessOrEqual(t, len(body.Input), 2)
		vectors := make([][]float64, len(body.Input))
		for i := range vectors {
			vectors[i] = []float64{1}
		}
		json.NewEncoder(w).Encode(embeddingsResponse(vectors))
	}), 2)

	vectors, err := c.EmbedBatch(context.Background(), []string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)
	assert.Len(t, vectors, 5)
	assert.Equal(t, 3, calls)
}

func TestEmbedRetriesOnRateLimit(t *testing.T) {
	var calls int
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(embeddingsResponse([][]float64{{1, 2}}))
	}), 0)

	vec, err := c.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, vec)
	assert.Equal(t, 2, calls)
}

func TestEmbedSurfacesClientError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}), 0)

	_, err := c.Embed(context.Background(), "hello")
	require.Error(t, err)
}

func TestEmbedOllamaShape(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"embedding": []float64{9, 8, 7}})
	}), 0)

	vec, err := c.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float64{9, 8, 7}, vec)
}

func TestEmbedBatchRejectsEmptyInput(t *testing.T) {
	c := newTestClient(t, http.NewServeMux(), 0)
	_, err := c.EmbedBatch(context.Background(), nil)
	require.Error(t, err)
}
