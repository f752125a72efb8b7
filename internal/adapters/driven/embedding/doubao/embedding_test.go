package doubao

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *EmbeddingProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	provider, err := NewEmbeddingProvider(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})
	require.NoError(t, err)
	return provider
}

func TestNewEmbeddingProvider_Defaults(t *testing.T) {
	provider, err := NewEmbeddingProvider(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, provider.ModelName())
	assert.Equal(t, DefaultDimensions, provider.Dimensions())
}

func TestEmbeddingProvider_Embed_SendsMultimodalInput(t *testing.T) {
	var gotReq embeddingRequest
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings/multimodal", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"embedding": []float32{0.1, 0.2}},
		})
	})

	results := provider.Embed(context.Background(), []string{"你好"})
	require.Len(t, results, 1)
	assert.Equal(t, []float32{0.1, 0.2}, results[0])

	require.Len(t, gotReq.Input, 1)
	assert.Equal(t, "text", gotReq.Input[0].Type)
	assert.Equal(t, "你好", gotReq.Input[0].Text)
}

func TestExtractVector_ResponseShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []float32
	}{
		{
			name: "data as list",
			body: `{"data":[{"embedding":[1,2]}]}`,
			want: []float32{1, 2},
		},
		{
			name: "data as object",
			body: `{"data":{"embedding":[3,4]}}`,
			want: []float32{3, 4},
		},
		{
			name: "top-level embedding",
			body: `{"embedding":[5,6]}`,
			want: []float32{5, 6},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vec, err := extractVector([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, vec)
		})
	}
}

func TestExtractVector_MissingVector(t *testing.T) {
	_, err := extractVector([]byte(`{"data":[]}`))
	assert.Error(t, err)

	_, err = extractVector([]byte(`not json`))
	assert.Error(t, err)
}

func TestEmbeddingProvider_Embed_BadStatusYieldsNil(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	results := provider.Embed(context.Background(), []string{"x"})
	require.Len(t, results, 1)
	assert.Nil(t, results[0])
}
