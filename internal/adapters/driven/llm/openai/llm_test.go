package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keeper-labs/keeper-cli/internal/core/domain"
	"github.com/keeper-labs/keeper-cli/internal/core/ports/driven"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *GenerationProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	provider, err := NewGenerationProvider(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})
	require.NoError(t, err)
	return provider
}

func testMessages() []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "be brief"},
		{Role: domain.RoleUser, Content: "hello"},
	}
}

func TestGenerationProvider_Complete_Success(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		assert.InDelta(t, defaultTemperature, req.Temperature, 1e-9)
		assert.Equal(t, defaultMaxTokens, req.MaxTokens)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "hi there"}},
			},
		})
	})

	got, err := provider.Complete(context.Background(), testMessages())
	require.NoError(t, err)
	assert.Equal(t, "hi there", got)
}

func TestGenerationProvider_Complete_AuthFailed(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := provider.Complete(context.Background(), testMessages())
	assert.ErrorIs(t, err, domain.ErrAuthFailed)
}

func TestGenerationProvider_Complete_RateLimited(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := provider.Complete(context.Background(), testMessages())
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestGenerationProvider_Complete_MalformedResponse(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("{not json"))
	})

	_, err := provider.Complete(context.Background(), testMessages())
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestGenerationProvider_Complete_NoChoices(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})

	_, err := provider.Complete(context.Background(), testMessages())
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func sseFrame(content, reasoning string) string {
	frame := map[string]any{
		"choices": []map[string]any{
			{"delta": map[string]any{
				"content":           content,
				"reasoning_content": reasoning,
			}},
		},
	}
	data, _ := json.Marshal(frame)
	return "data: " + string(data) + "\n\n"
}

func TestGenerationProvider_Stream_DeliversChunksInOrder(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseFrame("", "thinking..."))
		fmt.Fprint(w, sseFrame("Hello", ""))
		fmt.Fprint(w, sseFrame(" world", ""))
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	chunks, err := provider.Stream(context.Background(), testMessages())
	require.NoError(t, err)

	var got []driven.StreamChunk
	for chunk := range chunks {
		got = append(got, chunk)
	}

	require.Len(t, got, 3)
	assert.Equal(t, driven.StreamChunk{Type: driven.ChunkThinking, Text: "thinking..."}, got[0])
	assert.Equal(t, driven.StreamChunk{Type: driven.ChunkContent, Text: "Hello"}, got[1])
	assert.Equal(t, driven.StreamChunk{Type: driven.ChunkContent, Text: " world"}, got[2])
}

func TestGenerationProvider_Stream_SkipsUnparseableFrames(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {garbage\n\n")
		fmt.Fprint(w, sseFrame("ok", ""))
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	chunks, err := provider.Stream(context.Background(), testMessages())
	require.NoError(t, err)

	var got []driven.StreamChunk
	for chunk := range chunks {
		got = append(got, chunk)
	}
	require.Len(t, got, 1)
	assert.Equal(t, "ok", got[0].Text)
}

func TestGenerationProvider_Stream_BadStatus(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := provider.Stream(context.Background(), testMessages())
	assert.ErrorIs(t, err, domain.ErrAuthFailed)
}

func TestGenerationProvider_Stream_CancelClosesChannel(t *testing.T) {
	release := make(chan struct{})
	provider := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseFrame("first", ""))
		w.(http.Flusher).Flush()
		<-release
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	chunks, err := provider.Stream(ctx, testMessages())
	require.NoError(t, err)

	first, ok := <-chunks
	require.True(t, ok)
	assert.Equal(t, "first", first.Text)

	cancel()
	for range chunks {
		// drain until the adapter notices cancellation
	}
}
