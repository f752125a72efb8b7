package gemini

import (
	"context"
	"encoding/json"
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
		Model:   "gemini-test",
	})
	require.NoError(t, err)
	return provider
}

func geminiResponse(text string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
			},
		})
	}
}

func TestGenerationProvider_Complete_MapsRoles(t *testing.T) {
	var gotReq generateRequest
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		geminiResponse("answer")(w, r)
	})

	messages := []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "be brief"},
		{Role: domain.RoleUser, Content: "hello"},
		{Role: domain.RoleAssistant, Content: "hi"},
		{Role: domain.RoleUser, Content: "more"},
	}
	got, err := provider.Complete(context.Background(), messages)
	require.NoError(t, err)
	assert.Equal(t, "answer", got)

	// No system role on the wire: the prompt folds into the first
	// user turn, and assistant becomes model.
	require.Len(t, gotReq.Contents, 3)
	assert.Equal(t, "user", gotReq.Contents[0].Role)
	assert.Equal(t, "be brief\n\nhello", gotReq.Contents[0].Parts[0].Text)
	assert.Equal(t, "model", gotReq.Contents[1].Role)
	assert.Equal(t, "user", gotReq.Contents[2].Role)
	assert.Equal(t, "more", gotReq.Contents[2].Parts[0].Text)
}

func TestGenerationProvider_Complete_NoCandidates(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	})

	_, err := provider.Complete(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "hello"},
	})
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestGenerationProvider_Complete_AuthFailed(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := provider.Complete(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "hello"},
	})
	assert.ErrorIs(t, err, domain.ErrAuthFailed)
}

func TestGenerationProvider_Stream_SingleFragment(t *testing.T) {
	provider := newTestProvider(t, geminiResponse("the whole answer"))

	chunks, err := provider.Stream(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "hello"},
	})
	require.NoError(t, err)

	var got []driven.StreamChunk
	for chunk := range chunks {
		got = append(got, chunk)
	}
	require.Len(t, got, 1)
	assert.Equal(t, driven.StreamChunk{Type: driven.ChunkContent, Text: "the whole answer"}, got[0])
}

func TestGenerationProvider_Stream_ErrorBeforeChannel(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := provider.Stream(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "hello"},
	})
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}
