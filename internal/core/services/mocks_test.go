package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/keeper-labs/keeper-cli/internal/adapters/driven/vectorstore/file"
	"github.com/keeper-labs/keeper-cli/internal/core/domain"
	"github.com/keeper-labs/keeper-cli/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbedder implements driven.EmbeddingProvider for testing.
// vectors maps input text to the vector to return; unknown text yields
// nil, simulating a per-item embedding failure.
type mockEmbedder struct {
	vectors map[string][]float32
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) [][]float32 {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = m.vectors[text]
	}
	return out
}

func (m *mockEmbedder) EmbedSingle(ctx context.Context, text string) []float32 {
	return m.Embed(ctx, []string{text})[0]
}

func (m *mockEmbedder) Dimensions() int { return 3 }

func (m *mockEmbedder) ModelName() string { return "mock-embedder" }

func (m *mockEmbedder) Ping(_ context.Context) error { return nil }

func (m *mockEmbedder) Close() error { return nil }

// mockGenerator implements driven.GenerationProvider for testing.
type mockGenerator struct {
	reply  string
	chunks []driven.StreamChunk
	err    error

	completes    int
	streams      int
	lastMessages []domain.ChatMessage
}

func (m *mockGenerator) Complete(_ context.Context, messages []domain.ChatMessage) (string, error) {
	m.completes++
	m.lastMessages = messages
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *mockGenerator) Stream(_ context.Context, messages []domain.ChatMessage) (<-chan driven.StreamChunk, error) {
	m.streams++
	m.lastMessages = messages
	if m.err != nil {
		return nil, m.err
	}
	ch := make(chan driven.StreamChunk, len(m.chunks))
	for _, chunk := range m.chunks {
		ch <- chunk
	}
	close(ch)
	return ch, nil
}

func (m *mockGenerator) ModelName() string { return "mock-generator" }

func (m *mockGenerator) Ping(_ context.Context) error { return nil }

func (m *mockGenerator) Close() error { return nil }

// newTestVectorStore returns a file-backed store in a temp dir.
func newTestVectorStore(t *testing.T) *file.Store {
	t.Helper()
	store, err := file.NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}
