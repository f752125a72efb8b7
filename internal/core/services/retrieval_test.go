package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keeper-labs/keeper-cli/internal/core/domain"
)

func TestRetrievalService_Retrieve_VectorPath(t *testing.T) {
	store := newTestVectorStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, domain.Document{
		ID: "close", Content: "about go", Embedding: []float32{1, 0, 0},
	}))
	require.NoError(t, store.Upsert(ctx, domain.Document{
		ID: "far", Content: "about rust", Embedding: []float32{-1, 0, 0},
	}))

	embedder := &mockEmbedder{vectors: map[string][]float32{
		"tell me about go": {1, 0, 0},
	}}
	svc := NewRetrievalService(store, embedder, domain.RetrievalSettings{})

	results, err := svc.Retrieve(ctx, "tell me about go", 5, 0.3)
	require.NoError(t, err)

	// The opposed vector scores (cos+1)/2 = 0 and is filtered out.
	require.Len(t, results, 1)
	assert.Equal(t, "close", results[0].ID)
	assert.InDelta(t, 1.0, results[0].Relevance, 1e-6)
}

func TestRetrievalService_Retrieve_VectorFloorDropsWeakHits(t *testing.T) {
	store := newTestVectorStore(t)
	ctx := context.Background()

	// cos = 1/sqrt(2), relevance (cos+1)/2 ~= 0.854.
	require.NoError(t, store.Upsert(ctx, domain.Document{
		ID: "weak", Content: "loosely related", Embedding: []float32{1, 1, 0},
	}))

	embedder := &mockEmbedder{vectors: map[string][]float32{
		"query": {1, 0, 0},
	}}

	strict := NewRetrievalService(store, embedder, domain.RetrievalSettings{VectorFloor: 0.99})
	results, err := strict.Retrieve(ctx, "query", 5, 0.3)
	require.NoError(t, err)
	assert.Empty(t, results)

	lenient := NewRetrievalService(store, embedder, domain.RetrievalSettings{VectorFloor: 0.5})
	results, err = lenient.Retrieve(ctx, "query", 5, 0.3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "weak", results[0].ID)
}

func TestRetrievalService_Retrieve_EmptyQuery(t *testing.T) {
	store := newTestVectorStore(t)
	svc := NewRetrievalService(store, nil, domain.RetrievalSettings{})

	results, err := svc.Retrieve(context.Background(), "   ", 5, 0.3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrievalService_Retrieve_LexicalFallbackWhenNoVector(t *testing.T) {
	store := newTestVectorStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, domain.Document{
		ID:       "both",
		Content:  "notes about kubernetes scaling",
		Metadata: map[string]any{"title": "kubernetes cheatsheet"},
	}))
	require.NoError(t, store.Upsert(ctx, domain.Document{
		ID:      "content-only",
		Content: "more kubernetes trivia",
	}))
	require.NoError(t, store.Upsert(ctx, domain.Document{
		ID:      "unrelated",
		Content: "gardening tips",
	}))

	// Embedder knows nothing, every embed fails.
	embedder := &mockEmbedder{vectors: map[string][]float32{}}
	svc := NewRetrievalService(store, embedder, domain.RetrievalSettings{})

	results, err := svc.Retrieve(ctx, "kubernetes", 5, 0.3)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Content + title beats content alone; unrelated falls below the floor.
	assert.Equal(t, "both", results[0].ID)
	assert.InDelta(t, 0.9, results[0].Relevance, 1e-6)
	assert.Equal(t, "content-only", results[1].ID)
	assert.InDelta(t, 0.6, results[1].Relevance, 1e-6)
}

func TestRetrievalService_Retrieve_LexicalWithoutEmbedder(t *testing.T) {
	store := newTestVectorStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, domain.Document{
		ID: "doc", Content: "plain text search works",
	}))

	svc := NewRetrievalService(store, nil, domain.RetrievalSettings{})
	assert.False(t, svc.VectorActive())

	results, err := svc.Retrieve(ctx, "text search", 5, 0.3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc", results[0].ID)
}

func TestRetrievalService_Retrieve_LexicalCJKOverlap(t *testing.T) {
	store := newTestVectorStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, domain.Document{
		ID:      "zh",
		Content: "机器学习是人工智能的一个分支",
	}))

	svc := NewRetrievalService(store, nil, domain.RetrievalSettings{})

	// No full substring match, but every query character appears.
	results, err := svc.Retrieve(ctx, "学习机器", 5, 0.3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 0.4, results[0].Relevance, 1e-6)
}

func TestRetrievalService_Retrieve_LexicalScoreClamped(t *testing.T) {
	store := newTestVectorStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, domain.Document{
		ID:       "zh",
		Content:  "机器学习笔记",
		Metadata: map[string]any{"title": "机器学习"},
	}))

	svc := NewRetrievalService(store, nil, domain.RetrievalSettings{})

	// Content match + title match + full CJK overlap would exceed 1.0.
	results, err := svc.Retrieve(ctx, "机器学习", 5, 0.3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Relevance, 1e-6)
}

func TestRetrievalService_Retrieve_LexicalRespectsTopK(t *testing.T) {
	store := newTestVectorStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Upsert(ctx, domain.Document{
			ID: id, Content: "common phrase here",
		}))
	}

	svc := NewRetrievalService(store, nil, domain.RetrievalSettings{})

	results, err := svc.Retrieve(ctx, "common phrase", 2, 0.3)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestRetrievalService_Retrieve_DefaultsApplied(t *testing.T) {
	store := newTestVectorStore(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, store.Upsert(ctx, domain.Document{
			ID: string(rune('a' + i)), Content: "repeated text",
		}))
	}

	svc := NewRetrievalService(store, nil, domain.RetrievalSettings{})

	// topK <= 0 falls back to the default of 5.
	results, err := svc.Retrieve(ctx, "repeated text", 0, 0)
	require.NoError(t, err)
	assert.Len(t, results, domain.DefaultTopK)
}
