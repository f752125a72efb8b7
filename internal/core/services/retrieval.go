package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/keeper-labs/keeper-cli/internal/core/domain"
	"github.com/keeper-labs/keeper-cli/internal/core/ports/driven"
	"github.com/keeper-labs/keeper-cli/internal/core/ports/driving"
	"github.com/keeper-labs/keeper-cli/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// Lexical fallback scoring weights.
const (
	contentMatchWeight = 0.6
	titleMatchWeight   = 0.3
	overlapWeight      = 0.4
)

// RetrievalService ranks stored documents against a free-text query,
// preferring vector search and degrading to lexical scoring when no
// query vector can be produced.
type RetrievalService struct {
	vectorStore       driven.VectorStore
	embeddingProvider driven.EmbeddingProvider
	settings          domain.RetrievalSettings
}

// NewRetrievalService creates a new retrieval service.
// The embeddingProvider parameter is optional (can be nil); without it
// every query takes the lexical path.
func NewRetrievalService(
	vectorStore driven.VectorStore,
	embeddingProvider driven.EmbeddingProvider,
	settings domain.RetrievalSettings,
) *RetrievalService {
	return &RetrievalService{
		vectorStore:       vectorStore,
		embeddingProvider: embeddingProvider,
		settings:          settings.WithDefaults(),
	}
}

// VectorActive reports whether an embedding backend is wired. False
// means every query runs in degraded lexical mode.
func (s *RetrievalService) VectorActive() bool {
	return s.embeddingProvider != nil
}

// Retrieve returns up to topK results with relevance >= minRelevance,
// sorted by descending relevance. Vector hits must additionally clear
// the configured VectorFloor. topK <= 0 and minRelevance <= 0 take the
// configured defaults.
func (s *RetrievalService) Retrieve(
	ctx context.Context, query string, topK int, minRelevance float64,
) ([]domain.RetrievalResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.RetrievalResult{}, nil
	}

	if topK <= 0 {
		topK = s.settings.TopK
	}
	if minRelevance <= 0 {
		minRelevance = s.settings.MinRelevance
	}

	logger.Section("Retrieval")
	logger.Debug("Query: %q, topK: %d, minRelevance: %.2f", query, topK, minRelevance)

	var vector []float32
	if s.embeddingProvider != nil {
		vector = s.embeddingProvider.EmbedSingle(ctx, query)
	}

	if len(vector) == 0 {
		logger.Info("No query vector, using lexical fallback")
		return s.lexicalSearch(ctx, query, topK)
	}

	results, err := s.vectorStore.Search(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	// Weak raw hits fall to the search-layer floor before the caller's
	// relevance cut is applied.
	filtered := results[:0]
	for _, r := range results {
		if r.Relevance < s.settings.VectorFloor {
			continue
		}
		if r.Relevance >= minRelevance {
			filtered = append(filtered, r)
		}
	}
	logger.Debug("Vector search: %d hits, %d above floor and threshold", len(results), len(filtered))
	return filtered, nil
}

// lexicalSearch scores every stored document against the query without
// embeddings. Substring hits on content and title carry fixed weights;
// CJK queries additionally earn a character-overlap score so that
// ideographic text matches without word boundaries.
func (s *RetrievalService) lexicalSearch(
	ctx context.Context, query string, topK int,
) ([]domain.RetrievalResult, error) {
	docs, err := s.vectorStore.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}

	lowerQuery := strings.ToLower(query)
	queryCJK := cjkRunes(query)

	results := make([]domain.RetrievalResult, 0, len(docs))
	for _, doc := range docs {
		score := 0.0
		if strings.Contains(strings.ToLower(doc.Content), lowerQuery) {
			score += contentMatchWeight
		}
		if strings.Contains(strings.ToLower(doc.Title()), lowerQuery) {
			score += titleMatchWeight
		}
		if len(queryCJK) > 0 {
			score += overlapWeight * cjkOverlap(queryCJK, doc.Content)
		}
		if score > 1.0 {
			score = 1.0
		}
		if score < s.settings.LexicalFloor {
			continue
		}
		results = append(results, domain.RetrievalResult{
			ID:        doc.ID,
			Content:   doc.Content,
			Metadata:  doc.Metadata,
			Relevance: score,
		})
	}

	// Stable sort keeps store iteration order for equal scores.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})

	if len(results) > topK {
		results = results[:topK]
	}
	logger.Debug("Lexical search: %d documents scored, %d kept", len(docs), len(results))
	return results, nil
}

// cjkRunes returns the distinct CJK characters in s.
func cjkRunes(s string) map[rune]struct{} {
	set := make(map[rune]struct{})
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			set[r] = struct{}{}
		}
	}
	return set
}

// cjkOverlap returns the fraction of the query's CJK characters that
// appear in content.
func cjkOverlap(queryCJK map[rune]struct{}, content string) float64 {
	contentCJK := cjkRunes(content)
	matched := 0
	for r := range queryCJK {
		if _, ok := contentCJK[r]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(queryCJK))
}
