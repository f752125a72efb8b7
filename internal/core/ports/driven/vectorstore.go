package driven

import (
	"context"

	"github.com/keeper-labs/keeper-cli/internal/core/domain"
)

// VectorStore is a durable id -> (content, vector, metadata) store with
// cosine-similarity ranking.
//
// Every mutating call commits durably before returning. Writers serialize
// around the persistence target; readers observe a consistent snapshot.
type VectorStore interface {
	// Upsert adds or replaces the document with doc.ID. Replacement is
	// a whole-document overwrite, never a merge.
	Upsert(ctx context.Context, doc domain.Document) error

	// Delete removes a document. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error

	// Get returns the current version of a document, or
	// domain.ErrNotFound.
	Get(ctx context.Context, id string) (domain.Document, error)

	// Search ranks embedded documents against the query vector and
	// returns at most limit results, sorted by descending relevance
	// ((cosine + 1) / 2). Documents with empty or zero-norm embeddings
	// are skipped. Ties break in the store's stable iteration order.
	Search(ctx context.Context, query []float32, limit int) ([]domain.RetrievalResult, error)

	// All returns a snapshot of every stored document, in the store's
	// stable iteration order. Used by the lexical fallback.
	All(ctx context.Context) ([]domain.Document, error)

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
