// Package file provides a JSON-file-backed vector store.
//
// Every mutation rewrites the index file atomically (temp file + rename),
// so a crash mid-write never corrupts previously committed entries. The
// whole index is held in memory; search is an exact cosine scan, which is
// the right trade-off for a personal knowledge base of a few thousand
// documents.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/keeper-labs/keeper-cli/internal/core/domain"
	"github.com/keeper-labs/keeper-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// indexFileName is the on-disk index inside the data directory.
const indexFileName = "vectors.json"

// record is the persisted form of one document.
type record struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Embedding []float32      `json:"embedding,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// indexFile is the persisted form of the whole store. Records keep
// insertion order, which gives search its stable tie-break.
type indexFile struct {
	Documents []record `json:"documents"`
}

// Store is a file-persisted implementation of driven.VectorStore.
type Store struct {
	mu       sync.RWMutex
	filePath string
	docs     map[string]domain.Document
	order    []string // insertion order of ids
}

// NewStore opens (or creates) a vector store in dataDir.
// A missing index file yields an empty store; an unreadable or
// undecodable one is a load error, never silently reset.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".keeper", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	s := &Store{
		filePath: filepath.Join(dataDir, indexFileName),
		docs:     make(map[string]domain.Document),
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

// load reads the index file into memory.
func (s *Store) load() error {
	data, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: reading %s: %w", domain.ErrStoreCorrupt, s.filePath, err)
	}

	var idx indexFile
	if err := json.Unmarshal(data, &idx); err != nil {
		return fmt.Errorf("%w: decoding %s: %w", domain.ErrStoreCorrupt, s.filePath, err)
	}

	for _, rec := range idx.Documents {
		s.docs[rec.ID] = domain.Document{
			ID:        rec.ID,
			Content:   rec.Content,
			Embedding: rec.Embedding,
			Metadata:  rec.Metadata,
		}
		s.order = append(s.order, rec.ID)
	}
	return nil
}

// save writes the index atomically (caller must hold the write lock).
func (s *Store) save() error {
	idx := indexFile{Documents: make([]record, 0, len(s.order))}
	for _, id := range s.order {
		doc := s.docs[id]
		idx.Documents = append(idx.Documents, record{
			ID:        doc.ID,
			Content:   doc.Content,
			Embedding: doc.Embedding,
			Metadata:  doc.Metadata,
		})
	}

	data, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}

	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	if err := os.Rename(tmp, s.filePath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("committing index: %w", err)
	}
	return nil
}

// Upsert adds or replaces a document and durably commits before returning.
func (s *Store) Upsert(ctx context.Context, doc domain.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("%w: empty document id", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[doc.ID]; !exists {
		s.order = append(s.order, doc.ID)
	}
	s.docs[doc.ID] = doc
	return s.save()
}

// Delete removes a document. Deleting an absent id is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[id]; !exists {
		return nil
	}
	delete(s.docs, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return s.save()
}

// Get returns the current version of a document.
func (s *Store) Get(ctx context.Context, id string) (domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return domain.Document{}, fmt.Errorf("document %q: %w", id, domain.ErrNotFound)
	}
	return doc, nil
}

// Search ranks embedded documents against the query vector.
// Relevance maps cosine similarity from [-1,1] to [0,1]. Documents with
// empty or zero-norm embeddings are skipped: they cannot be matched by
// vector search.
func (s *Store) Search(ctx context.Context, query []float32, limit int) ([]domain.RetrievalResult, error) {
	queryNorm := norm(query)
	if queryNorm == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]domain.RetrievalResult, 0, len(s.order))
	for _, id := range s.order {
		doc := s.docs[id]
		if !doc.Embedded() {
			continue
		}
		docNorm := norm(doc.Embedding)
		if docNorm == 0 {
			continue
		}

		similarity := dot(query, doc.Embedding) / (queryNorm * docNorm)
		results = append(results, domain.RetrievalResult{
			ID:        doc.ID,
			Content:   doc.Content,
			Metadata:  doc.Metadata,
			Relevance: (similarity + 1) / 2,
		})
	}

	// Stable sort keeps insertion order as the tie-break.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// All returns a snapshot of every stored document in insertion order.
func (s *Store) All(ctx context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]domain.Document, 0, len(s.order))
	for _, id := range s.order {
		docs = append(docs, s.docs[id])
	}
	return docs, nil
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs), nil
}

// Close releases resources. The store holds no open handles between
// mutations, so this is a no-op.
func (s *Store) Close() error {
	return nil
}

// dot computes the inner product of two vectors. Mismatched lengths
// compare over the shorter prefix, which yields a low score rather
// than a panic for dimension-mismatched documents.
func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// norm computes the Euclidean norm of a vector.
func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
