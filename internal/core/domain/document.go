package domain

// Document represents a stored knowledge-base entry.
// It is the unit of storage in the vector store: one id maps to at most
// one current version, and re-adding the same id replaces it.
type Document struct {
	// ID is the caller-supplied, stable, unique identifier.
	ID string

	// Content is the raw text content. It may have been truncated
	// before embedding.
	Content string

	// Embedding is the vector representation of Content.
	// An empty or nil embedding marks the document as unembedded:
	// it cannot be matched by vector search, only by the lexical
	// fallback.
	Embedding []float32

	// Metadata contains arbitrary key-value pairs (title, url, type).
	Metadata map[string]any
}

// Embedded returns true if the document carries a usable embedding.
func (d Document) Embedded() bool {
	return len(d.Embedding) > 0
}

// Title returns the metadata title, or a placeholder when absent.
func (d Document) Title() string {
	if t, ok := d.Metadata["title"].(string); ok && t != "" {
		return t
	}
	return "Untitled"
}

// URL returns the metadata source url, if any.
func (d Document) URL() string {
	u, _ := d.Metadata["url"].(string)
	return u
}

// RetrievalResult represents a single scored hit from a retrieval query.
// Results are derived per query and never cached.
type RetrievalResult struct {
	// ID is the matched document id.
	ID string

	// Content is the matched document's content.
	Content string

	// Metadata is the matched document's metadata.
	Metadata map[string]any

	// Relevance is the score in [0,1]. For vector search this is
	// (cosine similarity + 1) / 2.
	Relevance float64
}

// snippetLength is the number of content characters quoted in a citation.
const snippetLength = 200

// SourceReference is a citation attached to a generated answer.
// It is created once per answer and immutable thereafter.
type SourceReference struct {
	// DocumentID is the cited document.
	DocumentID string `json:"document_id"`

	// Title is the document's display title.
	Title string `json:"title"`

	// URL is the document's source url, if known.
	URL string `json:"url,omitempty"`

	// Relevance is the retrieval score that earned the citation.
	Relevance float64 `json:"relevance"`

	// Snippet is the leading portion of the cited content.
	Snippet string `json:"snippet,omitempty"`
}

// SourceFromResult builds a citation from a retrieval hit.
func SourceFromResult(r RetrievalResult) SourceReference {
	title, _ := r.Metadata["title"].(string)
	if title == "" {
		title = "Untitled"
	}
	url, _ := r.Metadata["url"].(string)

	snippet := ""
	if r.Content != "" {
		snippet = TruncateRunes(r.Content, snippetLength)
		if len([]rune(r.Content)) > snippetLength {
			snippet += "..."
		}
	}

	return SourceReference{
		DocumentID: r.ID,
		Title:      title,
		URL:        url,
		Relevance:  r.Relevance,
		Snippet:    snippet,
	}
}

// TruncateRunes shortens s to at most n runes. Truncation happens on
// rune boundaries so multi-byte scripts are never split mid-character.
func TruncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// Answer is the result of a batch RAG request.
type Answer struct {
	// Text is the generated answer.
	Text string

	// Sources lists the documents the answer was grounded on.
	// Empty when the knowledge base was disabled or nothing matched.
	Sources []SourceReference
}

// Stats reports the engine's observable state.
type Stats struct {
	// DocumentCount is the number of documents in the vector store.
	DocumentCount int

	// VectorBackendActive is false when the engine is running in
	// degraded lexical-fallback mode.
	VectorBackendActive bool
}
