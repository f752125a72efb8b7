package domain

const unknownDescription = "Unknown"

// AIProvider identifies an AI service backend for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOpenAI is the OpenAI cloud API, and any service
	// exposing an OpenAI-compatible surface.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderDoubao is the ByteDance Doubao (Volcengine Ark) API.
	AIProviderDoubao AIProvider = "doubao"

	// AIProviderDeepseek is the DeepSeek API (OpenAI-compatible).
	AIProviderDeepseek AIProvider = "deepseek"

	// AIProviderAnthropic is the Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is the Google Gemini API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOpenAI, AIProviderDoubao, AIProviderDeepseek,
		AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// SupportsEmbeddings returns true if this provider offers an embedding API.
func (p AIProvider) SupportsEmbeddings() bool {
	return p == AIProviderOpenAI || p == AIProviderDoubao || p == AIProviderDeepseek
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOpenAI:
		return "OpenAI (or compatible)"
	case AIProviderDoubao:
		return "Doubao (Volcengine Ark)"
	case AIProviderDeepseek:
		return "DeepSeek"
	case AIProviderAnthropic:
		return "Anthropic"
	case AIProviderGemini:
		return "Google Gemini"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding backend configuration.
type EmbeddingSettings struct {
	// Provider is the embedding backend.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API credential.
	APIKey string

	// Dimensions is the fixed vector dimension for the store.
	Dimensions int
}

// IsConfigured returns true if the embedding backend is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	return e.Provider.IsValid() && e.APIKey != ""
}

// LLMSettings holds generation backend configuration.
type LLMSettings struct {
	// Provider is the generation backend.
	Provider AIProvider

	// Model is the model name.
	Model string

	// BaseURL is the API endpoint. Optional for providers with a
	// fixed public endpoint.
	BaseURL string

	// APIKey is the API credential.
	APIKey string
}

// IsConfigured returns true if the generation backend is set up.
func (l LLMSettings) IsConfigured() bool {
	return l.Provider.IsValid() && l.APIKey != ""
}

// Default retrieval knobs. These floors are tuning values, not fixed
// semantics: callers may override any of them through RetrievalSettings.
const (
	DefaultTopK         = 5
	DefaultMinRelevance = 0.3
	DefaultVectorFloor  = 0.5
	DefaultLexicalFloor = 0.2
)

// RetrievalSettings holds retrieval behaviour configuration.
type RetrievalSettings struct {
	// TopK is the maximum number of documents to retrieve.
	TopK int

	// MinRelevance drops results below this score before grounding.
	MinRelevance float64

	// VectorFloor drops weak vector-search hits at the search layer.
	VectorFloor float64

	// LexicalFloor drops weak hits in the lexical fallback.
	LexicalFloor float64
}

// WithDefaults fills unset fields with the default knobs.
func (r RetrievalSettings) WithDefaults() RetrievalSettings {
	if r.TopK <= 0 {
		r.TopK = DefaultTopK
	}
	if r.MinRelevance <= 0 {
		r.MinRelevance = DefaultMinRelevance
	}
	if r.VectorFloor <= 0 {
		r.VectorFloor = DefaultVectorFloor
	}
	if r.LexicalFloor <= 0 {
		r.LexicalFloor = DefaultLexicalFloor
	}
	return r
}

// Settings aggregates the full engine configuration.
type Settings struct {
	// Embedding selects and configures the embedding backend.
	Embedding EmbeddingSettings

	// LLM selects and configures the generation backend.
	LLM LLMSettings

	// Retrieval configures ranking thresholds.
	Retrieval RetrievalSettings

	// DataDir is where the vector store and conversation database live.
	DataDir string

	// WatchDir is an optional notes directory to auto-index.
	WatchDir string
}
