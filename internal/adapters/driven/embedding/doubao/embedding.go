// Package doubao provides an embedding provider using the ByteDance
// Doubao (Volcengine Ark) multimodal embedding API.
package doubao

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/keeper-labs/keeper-cli/internal/core/ports/driven"
	"github.com/keeper-labs/keeper-cli/internal/logger"
)

// Ensure EmbeddingProvider implements the interface.
var _ driven.EmbeddingProvider = (*EmbeddingProvider)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://ark.cn-beijing.volces.com/api/v3"
	DefaultModel      = "doubao-embedding-vision"
	DefaultTimeout    = 60 * time.Second
	DefaultDimensions = 2048

	// MaxInputRunes is the input truncation limit. Doubao tolerates
	// shorter inputs than OpenAI-style endpoints.
	MaxInputRunes = 4000
)

// Config holds configuration for the Doubao embedding provider.
type Config struct {
	// APIKey is the Ark API key (required).
	APIKey string

	// BaseURL is the API base URL (default: Ark cn-beijing endpoint).
	BaseURL string

	// Model is the embedding model to use (default: doubao-embedding-vision).
	Model string

	// Timeout is the per-request timeout (default: 60s).
	Timeout time.Duration

	// Dimensions is the embedding vector size (default: 2048).
	Dimensions int
}

// EmbeddingProvider generates embeddings using the Doubao multimodal API.
type EmbeddingProvider struct {
	client     *http.Client
	limiter    *rate.Limiter
	baseURL    string
	apiKey     string
	model      string
	dimensions int
}

// embedInput is one element of the multimodal input array.
type embedInput struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// embeddingRequest is the /embeddings/multimodal request format.
type embeddingRequest struct {
	Model string       `json:"model"`
	Input []embedInput `json:"input"`
}

// NewEmbeddingProvider creates a new Doubao embedding provider.
func NewEmbeddingProvider(cfg Config) (*EmbeddingProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("doubao: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}

	return &EmbeddingProvider{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:    rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed generates embeddings for the given texts, one sequential
// round-trip per item. Output length and ordering always match the
// input; a failed item yields a nil slot, never an error.
func (p *EmbeddingProvider) Embed(ctx context.Context, texts []string) [][]float32 {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := p.embedOne(ctx, text)
		if err != nil {
			logger.Warn("doubao embedding failed (%s): %v", classify(err), err)
			continue
		}
		embeddings[i] = vec
	}
	return embeddings
}

// EmbedSingle embeds one text, returning nil on failure.
func (p *EmbeddingProvider) EmbedSingle(ctx context.Context, text string) []float32 {
	results := p.Embed(ctx, []string{text})
	if len(results) == 0 {
		return nil
	}
	return results[0]
}

// embedOne performs one remote embedding call.
func (p *EmbeddingProvider) embedOne(ctx context.Context, text string) ([]float32, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	reqBody := embeddingRequest{
		Model: p.model,
		Input: []embedInput{{Type: "text", Text: truncate(text, MaxInputRunes)}},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		p.baseURL+"/embeddings/multimodal",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode, body: string(body)}
	}

	vec, err := extractVector(body)
	if err != nil {
		return nil, err
	}
	return vec, nil
}

// extractVector pulls the embedding out of a Doubao response body.
// The API has shipped several shapes: data as a list of objects, data
// as a single object, and a top-level embedding field.
func extractVector(body []byte) ([]float32, error) {
	var envelope struct {
		Data      json.RawMessage `json:"data"`
		Embedding []float32       `json:"embedding"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %w", errMissingVector, err)
	}

	if len(envelope.Embedding) > 0 {
		return envelope.Embedding, nil
	}

	if len(envelope.Data) > 0 {
		var asList []struct {
			Embedding []float32 `json:"embedding"`
		}
		if err := json.Unmarshal(envelope.Data, &asList); err == nil {
			if len(asList) > 0 && len(asList[0].Embedding) > 0 {
				return asList[0].Embedding, nil
			}
		}

		var asObject struct {
			Embedding []float32 `json:"embedding"`
		}
		if err := json.Unmarshal(envelope.Data, &asObject); err == nil {
			if len(asObject.Embedding) > 0 {
				return asObject.Embedding, nil
			}
		}
	}

	return nil, errMissingVector
}

// Dimensions returns the embedding vector size.
func (p *EmbeddingProvider) Dimensions() int {
	return p.dimensions
}

// ModelName returns the name of the embedding model being used.
func (p *EmbeddingProvider) ModelName() string {
	return p.model
}

// Ping validates the service is reachable by embedding a trivial input.
// Doubao has no inexpensive listing endpoint, so this runs one tiny
// inference call.
func (p *EmbeddingProvider) Ping(ctx context.Context) error {
	if _, err := p.embedOne(ctx, "ping"); err != nil {
		return fmt.Errorf("doubao: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (p *EmbeddingProvider) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

// errMissingVector marks a 200 response without a usable vector.
var errMissingVector = errors.New("response missing embedding vector")

// statusError is a non-2xx response.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.code, e.body)
}

// classify names the failure sub-class for observability.
func classify(err error) string {
	var statusErr *statusError
	var urlErr *url.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &urlErr) && urlErr.Timeout():
		return "timeout"
	case errors.As(err, &statusErr):
		return "bad-status"
	case errors.Is(err, errMissingVector):
		return "malformed-body"
	default:
		return "network"
	}
}

// truncate shortens s to at most n runes before the remote call.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
