// Package gemini provides a generation provider using the Google
// Gemini generateContent API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/keeper-labs/keeper-cli/internal/core/domain"
	"github.com/keeper-labs/keeper-cli/internal/core/ports/driven"
)

// Ensure GenerationProvider implements the interface.
var _ driven.GenerationProvider = (*GenerationProvider)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-1.5-flash"
	DefaultTimeout = 120 * time.Second

	defaultTemperature = 0.7
	defaultMaxTokens   = 2000
)

// Config holds configuration for the Gemini generation provider.
type Config struct {
	// APIKey is the Google AI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: the public v1beta endpoint).
	BaseURL string

	// Model is the model to use (default: gemini-1.5-flash).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// GenerationProvider produces completions using the Gemini API.
type GenerationProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// generateRequest is the generateContent request format. Gemini has no
// system role, so system messages fold into the first user turn.
type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// generateResponse is the generateContent response format.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewGenerationProvider creates a new Gemini generation provider.
func NewGenerationProvider(cfg Config) (*GenerationProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
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

	return &GenerationProvider{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Complete performs one round-trip and returns the full completion.
func (p *GenerationProvider) Complete(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	reqBody := generateRequest{
		Contents: toContents(messages),
		GenerationConfig: generationConfig{
			Temperature:     defaultTemperature,
			MaxOutputTokens: defaultMaxTokens,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, p.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", classifyErr(fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classifyErr(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyStatus(resp.StatusCode, string(body))
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrMalformedResponse, err)
	}
	if genResp.Error != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrMalformedResponse, genResp.Error.Message)
	}
	if len(genResp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates returned", domain.ErrMalformedResponse)
	}

	var result strings.Builder
	for _, prt := range genResp.Candidates[0].Content.Parts {
		result.WriteString(prt.Text)
	}
	return result.String(), nil
}

// Stream runs a batch completion and yields the whole answer as a
// single content fragment. Incremental streaming is not wired for this
// backend; callers see the same channel contract either way.
func (p *GenerationProvider) Stream(ctx context.Context, messages []domain.ChatMessage) (<-chan driven.StreamChunk, error) {
	text, err := p.Complete(ctx, messages)
	if err != nil {
		return nil, err
	}

	ch := make(chan driven.StreamChunk, 1)
	ch <- driven.StreamChunk{Type: driven.ChunkContent, Text: text}
	close(ch)
	return ch, nil
}

// toContents maps chat messages to Gemini contents. The assistant role
// becomes "model"; system messages prepend to the first user turn.
func toContents(messages []domain.ChatMessage) []content {
	var systemPrompt string
	contents := make([]content, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case domain.RoleSystem:
			systemPrompt = msg.Content
		case domain.RoleAssistant:
			contents = append(contents, content{Role: "model", Parts: []part{{Text: msg.Content}}})
		default:
			contents = append(contents, content{Role: "user", Parts: []part{{Text: msg.Content}}})
		}
	}

	if systemPrompt != "" {
		for i := range contents {
			if contents[i].Role == "user" {
				contents[i].Parts[0].Text = systemPrompt + "\n\n" + contents[i].Parts[0].Text
				break
			}
		}
	}
	return contents
}

// ModelName returns the name of the model being used.
func (p *GenerationProvider) ModelName() string {
	return p.model
}

// Ping validates the service is reachable by fetching model metadata.
func (p *GenerationProvider) Ping(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/models/%s", p.baseURL, p.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("gemini: failed to create ping request: %w", err)
	}
	req.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("gemini: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("gemini: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("gemini: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (p *GenerationProvider) Close() error {
	// HTTP clients don't need explicit cleanup
	return nil
}

// classifyStatus maps a non-2xx response to a domain error class.
func classifyStatus(code int, body string) error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: status %d: %s", domain.ErrAuthFailed, code, body)
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d: %s", domain.ErrRateLimited, code, body)
	default:
		return fmt.Errorf("gemini error (status %d): %s", code, body)
	}
}

// classifyErr maps transport failures to a domain error class.
func classifyErr(err error) error {
	var urlErr *url.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", domain.ErrProviderTimeout, err)
	case errors.As(err, &urlErr) && urlErr.Timeout():
		return fmt.Errorf("%w: %w", domain.ErrProviderTimeout, err)
	default:
		return err
	}
}
