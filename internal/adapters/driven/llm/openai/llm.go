// Package openai provides a generation provider using the OpenAI
// chat-completions API or any compatible endpoint (DeepSeek, Doubao,
// Azure OpenAI).
package openai

import (
	"bufio"
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

// Default configuration values. Temperature and max output tokens are
// fixed per-backend defaults, not negotiated per call.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 120 * time.Second

	defaultTemperature = 0.7
	defaultMaxTokens   = 2000
)

// Config holds configuration for the OpenAI generation provider.
type Config struct {
	// APIKey is the API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Model is the model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the request timeout for batch completions and the
	// header wait for streams (default: 120s).
	Timeout time.Duration
}

// GenerationProvider produces completions using an OpenAI-compatible API.
type GenerationProvider struct {
	client *http.Client
	// streamClient has no overall timeout: a stream lives as long as
	// the backend keeps producing. Cancellation comes from the caller's
	// context; only the wait for response headers is bounded.
	streamClient *http.Client
	baseURL      string
	apiKey       string
	model        string
}

// chatCompletionRequest is the /chat/completions request format.
type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []chatCompletionMsg `json:"messages"`
	Stream      bool                `json:"stream"`
	Temperature float64             `json:"temperature"`
	MaxTokens   int                 `json:"max_tokens"`
}

// chatCompletionMsg is the chat message format.
type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionResponse is the batch response format.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// streamFrame is one decoded SSE data frame.
type streamFrame struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
			// ReasoningContent carries thinking tokens on backends
			// that expose them (DeepSeek reasoner models).
			ReasoningContent string `json:"reasoning_content"`
		} `json:"delta"`
	} `json:"choices"`
}

// NewGenerationProvider creates a new OpenAI generation provider.
func NewGenerationProvider(cfg Config) (*GenerationProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
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
		streamClient: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: cfg.Timeout,
			},
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Complete performs one round-trip and returns the full completion.
func (p *GenerationProvider) Complete(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	resp, err := p.send(ctx, p.client, messages, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classifyErr(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyStatus(resp.StatusCode, string(body))
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrMalformedResponse, err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrMalformedResponse, chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", domain.ErrMalformedResponse)
	}

	return chatResp.Choices[0].Message.Content, nil
}

// Stream opens a streaming completion and delivers fragments in backend
// order. The channel closes when the backend emits [DONE] or the
// connection ends; cancelling ctx aborts the read and releases the
// connection.
func (p *GenerationProvider) Stream(ctx context.Context, messages []domain.ChatMessage) (<-chan driven.StreamChunk, error) {
	resp, err := p.send(ctx, p.streamClient, messages, true)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, classifyStatus(resp.StatusCode, string(body))
	}

	ch := make(chan driven.StreamChunk)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			payload := strings.TrimPrefix(line, "data: ")
			if strings.TrimSpace(payload) == "[DONE]" {
				return
			}

			var frame streamFrame
			if err := json.Unmarshal([]byte(payload), &frame); err != nil {
				continue
			}
			if len(frame.Choices) == 0 {
				continue
			}

			delta := frame.Choices[0].Delta
			if delta.ReasoningContent != "" {
				if !emit(ctx, ch, driven.StreamChunk{Type: driven.ChunkThinking, Text: delta.ReasoningContent}) {
					return
				}
			}
			if delta.Content != "" {
				if !emit(ctx, ch, driven.StreamChunk{Type: driven.ChunkContent, Text: delta.Content}) {
					return
				}
			}
		}
	}()

	return ch, nil
}

// send issues the chat-completions request.
func (p *GenerationProvider) send(ctx context.Context, client *http.Client, messages []domain.ChatMessage, stream bool) (*http.Response, error) {
	chatMessages := make([]chatCompletionMsg, len(messages))
	for i, msg := range messages {
		chatMessages[i] = chatCompletionMsg{
			Role:    msg.Role.String(),
			Content: msg.Content,
		}
	}

	reqBody := chatCompletionRequest{
		Model:       p.model,
		Messages:    chatMessages,
		Stream:      stream,
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		p.baseURL+"/chat/completions",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, classifyErr(fmt.Errorf("send request: %w", err))
	}
	return resp, nil
}

// ModelName returns the name of the model being used.
func (p *GenerationProvider) ModelName() string {
	return p.model
}

// Ping validates the service is reachable by checking the /models endpoint.
// This is a lightweight check that validates the API key without running
// inference.
func (p *GenerationProvider) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("openai: failed to create ping request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("openai: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("openai: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (p *GenerationProvider) Close() error {
	// HTTP clients don't need explicit cleanup
	return nil
}

// emit sends a chunk unless the consumer has gone away.
func emit(ctx context.Context, ch chan<- driven.StreamChunk, chunk driven.StreamChunk) bool {
	select {
	case ch <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}

// classifyStatus maps a non-2xx response to a domain error class.
func classifyStatus(code int, body string) error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: status %d: %s", domain.ErrAuthFailed, code, body)
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d: %s", domain.ErrRateLimited, code, body)
	default:
		return fmt.Errorf("openai error (status %d): %s", code, body)
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
