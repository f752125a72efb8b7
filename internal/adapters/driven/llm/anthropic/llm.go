// Package anthropic provides a generation provider using the Anthropic
// Messages API.
package anthropic

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

// Default configuration values.
const (
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultModel   = "claude-3-5-sonnet-latest"
	DefaultTimeout = 120 * time.Second

	defaultMaxTokens = 2000

	// anthropicVersion is the required API version header.
	anthropicVersion = "2023-06-01"
)

// Config holds configuration for the Anthropic generation provider.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string

	// Model is the model to use (default: claude-3-5-sonnet-latest).
	Model string

	// Timeout is the request timeout for batch completions and the
	// header wait for streams (default: 120s).
	Timeout time.Duration
}

// GenerationProvider produces completions using the Anthropic API.
type GenerationProvider struct {
	client       *http.Client
	streamClient *http.Client
	baseURL      string
	apiKey       string
	model        string
}

// messagesRequest is the /v1/messages request format. The system prompt
// rides a dedicated field, not a message role.
type messagesRequest struct {
	Model     string            `json:"model"`
	Messages  []messagesMessage `json:"messages"`
	MaxTokens int               `json:"max_tokens"`
	System    string            `json:"system,omitempty"`
	Stream    bool              `json:"stream,omitempty"`
}

// messagesMessage is the Anthropic message format.
type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesResponse is the batch response format.
type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// streamEvent is one decoded SSE data frame.
type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type     string `json:"type"`
		Text     string `json:"text"`
		Thinking string `json:"thinking"`
	} `json:"delta"`
}

// NewGenerationProvider creates a new Anthropic generation provider.
func NewGenerationProvider(cfg Config) (*GenerationProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
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

	var msgResp messagesResponse
	if err := json.Unmarshal(body, &msgResp); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrMalformedResponse, err)
	}
	if msgResp.Error != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrMalformedResponse, msgResp.Error.Message)
	}
	if len(msgResp.Content) == 0 {
		return "", fmt.Errorf("%w: no content returned", domain.ErrMalformedResponse)
	}

	var result strings.Builder
	for _, block := range msgResp.Content {
		if block.Type == "text" {
			result.WriteString(block.Text)
		}
	}
	return result.String(), nil
}

// Stream opens a streaming completion. Text deltas arrive as content
// chunks; extended-thinking deltas, when the model emits them, arrive
// as thinking chunks.
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

			var event streamEvent
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
				continue
			}

			switch event.Type {
			case "content_block_delta":
				var chunk driven.StreamChunk
				switch event.Delta.Type {
				case "thinking_delta":
					chunk = driven.StreamChunk{Type: driven.ChunkThinking, Text: event.Delta.Thinking}
				default:
					chunk = driven.StreamChunk{Type: driven.ChunkContent, Text: event.Delta.Text}
				}
				if chunk.Text == "" {
					continue
				}
				select {
				case ch <- chunk:
				case <-ctx.Done():
					return
				}
			case "message_stop":
				return
			}
		}
	}()

	return ch, nil
}

// send issues the messages request, extracting any system message into
// the dedicated field.
func (p *GenerationProvider) send(ctx context.Context, client *http.Client, messages []domain.ChatMessage, stream bool) (*http.Response, error) {
	var systemPrompt string
	apiMessages := make([]messagesMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == domain.RoleSystem {
			systemPrompt = msg.Content
			continue
		}
		apiMessages = append(apiMessages, messagesMessage{
			Role:    msg.Role.String(),
			Content: msg.Content,
		})
	}

	reqBody := messagesRequest{
		Model:     p.model,
		Messages:  apiMessages,
		MaxTokens: defaultMaxTokens,
		System:    systemPrompt,
		Stream:    stream,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		p.baseURL+"/v1/messages",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

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

// Ping validates the service is reachable by checking the /v1/models
// endpoint. This is a lightweight check that validates the API key
// without running inference.
func (p *GenerationProvider) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("anthropic: failed to create ping request: %w", err)
	}
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("anthropic: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("anthropic: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("anthropic: API returned status %d: %s", resp.StatusCode, string(body))
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
		return fmt.Errorf("anthropic error (status %d): %s", code, body)
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
