// Package ai provides factory functions for creating AI provider adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	doubaoembed "github.com/keeper-labs/keeper-cli/internal/adapters/driven/embedding/doubao"
	openaiembed "github.com/keeper-labs/keeper-cli/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/keeper-labs/keeper-cli/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/keeper-labs/keeper-cli/internal/adapters/driven/llm/gemini"
	openaillm "github.com/keeper-labs/keeper-cli/internal/adapters/driven/llm/openai"
	"github.com/keeper-labs/keeper-cli/internal/core/domain"
	"github.com/keeper-labs/keeper-cli/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Known OpenAI-compatible chat endpoints for providers that do not set
// an explicit base URL.
const (
	deepseekBaseURL = "https://api.deepseek.com/v1"
	doubaoBaseURL   = "https://ark.cn-beijing.volces.com/api/v3"
)

// CreateAndValidateEmbeddingProvider creates an embedding provider and
// validates connectivity. Returns nil without error when the backend is
// not configured.
func CreateAndValidateEmbeddingProvider(settings *domain.EmbeddingSettings) (driven.EmbeddingProvider, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	provider, err := CreateEmbeddingProvider(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'keeper config' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	// Validate connectivity.
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := provider.Ping(ctx); err != nil {
		provider.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'keeper config' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	return provider, nil
}

// CreateAndValidateGenerationProvider creates a generation provider and
// validates connectivity. Returns nil without error when the backend is
// not configured.
func CreateAndValidateGenerationProvider(settings *domain.LLMSettings) (driven.GenerationProvider, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	provider, err := CreateGenerationProvider(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'keeper config' to fix",
			domain.ErrLLMUnavailable, err)
	}

	// Validate connectivity.
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := provider.Ping(ctx); err != nil {
		provider.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'keeper config' to fix",
			domain.ErrLLMUnavailable, err)
	}

	return provider, nil
}

// CreateEmbeddingProvider creates the appropriate embedding provider
// based on settings. Returns nil if the backend is not configured.
func CreateEmbeddingProvider(settings *domain.EmbeddingSettings) (driven.EmbeddingProvider, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOpenAI, domain.AIProviderDeepseek:
		baseURL := settings.BaseURL
		if baseURL == "" && settings.Provider == domain.AIProviderDeepseek {
			baseURL = deepseekBaseURL
		}
		return openaiembed.NewEmbeddingProvider(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    baseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	case domain.AIProviderDoubao:
		return doubaoembed.NewEmbeddingProvider(doubaoembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	case domain.AIProviderAnthropic, domain.AIProviderGemini:
		// No embedding surface on these backends.
		return nil, fmt.Errorf("%w: %s does not support embeddings, use openai, doubao or deepseek",
			domain.ErrUnsupportedProvider, settings.Provider)

	default:
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedProvider, settings.Provider)
	}
}

// CreateGenerationProvider creates the appropriate generation provider
// based on settings. Returns nil if the backend is not configured.
// Doubao and DeepSeek speak the OpenAI chat surface and reuse that
// adapter with their own endpoints.
func CreateGenerationProvider(settings *domain.LLMSettings) (driven.GenerationProvider, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOpenAI:
		return openaillm.NewGenerationProvider(openaillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderDeepseek:
		baseURL := settings.BaseURL
		if baseURL == "" {
			baseURL = deepseekBaseURL
		}
		return openaillm.NewGenerationProvider(openaillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: baseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderDoubao:
		baseURL := settings.BaseURL
		if baseURL == "" {
			baseURL = doubaoBaseURL
		}
		return openaillm.NewGenerationProvider(openaillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: baseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewGenerationProvider(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderGemini:
		return geminillm.NewGenerationProvider(geminillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("%w: generation provider %q", domain.ErrUnsupportedProvider, settings.Provider)
	}
}
