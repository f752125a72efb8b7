package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAIProvider_IsValid(t *testing.T) {
	for _, p := range []AIProvider{
		AIProviderOpenAI, AIProviderDoubao, AIProviderDeepseek,
		AIProviderAnthropic, AIProviderGemini,
	} {
		assert.True(t, p.IsValid(), "provider %s should be valid", p)
	}

	assert.False(t, AIProvider("").IsValid())
	assert.False(t, AIProvider("grok").IsValid())
}

func TestAIProvider_SupportsEmbeddings(t *testing.T) {
	assert.True(t, AIProviderOpenAI.SupportsEmbeddings())
	assert.True(t, AIProviderDoubao.SupportsEmbeddings())
	assert.True(t, AIProviderDeepseek.SupportsEmbeddings())
	assert.False(t, AIProviderAnthropic.SupportsEmbeddings())
	assert.False(t, AIProviderGemini.SupportsEmbeddings())
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	assert.False(t, EmbeddingSettings{}.IsConfigured())
	assert.False(t, EmbeddingSettings{Provider: AIProviderOpenAI}.IsConfigured())
	assert.False(t, EmbeddingSettings{APIKey: "sk-test"}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "sk-test"}.IsConfigured())
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	assert.False(t, LLMSettings{}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderAnthropic, APIKey: "ak-test"}.IsConfigured())
}

func TestRetrievalSettings_WithDefaults(t *testing.T) {
	filled := RetrievalSettings{}.WithDefaults()
	assert.Equal(t, DefaultTopK, filled.TopK)
	assert.InDelta(t, DefaultMinRelevance, filled.MinRelevance, 1e-9)
	assert.InDelta(t, DefaultVectorFloor, filled.VectorFloor, 1e-9)
	assert.InDelta(t, DefaultLexicalFloor, filled.LexicalFloor, 1e-9)

	custom := RetrievalSettings{TopK: 8, MinRelevance: 0.5}.WithDefaults()
	assert.Equal(t, 8, custom.TopK)
	assert.InDelta(t, 0.5, custom.MinRelevance, 1e-9)
	assert.InDelta(t, DefaultVectorFloor, custom.VectorFloor, 1e-9)
}

func TestRole_IsValid(t *testing.T) {
	assert.True(t, RoleSystem.IsValid())
	assert.True(t, RoleUser.IsValid())
	assert.True(t, RoleAssistant.IsValid())
	assert.False(t, Role("moderator").IsValid())
}
