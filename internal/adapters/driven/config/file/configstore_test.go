package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keeper-labs/keeper-cli/internal/core/domain"
)

func newTestConfigStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestConfigStore_LoadMissingFileYieldsDefaults(t *testing.T) {
	store := newTestConfigStore(t)

	settings, err := store.Load()
	require.NoError(t, err)
	assert.False(t, settings.Embedding.IsConfigured())
	assert.False(t, settings.LLM.IsConfigured())
	assert.Equal(t, domain.DefaultTopK, settings.Retrieval.TopK)
	assert.InDelta(t, domain.DefaultMinRelevance, settings.Retrieval.MinRelevance, 1e-9)
}

func TestConfigStore_SaveLoadRoundTrip(t *testing.T) {
	store := newTestConfigStore(t)

	saved := domain.Settings{
		Embedding: domain.EmbeddingSettings{
			Provider:   domain.AIProviderOpenAI,
			Model:      "text-embedding-3-small",
			APIKey:     "sk-test",
			Dimensions: 1536,
		},
		LLM: domain.LLMSettings{
			Provider: domain.AIProviderAnthropic,
			Model:    "claude-sonnet-4-20250514",
			APIKey:   "ak-test",
		},
		Retrieval: domain.RetrievalSettings{
			TopK:         8,
			MinRelevance: 0.4,
			VectorFloor:  0.55,
			LexicalFloor: 0.25,
		},
		WatchDir: "/tmp/notes",
	}
	require.NoError(t, store.Save(saved))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, saved.Embedding, loaded.Embedding)
	assert.Equal(t, saved.LLM, loaded.LLM)
	assert.Equal(t, saved.Retrieval, loaded.Retrieval)
	assert.Equal(t, "/tmp/notes", loaded.WatchDir)
}

func TestConfigStore_SaveRestrictsPermissions(t *testing.T) {
	store := newTestConfigStore(t)
	require.NoError(t, store.Save(domain.Settings{}))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_LoadRejectsUnknownProvider(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	toml := "[llm]\nprovider = \"grok\"\napi_key = \"x\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0600))

	_, err = store.Load()
	assert.ErrorIs(t, err, domain.ErrUnsupportedProvider)
}

func TestConfigStore_LoadRejectsNonEmbeddingProviderInEmbeddingSlot(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	toml := "[embedding]\nprovider = \"anthropic\"\napi_key = \"x\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0600))

	_, err = store.Load()
	assert.ErrorIs(t, err, domain.ErrUnsupportedProvider)
}

func TestConfigStore_LoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not = [valid"), 0600))

	_, err = store.Load()
	assert.Error(t, err)
}
