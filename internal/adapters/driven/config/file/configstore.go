// Package file provides the TOML settings store. Configuration lives in
// a single file under the keeper config directory and loads into typed
// domain settings at startup.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/keeper-labs/keeper-cli/internal/core/domain"
)

// fileConfig is the on-disk TOML shape.
type fileConfig struct {
	Embedding embeddingConfig `toml:"embedding"`
	LLM       llmConfig       `toml:"llm"`
	Retrieval retrievalConfig `toml:"retrieval"`
	DataDir   string          `toml:"data_dir"`
	WatchDir  string          `toml:"watch_dir"`
}

type embeddingConfig struct {
	Provider   string `toml:"provider"`
	Model      string `toml:"model"`
	BaseURL    string `toml:"base_url"`
	APIKey     string `toml:"api_key"`
	Dimensions int    `toml:"dimensions"`
}

type llmConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	BaseURL  string `toml:"base_url"`
	APIKey   string `toml:"api_key"`
}

type retrievalConfig struct {
	TopK         int     `toml:"top_k"`
	MinRelevance float64 `toml:"min_relevance"`
	VectorFloor  float64 `toml:"vector_floor"`
	LexicalFloor float64 `toml:"lexical_floor"`
}

// ConfigStore is a file-based settings store using TOML.
type ConfigStore struct {
	mu       sync.Mutex
	filePath string
}

// NewConfigStore creates a new TOML settings store.
// If configDir is empty, defaults to ~/.keeper/config.toml.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".keeper")
	}

	// Ensure directory exists
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	return &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
	}, nil
}

// Load reads and validates the settings file. A missing file yields
// zero-value settings with defaults applied; a malformed or invalid
// file is a fatal configuration error.
func (s *ConfigStore) Load() (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cfg fileConfig
	data, err := os.ReadFile(s.filePath)
	switch {
	case os.IsNotExist(err):
		// No config file yet - start with defaults
	case err != nil:
		return domain.Settings{}, fmt.Errorf("reading config: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return domain.Settings{}, fmt.Errorf("parsing %s: %w", s.filePath, err)
		}
	}

	settings := domain.Settings{
		Embedding: domain.EmbeddingSettings{
			Provider:   domain.AIProvider(cfg.Embedding.Provider),
			Model:      cfg.Embedding.Model,
			BaseURL:    cfg.Embedding.BaseURL,
			APIKey:     cfg.Embedding.APIKey,
			Dimensions: cfg.Embedding.Dimensions,
		},
		LLM: domain.LLMSettings{
			Provider: domain.AIProvider(cfg.LLM.Provider),
			Model:    cfg.LLM.Model,
			BaseURL:  cfg.LLM.BaseURL,
			APIKey:   cfg.LLM.APIKey,
		},
		Retrieval: domain.RetrievalSettings{
			TopK:         cfg.Retrieval.TopK,
			MinRelevance: cfg.Retrieval.MinRelevance,
			VectorFloor:  cfg.Retrieval.VectorFloor,
			LexicalFloor: cfg.Retrieval.LexicalFloor,
		}.WithDefaults(),
		DataDir:  cfg.DataDir,
		WatchDir: cfg.WatchDir,
	}

	if err := validate(settings); err != nil {
		return domain.Settings{}, fmt.Errorf("invalid config %s: %w", s.filePath, err)
	}
	return settings, nil
}

// Save persists the settings to disk with restricted permissions.
func (s *ConfigStore) Save(settings domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := fileConfig{
		Embedding: embeddingConfig{
			Provider:   settings.Embedding.Provider.String(),
			Model:      settings.Embedding.Model,
			BaseURL:    settings.Embedding.BaseURL,
			APIKey:     settings.Embedding.APIKey,
			Dimensions: settings.Embedding.Dimensions,
		},
		LLM: llmConfig{
			Provider: settings.LLM.Provider.String(),
			Model:    settings.LLM.Model,
			BaseURL:  settings.LLM.BaseURL,
			APIKey:   settings.LLM.APIKey,
		},
		Retrieval: retrievalConfig{
			TopK:         settings.Retrieval.TopK,
			MinRelevance: settings.Retrieval.MinRelevance,
			VectorFloor:  settings.Retrieval.VectorFloor,
			LexicalFloor: settings.Retrieval.LexicalFloor,
		},
		DataDir:  settings.DataDir,
		WatchDir: settings.WatchDir,
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	return os.WriteFile(s.filePath, data, 0600)
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// validate rejects settings that name a provider the engine cannot
// construct. Unset providers are fine; the engine degrades instead.
func validate(settings domain.Settings) error {
	if p := settings.Embedding.Provider; p != "" && !p.IsValid() {
		return fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedProvider, p)
	}
	if p := settings.Embedding.Provider; p.IsValid() && !p.SupportsEmbeddings() {
		return fmt.Errorf("%w: %s does not support embeddings", domain.ErrUnsupportedProvider, p)
	}
	if p := settings.LLM.Provider; p != "" && !p.IsValid() {
		return fmt.Errorf("%w: llm provider %q", domain.ErrUnsupportedProvider, p)
	}
	return nil
}
