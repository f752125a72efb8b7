package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keeper-labs/keeper-cli/internal/adapters/driven/config/file"
	"github.com/keeper-labs/keeper-cli/internal/core/domain"
)

var (
	configEmbedProvider string
	configEmbedModel    string
	configEmbedKey      string
	configEmbedBaseURL  string
	configEmbedDims     int

	configLLMProvider string
	configLLMModel    string
	configLLMKey      string
	configLLMBaseURL  string

	configWatchDir string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the current configuration",
	RunE:  runConfigShow,
}

var configSetEmbeddingCmd = &cobra.Command{
	Use:   "set-embedding",
	Short: "Configure the embedding backend",
	RunE:  runConfigSetEmbedding,
}

var configSetLLMCmd = &cobra.Command{
	Use:   "set-llm",
	Short: "Configure the generation backend",
	RunE:  runConfigSetLLM,
}

var configSetWatchCmd = &cobra.Command{
	Use:   "set-watch <directory>",
	Short: "Set the notes directory for 'keeper watch'",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigSetWatch,
}

func init() {
	configSetEmbeddingCmd.Flags().StringVar(&configEmbedProvider, "provider", "", "embedding provider (openai, deepseek, doubao)")
	configSetEmbeddingCmd.Flags().StringVar(&configEmbedModel, "model", "", "embedding model name")
	configSetEmbeddingCmd.Flags().StringVar(&configEmbedKey, "api-key", "", "API key")
	configSetEmbeddingCmd.Flags().StringVar(&configEmbedBaseURL, "base-url", "", "API endpoint override")
	configSetEmbeddingCmd.Flags().IntVar(&configEmbedDims, "dimensions", 0, "vector dimensions")

	configSetLLMCmd.Flags().StringVar(&configLLMProvider, "provider", "", "generation provider (openai, deepseek, doubao, anthropic, gemini)")
	configSetLLMCmd.Flags().StringVar(&configLLMModel, "model", "", "model name")
	configSetLLMCmd.Flags().StringVar(&configLLMKey, "api-key", "", "API key")
	configSetLLMCmd.Flags().StringVar(&configLLMBaseURL, "base-url", "", "API endpoint override")

	configCmd.AddCommand(configSetEmbeddingCmd)
	configCmd.AddCommand(configSetLLMCmd)
	configCmd.AddCommand(configSetWatchCmd)
	rootCmd.AddCommand(configCmd)
}

func openConfigStore() (*file.ConfigStore, error) {
	return file.NewConfigStore("")
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	store, err := openConfigStore()
	if err != nil {
		return err
	}
	settings, err := store.Load()
	if err != nil {
		return err
	}

	cmd.Printf("Config file: %s\n\n", store.Path())

	cmd.Println("Embedding:")
	printBackend(cmd, settings.Embedding.Provider, settings.Embedding.Model,
		settings.Embedding.BaseURL, settings.Embedding.APIKey)
	if settings.Embedding.Dimensions > 0 {
		cmd.Printf("  dimensions: %d\n", settings.Embedding.Dimensions)
	}

	cmd.Println("LLM:")
	printBackend(cmd, settings.LLM.Provider, settings.LLM.Model,
		settings.LLM.BaseURL, settings.LLM.APIKey)

	cmd.Println("Retrieval:")
	cmd.Printf("  top_k: %d\n", settings.Retrieval.TopK)
	cmd.Printf("  min_relevance: %.2f\n", settings.Retrieval.MinRelevance)

	if settings.WatchDir != "" {
		cmd.Printf("Watch directory: %s\n", settings.WatchDir)
	}
	return nil
}

func printBackend(cmd *cobra.Command, provider domain.AIProvider, model, baseURL, apiKey string) {
	if provider == "" {
		cmd.Println("  (not configured)")
		return
	}
	cmd.Printf("  provider: %s\n", provider)
	if model != "" {
		cmd.Printf("  model: %s\n", model)
	}
	if baseURL != "" {
		cmd.Printf("  base_url: %s\n", baseURL)
	}
	cmd.Printf("  api_key: %s\n", redactKey(apiKey))
}

// redactKey keeps just enough of a credential to recognise it.
func redactKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func runConfigSetEmbedding(cmd *cobra.Command, _ []string) error {
	provider := domain.AIProvider(configEmbedProvider)
	if !provider.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedProvider, configEmbedProvider)
	}
	if !provider.SupportsEmbeddings() {
		return fmt.Errorf("%w: %s does not support embeddings", domain.ErrUnsupportedProvider, provider)
	}
	if configEmbedKey == "" {
		return fmt.Errorf("%w: --api-key is required", domain.ErrInvalidInput)
	}

	store, err := openConfigStore()
	if err != nil {
		return err
	}
	settings, err := store.Load()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.APIKey = configEmbedKey
	if configEmbedModel != "" {
		settings.Embedding.Model = configEmbedModel
	}
	if configEmbedBaseURL != "" {
		settings.Embedding.BaseURL = configEmbedBaseURL
	}
	if configEmbedDims > 0 {
		settings.Embedding.Dimensions = configEmbedDims
	}

	if err := store.Save(settings); err != nil {
		return err
	}
	cmd.Printf("Embedding backend set to %s (%s)\n", provider.Description(), settings.Embedding.Model)
	return nil
}

func runConfigSetLLM(cmd *cobra.Command, _ []string) error {
	provider := domain.AIProvider(configLLMProvider)
	if !provider.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedProvider, configLLMProvider)
	}
	if configLLMKey == "" {
		return fmt.Errorf("%w: --api-key is required", domain.ErrInvalidInput)
	}

	store, err := openConfigStore()
	if err != nil {
		return err
	}
	settings, err := store.Load()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.APIKey = configLLMKey
	if configLLMModel != "" {
		settings.LLM.Model = configLLMModel
	}
	if configLLMBaseURL != "" {
		settings.LLM.BaseURL = configLLMBaseURL
	}

	if err := store.Save(settings); err != nil {
		return err
	}
	cmd.Printf("Generation backend set to %s (%s)\n", provider.Description(), settings.LLM.Model)
	return nil
}

func runConfigSetWatch(cmd *cobra.Command, args []string) error {
	store, err := openConfigStore()
	if err != nil {
		return err
	}
	settings, err := store.Load()
	if err != nil {
		return err
	}

	settings.WatchDir = args[0]
	if err := store.Save(settings); err != nil {
		return err
	}
	cmd.Printf("Watch directory set to %s\n", args[0])
	return nil
}
