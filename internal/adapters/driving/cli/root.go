// Package cli implements the keeper command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/keeper-labs/keeper-cli/internal/adapters/driven/ai"
	configfile "github.com/keeper-labs/keeper-cli/internal/adapters/driven/config/file"
	"github.com/keeper-labs/keeper-cli/internal/adapters/driven/storage/sqlite"
	vectorfile "github.com/keeper-labs/keeper-cli/internal/adapters/driven/vectorstore/file"
	"github.com/keeper-labs/keeper-cli/internal/core/domain"
	"github.com/keeper-labs/keeper-cli/internal/core/services"
	"github.com/keeper-labs/keeper-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

var verboseFlag bool

// Wired services, populated by ensureServices.
var (
	settings         domain.Settings
	assistantService *services.AssistantService
	retrievalService *services.RetrievalService
	conversationDB   *sqlite.Store
	closers          []func() error
)

var rootCmd = &cobra.Command{
	Use:   "keeper",
	Short: "Personal knowledge base with semantic retrieval",
	Long: `Keeper indexes your notes and bookmarks into a local knowledge base
and answers questions grounded on what you stored, with cited sources.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command until completion or interrupt.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer closeServices()
	return rootCmd.ExecuteContext(ctx)
}

// ensureServices wires the full engine on first use. Commands that need
// no backends (version) never call this.
func ensureServices() error {
	if assistantService != nil {
		return nil
	}

	configStore, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	settings, err = configStore.Load()
	if err != nil {
		return err
	}

	vectorStore, err := vectorfile.NewStore(settings.DataDir)
	if err != nil {
		return fmt.Errorf("open vector store: %w", err)
	}
	closers = append(closers, vectorStore.Close)

	conversationDB, err = sqlite.NewStore(settings.DataDir)
	if err != nil {
		return fmt.Errorf("open conversation store: %w", err)
	}
	closers = append(closers, conversationDB.Close)

	// A broken embedding backend degrades to lexical retrieval rather
	// than refusing to start.
	embeddingProvider, err := ai.CreateAndValidateEmbeddingProvider(&settings.Embedding)
	if err != nil {
		logger.Warn("Embedding backend unavailable: %v", err)
		embeddingProvider = nil
	}
	if embeddingProvider != nil {
		closers = append(closers, embeddingProvider.Close)
	}

	generationProvider, err := ai.CreateAndValidateGenerationProvider(&settings.LLM)
	if err != nil {
		return err
	}
	if generationProvider != nil {
		closers = append(closers, generationProvider.Close)
	}

	retrievalService = services.NewRetrievalService(vectorStore, embeddingProvider, settings.Retrieval)
	assistantService = services.NewAssistantService(
		retrievalService, vectorStore, embeddingProvider,
		generationProvider, conversationDB, settings.Retrieval,
	)
	return nil
}

// requireGeneration guards commands that call the language model.
func requireGeneration() error {
	if !settings.LLM.IsConfigured() {
		return errors.New("no generation backend configured, run 'keeper config set-llm' or edit " + configPathHint())
	}
	return nil
}

func configPathHint() string {
	store, err := configfile.NewConfigStore("")
	if err != nil {
		return "~/.keeper/config.toml"
	}
	return store.Path()
}

func closeServices() {
	for _, c := range closers {
		if err := c(); err != nil {
			logger.Warn("Close: %v", err)
		}
	}
	closers = nil
}
