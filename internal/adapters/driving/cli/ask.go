package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keeper-labs/keeper-cli/internal/core/domain"
	"github.com/keeper-labs/keeper-cli/internal/core/ports/driving"
)

var (
	askStream       bool
	askConversation string
	askNoKB         bool
	askJSON         bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question grounded on your knowledge base",
	Long: `Retrieves relevant documents from the knowledge base and generates
an answer constrained to them, with cited sources. Use --no-kb to answer
from general knowledge instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askStream, "stream", false, "stream the answer as it is generated")
	askCmd.Flags().StringVarP(&askConversation, "conversation", "c", "", "continue an existing conversation")
	askCmd.Flags().BoolVar(&askNoKB, "no-kb", false, "answer without consulting the knowledge base")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if err := requireGeneration(); err != nil {
		return err
	}

	req := driving.AskRequest{
		Question:         args[0],
		ConversationID:   askConversation,
		UseKnowledgeBase: !askNoKB,
	}

	if askStream {
		return runAskStream(cmd, req)
	}

	result, err := assistantService.Ask(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(result.Answer.Text)
	printSources(cmd, result.Answer.Sources)
	cmd.Printf("\nConversation: %s\n", result.ConversationID)
	return nil
}

func runAskStream(cmd *cobra.Command, req driving.AskRequest) error {
	events, err := assistantService.AskStream(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	var sources []domain.SourceReference
	for event := range events {
		switch event.Type {
		case domain.EventSources:
			sources = event.Sources
		case domain.EventContent:
			cmd.Print(event.Text)
		case domain.EventThinking:
			// Thinking fragments are progress, not answer text.
			if verboseFlag {
				fmt.Fprint(cmd.ErrOrStderr(), event.Text)
			}
		case domain.EventDone:
			cmd.Println()
			printSources(cmd, sources)
		}
	}
	return cmd.Context().Err()
}

func printSources(cmd *cobra.Command, sources []domain.SourceReference) {
	if len(sources) == 0 {
		return
	}
	cmd.Println("\nSources:")
	for i, src := range sources {
		cmd.Printf("  [%d] %s (%.0f%%)\n", i+1, src.Title, src.Relevance*100)
		if src.URL != "" {
			cmd.Printf("      %s\n", src.URL)
		}
	}
}
