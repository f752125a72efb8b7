package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show knowledge base statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	stats, err := assistantService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}

	cmd.Printf("Documents:      %d\n", stats.DocumentCount)
	mode := "active"
	if !stats.VectorBackendActive {
		mode = "inactive (lexical fallback)"
	}
	cmd.Printf("Vector backend: %s\n", mode)
	return nil
}
