package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deindexCmd = &cobra.Command{
	Use:   "deindex [id]",
	Short: "Remove a document from the knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeindex,
}

func init() {
	rootCmd.AddCommand(deindexCmd)
}

func runDeindex(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if err := assistantService.Deindex(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("deindex failed: %w", err)
	}
	cmd.Printf("Removed %s\n", args[0])
	return nil
}
