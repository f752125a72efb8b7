package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	indexID    string
	indexTitle string
	indexURL   string
)

var indexCmd = &cobra.Command{
	Use:   "index [file]",
	Short: "Add a file to the knowledge base",
	Long: `Reads a file, embeds its content and stores it in the knowledge base.
Re-indexing the same id replaces the previous version.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexID, "id", "", "document id (defaults to the file path)")
	indexCmd.Flags().StringVar(&indexTitle, "title", "", "document title (defaults to the file name)")
	indexCmd.Flags().StringVar(&indexURL, "url", "", "source url to record")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	path := args[0]
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	id := indexID
	if id == "" {
		id = path
	}
	title := indexTitle
	if title == "" {
		title = filepath.Base(path)
	}

	metadata := map[string]any{"title": title}
	if indexURL != "" {
		metadata["url"] = indexURL
	}

	if err := assistantService.Index(cmd.Context(), id, string(content), metadata); err != nil {
		return fmt.Errorf("index failed: %w", err)
	}
	cmd.Printf("Indexed %s\n", id)
	return nil
}
