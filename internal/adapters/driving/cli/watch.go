package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keeper-labs/keeper-cli/internal/core/services"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a notes directory and keep it indexed",
	Long: `Monitors a directory and automatically indexes created or modified
.txt and .md files. Removed files are deindexed. Runs until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	dir := settings.WatchDir
	if len(args) > 0 {
		dir = args[0]
	}
	if dir == "" {
		return errors.New("no directory given and watch_dir not configured")
	}

	watcher, err := services.NewWatcherService(assistantService)
	if err != nil {
		return err
	}
	defer watcher.Close()

	cmd.Printf("Watching %s (Ctrl-C to stop)\n", dir)
	if err := watcher.Watch(cmd.Context(), dir); err != nil && !errors.Is(err, cmd.Context().Err()) {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}
