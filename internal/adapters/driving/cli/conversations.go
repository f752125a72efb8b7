package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var conversationsCmd = &cobra.Command{
	Use:   "conversations",
	Short: "Manage stored conversations",
}

var conversationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations",
	RunE:  runConversationsList,
}

var conversationsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a conversation's messages",
	Args:  cobra.ExactArgs(1),
	RunE:  runConversationsShow,
}

var conversationsDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a conversation and its messages",
	Args:  cobra.ExactArgs(1),
	RunE:  runConversationsDelete,
}

func init() {
	conversationsCmd.AddCommand(conversationsListCmd)
	conversationsCmd.AddCommand(conversationsShowCmd)
	conversationsCmd.AddCommand(conversationsDeleteCmd)
	rootCmd.AddCommand(conversationsCmd)
}

func runConversationsList(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	conversations, err := conversationDB.ListConversations(cmd.Context())
	if err != nil {
		return fmt.Errorf("list conversations: %w", err)
	}
	if len(conversations) == 0 {
		cmd.Println("No conversations.")
		return nil
	}
	for _, conv := range conversations {
		cmd.Printf("%s  %s  %s\n", conv.ID, conv.UpdatedAt.Format("2006-01-02 15:04"), conv.Title)
	}
	return nil
}

func runConversationsShow(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	messages, err := conversationDB.Messages(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("load conversation: %w", err)
	}
	for _, msg := range messages {
		cmd.Printf("[%s] %s\n", msg.Role, msg.Content)
		printSources(cmd, msg.Sources)
		cmd.Println()
	}
	return nil
}

func runConversationsDelete(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if err := conversationDB.DeleteConversation(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	cmd.Printf("Deleted %s\n", args[0])
	return nil
}
