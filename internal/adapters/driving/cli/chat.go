package cli

import (
	"bufio"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Chat, answering from the knowledge base when asked about files",
	Long: `Sends a message to the chat router. Messages that mention the knowledge
base, a file or a document are answered from the knowledge base; anything else
goes straight to the LLM.

Without a message, starts an interactive session. Type "exit" or press
Ctrl-D to leave.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	if len(args) > 0 {
		return chatOnce(cmd, strings.Join(args, " "))
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	cmd.Print("> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
		case "exit", "quit":
			return nil
		default:
			if err := chatOnce(cmd, line); err != nil {
				cmd.PrintErrf("Error: %v\n", err)
			}
			cmd.Println()
		}
		cmd.Print("> ")
	}
	cmd.Println()
	return scanner.Err()
}

func chatOnce(cmd *cobra.Command, message string) error {
	reply, err := chatService.Chat(cmd.Context(), message)
	if err != nil {
		return userError(err)
	}

	cmd.Println(reply.Response)
	if reply.Route == domain.ChatRouteKnowledgeBase && reply.Answer != nil {
		printSources(cmd, reply.Answer.Sources)
	}
	return nil
}
