package cli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samarth126/SmartShelf/internal/intake"
	"github.com/samarth126/SmartShelf/internal/models"
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send messages to the SmartShelf assistant",
	Long: `Send a message to the assistant and print its reply.

Without arguments, chat reads one message per line from stdin until EOF.`,
	RunE: runChat,
}

var uploadCmd = &cobra.Command{
	Use:   "upload <image>",
	Short: "Upload a receipt photo",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpload,
}

var uploadCaption string

func init() {
	uploadCmd.Flags().StringVar(&uploadCaption, "caption", "", "optional text sent with the photo")
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(uploadCmd)
}

func newConversation(cmd *cobra.Command) (*intake.Conversation, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}

	return intake.NewConversation(client, intake.WithLogger(newLogger(cmd))), nil
}

func runChat(cmd *cobra.Command, args []string) error {
	conversation, err := newConversation(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if len(args) > 0 {
		sub, err := conversation.SubmitText(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(out, sub.Wait().Text)
		return nil
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		sub, err := conversation.SubmitText(cmd.Context(), line)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, sub.Wait().Text)
	}

	return scanner.Err()
}

func runUpload(cmd *cobra.Command, args []string) error {
	upload, err := readImage(args[0])
	if err != nil {
		return err
	}

	conversation, err := newConversation(cmd)
	if err != nil {
		return err
	}

	sub, err := conversation.SubmitImage(cmd.Context(), upload, uploadCaption)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), sub.Wait().Text)
	return nil
}

func readImage(path string) (models.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Upload{}, fmt.Errorf("failed to read image: %w", err)
	}

	return models.Upload{Filename: filepath.Base(path), Data: data}, nil
}
