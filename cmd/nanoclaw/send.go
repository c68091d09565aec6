package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <text>",
		Short: "Send a one-shot message to the saved owner chat",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return fmt.Errorf("empty message")
			}

			rec, ok := sessionFromViper().Load()
			if !ok {
				return fmt.Errorf("no owner chat saved yet; message the bot or /start it first")
			}

			api, err := telegramFromViper()
			if err != nil {
				return err
			}
			if err := api.SendChunked(cmd.Context(), rec.ChatID, text); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "sent to chat %d\n", rec.ChatID)
			return nil
		},
	}
}
