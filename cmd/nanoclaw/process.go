package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wientjes/nanoclaw/internal/logutil"
	"github.com/wientjes/nanoclaw/turn"
)

func newProcessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Drain the inbox queue once, replying to each queued message",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			strategy := strings.TrimSpace(flagOrViperString(cmd, "strategy", "strategy"))
			replier, err := replierFromViper(strategy, logger)
			if err != nil {
				return err
			}
			pipeline := turn.NewPipeline(replier, logger)

			api, err := telegramFromViper()
			if err != nil {
				return err
			}
			q := queueFromViper()

			processed := 0
			for {
				item, ok, err := q.Dequeue()
				if err != nil {
					return err
				}
				if !ok {
					break
				}

				logger.Info("processing_queued_message", "chat_id", item.ChatID, "text_len", len(item.Text))
				reply := pipeline.Respond(cmd.Context(), item.Text)

				if err := api.SendChunked(cmd.Context(), item.ChatID, reply); err != nil {
					// Leave the item in the inbox so the next run retries it.
					return fmt.Errorf("send reply to chat %d: %w", item.ChatID, err)
				}
				if err := q.Ack(item, reply); err != nil {
					return err
				}
				processed++
			}

			logger.Info("process_done", "processed", processed)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "processed %d message(s)\n", processed)
			return nil
		},
	}

	cmd.Flags().String("strategy", "", "Reply strategy: model|rule.")

	return cmd
}
