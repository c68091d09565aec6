package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wientjes/nanoclaw/internal/logutil"
	"github.com/wientjes/nanoclaw/reminders"
	"github.com/wientjes/nanoclaw/telegram"
	"github.com/wientjes/nanoclaw/turn"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the long-poll Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			strategy := strings.TrimSpace(flagOrViperString(cmd, "strategy", "strategy"))
			var replier turn.Replier
			if strategy == "queue" {
				// Queued messages are answered later by `process`; the
				// loop never invokes a replier in this mode.
				replier = turn.NewRules()
			} else {
				replier, err = replierFromViper(strategy, logger)
				if err != nil {
					return err
				}
			}

			api, err := telegramFromViper()
			if err != nil {
				return err
			}

			rt := telegram.NewRuntime(
				api,
				turn.NewPipeline(replier, logger),
				sessionFromViper(),
				historyFromViper(),
				queueFromViper(),
				telegram.RuntimeConfig{
					ModelName:     viper.GetString("anthropic.model"),
					MaxConcurrent: viper.GetInt("telegram.max_concurrency"),
					PollTimeout:   viper.GetDuration("telegram.poll_timeout"),
					QueueInbound:  strategy == "queue",
					Reminders:     reminders.FromViper(),
				},
				logger,
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger.Info("serve_start", "strategy", strategyName(strategy))
			if err := rt.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			logger.Info("serve_stopped")
			return nil
		},
	}

	cmd.Flags().String("strategy", "", "Reply strategy: model|rule|queue.")

	return cmd
}

func strategyName(s string) string {
	if s == "" {
		return "model"
	}
	return s
}
