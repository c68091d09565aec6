package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wientjes/nanoclaw/history"
	"github.com/wientjes/nanoclaw/internal/statepaths"
	"github.com/wientjes/nanoclaw/providers/anthropic"
	"github.com/wientjes/nanoclaw/queue"
	"github.com/wientjes/nanoclaw/search"
	"github.com/wientjes/nanoclaw/session"
	"github.com/wientjes/nanoclaw/telegram"
	"github.com/wientjes/nanoclaw/turn"
)

// flagOrViperString prefers an explicitly set command flag over the viper
// key; two subcommands can then carry the same flag name safely.
func flagOrViperString(cmd *cobra.Command, flagName, viperKey string) string {
	if f := cmd.Flags().Lookup(flagName); f != nil && f.Changed {
		return f.Value.String()
	}
	return viper.GetString(viperKey)
}

// configSecret reads a viper key with a fallback to the bare environment
// variable name existing deployments already export.
func configSecret(viperKey, envName string) string {
	if v := strings.TrimSpace(viper.GetString(viperKey)); v != "" {
		return v
	}
	return strings.TrimSpace(os.Getenv(envName))
}

func telegramToken() (string, error) {
	token := configSecret("telegram.token", "TELEGRAM_BOT_TOKEN")
	if token == "" {
		return "", fmt.Errorf("missing telegram token (set telegram.token, NANOCLAW_TELEGRAM_TOKEN, or TELEGRAM_BOT_TOKEN)")
	}
	return token, nil
}

func telegramFromViper() (*telegram.API, error) {
	token, err := telegramToken()
	if err != nil {
		return nil, err
	}
	return telegram.NewAPI(nil, viper.GetString("telegram.endpoint"), token), nil
}

func historyFromViper() *history.Store {
	return history.NewStore(statepaths.HistoryPath(), viper.GetInt("history.max_exchanges"))
}

func sessionFromViper() *session.Store {
	return session.NewStore(statepaths.SessionPath())
}

func queueFromViper() *queue.Queue {
	return queue.New(statepaths.InboxDir(), statepaths.ProcessedDir())
}

// replierFromViper builds the reply strategy for a serve or process run. The
// queue strategy carries no replier of its own; its turns are generated later
// by `process`, so it falls back to the model replier there.
func replierFromViper(strategy string, log *slog.Logger) (turn.Replier, error) {
	switch strategy {
	case "rule":
		return turn.NewRules(), nil
	case "model", "queue", "":
		apiKey := configSecret("anthropic.api_key", "ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("missing anthropic api key (set anthropic.api_key, NANOCLAW_ANTHROPIC_API_KEY, or ANTHROPIC_API_KEY)")
		}
		client := anthropic.New(viper.GetString("anthropic.endpoint"), apiKey)
		searcher := search.NewClient(configSecret("brave.api_key", "BRAVE_API_KEY"))
		if n := viper.GetInt("brave.count"); n > 0 {
			searcher.Count = n
		}
		gen := turn.NewGenerator(client, historyFromViper(), searcher, turn.GeneratorConfig{
			Model:      viper.GetString("anthropic.model"),
			MaxTokens:  viper.GetInt("anthropic.max_tokens"),
			PersonaDir: statepaths.PersonaDir(),
			Window:     viper.GetInt("history.window"),
		}, log)
		return gen, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (want model, rule, or queue)", strategy)
	}
}
