package main

import (
	"time"

	"github.com/spf13/viper"
)

func initViperDefaults() {
	viper.SetDefault("file_state_dir", "~/.nanoclaw")

	viper.SetDefault("anthropic.endpoint", "https://api.anthropic.com")
	viper.SetDefault("anthropic.api_key", "")
	viper.SetDefault("anthropic.model", "claude-opus-4-20250514")
	viper.SetDefault("anthropic.max_tokens", 2048)

	viper.SetDefault("brave.api_key", "")
	viper.SetDefault("brave.count", 5)

	viper.SetDefault("telegram.endpoint", "https://api.telegram.org")
	viper.SetDefault("telegram.token", "")
	viper.SetDefault("telegram.poll_timeout", 30*time.Second)
	viper.SetDefault("telegram.max_concurrency", 4)

	viper.SetDefault("history.max_exchanges", 20)
	viper.SetDefault("history.window", 10)

	viper.SetDefault("persona.dir", "")

	viper.SetDefault("reminders.enabled", true)
	viper.SetDefault("reminders.wind_down", "0 18 * * *")
	viper.SetDefault("reminders.bedtime", "0 19 * * *")
	viper.SetDefault("reminders.lights_out", "0 21 * * *")

	viper.SetDefault("strategy", "model")
}
