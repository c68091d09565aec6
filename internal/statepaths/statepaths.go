// Package statepaths resolves the on-disk layout of the bot's durable state
// from configuration. Everything lives under a single state directory
// (file_state_dir, default ~/.nanoclaw).
package statepaths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	HistoryFilename = "conversation_history.json"
	SessionFilename = "session.json"

	inboxDirName     = "inbox"
	processedDirName = "processed"
)

func StateDir() string {
	return resolveStateDir(viper.GetString("file_state_dir"))
}

func HistoryPath() string {
	return filepath.Join(StateDir(), HistoryFilename)
}

func SessionPath() string {
	return filepath.Join(StateDir(), SessionFilename)
}

// PersonaDir holds IDENTITY.md, SOUL.md, MEMORY.md and USER.md. It defaults
// to the state dir itself so the documents sit next to the bot's state.
func PersonaDir() string {
	dir := strings.TrimSpace(viper.GetString("persona.dir"))
	if dir == "" {
		return StateDir()
	}
	return expandHomePath(dir)
}

func InboxDir() string {
	return filepath.Join(StateDir(), inboxDirName)
}

func ProcessedDir() string {
	return filepath.Join(StateDir(), processedDirName)
}

func resolveStateDir(configured string) string {
	configured = strings.TrimSpace(configured)
	if configured != "" {
		return expandHomePath(configured)
	}
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return ".nanoclaw"
	}
	return filepath.Join(home, ".nanoclaw")
}

func expandHomePath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil && strings.TrimSpace(home) != "" {
			if path == "~" {
				return home
			}
			return filepath.Join(home, path[2:])
		}
	}
	return filepath.Clean(path)
}
