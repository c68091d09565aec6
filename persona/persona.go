// Package persona assembles the system-prompt prefix from the bot's profile
// documents. The documents are plain markdown files edited by hand; they are
// re-read on every turn so edits apply without a restart.
package persona

import (
	"path/filepath"
	"strings"

	"github.com/wientjes/nanoclaw/internal/fsstore"
)

const (
	IdentityFilename = "IDENTITY.md"
	SoulFilename     = "SOUL.md"
	MemoryFilename   = "MEMORY.md"
	UserFilename     = "USER.md"
)

type Bundle struct {
	Identity string
	Soul     string
	Memory   string
	User     string
}

// Load reads the profile documents under dir. A missing document contributes
// nothing; Load never fails on absent files.
func Load(dir string) Bundle {
	return Bundle{
		Identity: readDoc(dir, IdentityFilename),
		Soul:     readDoc(dir, SoulFilename),
		Memory:   readDoc(dir, MemoryFilename),
		User:     readDoc(dir, UserFilename),
	}
}

// Render concatenates the present documents in priority order, each followed
// by a blank line. Memory facts get a short heading so the model reads them
// as facts rather than prose.
func (b Bundle) Render() string {
	var sb strings.Builder
	if b.Identity != "" {
		sb.WriteString(b.Identity)
		sb.WriteString("\n\n")
	}
	if b.Soul != "" {
		sb.WriteString(b.Soul)
		sb.WriteString("\n\n")
	}
	if b.Memory != "" {
		sb.WriteString("Key facts:\n")
		sb.WriteString(b.Memory)
		sb.WriteString("\n\n")
	}
	if b.User != "" {
		sb.WriteString(b.User)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func (b Bundle) Empty() bool {
	return b.Identity == "" && b.Soul == "" && b.Memory == "" && b.User == ""
}

func readDoc(dir, name string) string {
	content, _, err := fsstore.ReadText(filepath.Join(dir, name))
	if err != nil {
		// Unreadable documents are treated like absent ones.
		return ""
	}
	return strings.TrimRight(content, "\n")
}
