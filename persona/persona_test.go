package persona

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestLoadMissingDocsContributeNothing(t *testing.T) {
	t.Parallel()

	b := Load(t.TempDir())
	if !b.Empty() {
		t.Fatalf("Load() on empty dir = %+v", b)
	}
	if got := b.Render(); got != "" {
		t.Fatalf("Render() = %q, want empty", got)
	}
}

func TestRenderPriorityOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDoc(t, dir, IdentityFilename, "# Identity\n")
	writeDoc(t, dir, SoulFilename, "# Soul\n")
	writeDoc(t, dir, MemoryFilename, "- likes sunrise\n")
	writeDoc(t, dir, UserFilename, "# User\n")

	got := Load(dir).Render()
	order := []string{"# Identity", "# Soul", "Key facts:", "- likes sunrise", "# User"}
	last := -1
	for _, want := range order {
		idx := strings.Index(got, want)
		if idx < 0 {
			t.Fatalf("Render() missing %q in %q", want, got)
		}
		if idx < last {
			t.Fatalf("Render() has %q out of order in %q", want, got)
		}
		last = idx
	}
}

func TestLoadRereadsOnEveryCall(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDoc(t, dir, MemoryFilename, "old fact")
	if b := Load(dir); b.Memory != "old fact" {
		t.Fatalf("Memory = %q", b.Memory)
	}
	writeDoc(t, dir, MemoryFilename, "new fact")
	if b := Load(dir); b.Memory != "new fact" {
		t.Fatalf("Memory after edit = %q", b.Memory)
	}
}

func TestLoadPartialBundle(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDoc(t, dir, SoulFilename, "soul only")
	got := Load(dir).Render()
	if got != "soul only\n\n" {
		t.Fatalf("Render() = %q", got)
	}
}
