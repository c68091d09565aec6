package history

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "conversation_history.json"), DefaultCap)
}

func TestAppendAndLoadOrdering(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	now := time.Now()
	for i := 0; i < 3; i++ {
		e := NewExchange(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i), now.Add(time.Duration(i)*time.Second))
		if err := s.Append(e); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	got := s.Load(DefaultWindow)
	if len(got) != 3 {
		t.Fatalf("Load() len = %d", len(got))
	}
	if got[2].User != "q2" || got[2].Assistant != "a2" {
		t.Fatalf("newest exchange = %+v", got[2])
	}
	if got[0].User != "q0" {
		t.Fatalf("oldest exchange = %+v", got[0])
	}
}

func TestCapEvictsExactlyOne(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	now := time.Now()
	for i := 0; i < DefaultCap; i++ {
		if err := s.Append(NewExchange(fmt.Sprintf("q%d", i), "a", now)); err != nil {
			t.Fatal(err)
		}
	}
	if s.Len() != DefaultCap {
		t.Fatalf("Len() = %d, want %d", s.Len(), DefaultCap)
	}

	// The 21st append evicts the first original entry and nothing else.
	if err := s.Append(NewExchange("q20", "a", now)); err != nil {
		t.Fatal(err)
	}
	got := s.Load(0)
	if len(got) != DefaultCap {
		t.Fatalf("len after overflow = %d, want %d", len(got), DefaultCap)
	}
	if got[0].User != "q1" {
		t.Fatalf("oldest after eviction = %q, want q1", got[0].User)
	}
	if got[len(got)-1].User != "q20" {
		t.Fatalf("newest after eviction = %q, want q20", got[len(got)-1].User)
	}
}

func TestLoadWindowSmallerThanHistory(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	for i := 0; i < 15; i++ {
		if err := s.Append(NewExchange(fmt.Sprintf("q%d", i), "a", time.Now())); err != nil {
			t.Fatal(err)
		}
	}
	got := s.Load(DefaultWindow)
	if len(got) != DefaultWindow {
		t.Fatalf("Load(%d) len = %d", DefaultWindow, len(got))
	}
	if got[0].User != "q5" {
		t.Fatalf("window start = %q, want q5", got[0].User)
	}
}

func TestClearIsIdempotent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	if err := s.Append(NewExchange("q", "a", time.Now())); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := s.Clear(); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		if got := s.Load(5); len(got) != 0 {
			t.Fatalf("Load() after Clear() = %v", got)
		}
	}
}

func TestRoundTripAcrossRestart(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "conversation_history.json")
	e := NewExchange("remember me", "will do", time.Now())
	if err := NewStore(path, DefaultCap).Append(e); err != nil {
		t.Fatal(err)
	}

	reopened := NewStore(path, DefaultCap)
	got := reopened.Load(1)
	if len(got) != 1 || got[0] != e {
		t.Fatalf("Load() after restart = %+v, want %+v", got, e)
	}
}

func TestCorruptFileReadsAsEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "conversation_history.json")
	if err := os.WriteFile(path, []byte("{{{"), 0o600); err != nil {
		t.Fatal(err)
	}
	s := NewStore(path, DefaultCap)
	if got := s.Load(10); len(got) != 0 {
		t.Fatalf("Load() on corrupt file = %v", got)
	}

	// Appending recovers the store.
	if err := s.Append(NewExchange("q", "a", time.Now())); err != nil {
		t.Fatalf("Append() after corruption error = %v", err)
	}
	if got := s.Load(10); len(got) != 1 {
		t.Fatalf("Load() after recovery = %v", got)
	}
}
