// Package history keeps the bounded conversation log: one Exchange per
// completed turn, persisted as a single JSON document and rewritten
// atomically on every append.
package history

import (
	"time"

	"github.com/wientjes/nanoclaw/internal/fsstore"
)

// DefaultCap bounds the stored history; DefaultWindow is how many exchanges
// seed a new model request.
const (
	DefaultCap    = 20
	DefaultWindow = 10
)

// Exchange is one recorded user-message/assistant-reply pair. Immutable once
// written.
type Exchange struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
	Timestamp int64  `json:"timestamp"`
}

func NewExchange(user, assistant string, at time.Time) Exchange {
	return Exchange{
		User:      user,
		Assistant: assistant,
		Timestamp: at.UnixMilli(),
	}
}

type Store struct {
	path string
	cap  int
}

func NewStore(path string, capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCap
	}
	return &Store{path: path, cap: capacity}
}

// Load returns the most recent limit exchanges in chronological order. A
// missing or unparseable file yields an empty history, not an error.
func (s *Store) Load(limit int) []Exchange {
	all := s.readAll()
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all
}

// Append adds one exchange, evicts oldest entries until the cap holds, and
// persists the whole document.
func (s *Store) Append(e Exchange) error {
	all := s.readAll()
	all = append(all, e)
	for len(all) > s.cap {
		all = all[1:]
	}
	return s.write(all)
}

// Clear resets the stored history to empty and persists.
func (s *Store) Clear() error {
	return s.write([]Exchange{})
}

// Len reports the full stored history length.
func (s *Store) Len() int {
	return len(s.readAll())
}

func (s *Store) readAll() []Exchange {
	var all []Exchange
	found, err := fsstore.ReadJSON(s.path, &all)
	if err != nil || !found {
		// Corrupt state reads as empty; the next append rewrites the file.
		return nil
	}
	return all
}

func (s *Store) write(all []Exchange) error {
	return fsstore.WriteJSONAtomic(s.path, all, fsstore.FileOptions{})
}
