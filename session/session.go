// Package session persists the owner-chat record: the single counterpart
// this bot talks to. It is written once on the first inbound event and read
// back on restart.
package session

import (
	"time"

	"github.com/wientjes/nanoclaw/internal/fsstore"
)

type Record struct {
	ChatID    int64     `json:"chat_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the saved record and whether one exists. A missing or
// unreadable file means no session yet.
func (s *Store) Load() (Record, bool) {
	var rec Record
	found, err := fsstore.ReadJSON(s.path, &rec)
	if err != nil || !found || rec.ChatID == 0 {
		return Record{}, false
	}
	return rec, true
}

func (s *Store) Save(chatID int64) error {
	return fsstore.WriteJSONAtomic(s.path, Record{
		ChatID:    chatID,
		UpdatedAt: time.Now().UTC(),
	}, fsstore.FileOptions{})
}
