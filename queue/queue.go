// Package queue implements the inbox/processed file queue: one JSON document
// per inbound message, named by epoch milliseconds so directory order is
// arrival order. Ack moves an item to processed/ with the response attached;
// items that fail stay in the inbox for a later retry.
package queue

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/wientjes/nanoclaw/internal/fsstore"
)

type Item struct {
	ChatID      int64  `json:"chatId"`
	Text        string `json:"text"`
	Timestamp   int64  `json:"timestamp"`
	Username    string `json:"username,omitempty"`
	FirstName   string `json:"firstName,omitempty"`
	MessageID   int64  `json:"messageId,omitempty"`
	Response    string `json:"response,omitempty"`
	ProcessedAt int64  `json:"processedAt,omitempty"`

	// filename links a dequeued item back to its inbox file for Ack.
	filename string
}

type Queue struct {
	inboxDir     string
	processedDir string
}

func New(inboxDir, processedDir string) *Queue {
	return &Queue{inboxDir: inboxDir, processedDir: processedDir}
}

// Enqueue writes one item into the inbox.
func (q *Queue) Enqueue(item Item) error {
	if item.Timestamp == 0 {
		item.Timestamp = time.Now().UnixMilli()
	}
	name := freeName(q.inboxDir, item.MessageID)
	return fsstore.WriteJSONAtomic(filepath.Join(q.inboxDir, name), item, fsstore.FileOptions{})
}

// freeName picks an unused filename ordered by arrival time. Names come from
// the arrival clock rather than the item's own timestamp: message dates can
// have one-second granularity, and two messages from the same second must
// not share a name.
func freeName(dir string, messageID int64) string {
	ms := time.Now().UnixMilli()
	for {
		name := fmt.Sprintf("%d-%d.json", ms, messageID)
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return name
		}
		ms++
	}
}

// Dequeue returns the oldest pending item, or ok=false when the inbox is
// empty. The item stays in the inbox until Ack.
func (q *Queue) Dequeue() (Item, bool, error) {
	names, err := q.pendingNames()
	if err != nil || len(names) == 0 {
		return Item{}, false, err
	}
	return q.read(names[0])
}

// Pending returns every queued item in arrival order.
func (q *Queue) Pending() ([]Item, error) {
	names, err := q.pendingNames()
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(names))
	for _, name := range names {
		item, ok, err := q.read(name)
		if err != nil {
			return nil, err
		}
		if ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// Ack archives the item with its response into processed/ and removes it
// from the inbox.
func (q *Queue) Ack(item Item, response string) error {
	if item.filename == "" {
		return fmt.Errorf("queue ack: item was not dequeued")
	}
	item.Response = response
	item.ProcessedAt = time.Now().UnixMilli()
	if err := fsstore.WriteJSONAtomic(filepath.Join(q.processedDir, item.filename), item, fsstore.FileOptions{}); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(q.inboxDir, item.filename)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("queue ack: remove inbox item: %w", err)
	}
	return nil
}

// Archive writes a completed turn straight into processed/ without going
// through the inbox. The serve loop uses it to keep the processed directory
// as a turn log.
func (q *Queue) Archive(item Item, response string) error {
	if item.Timestamp == 0 {
		item.Timestamp = time.Now().UnixMilli()
	}
	item.Response = response
	item.ProcessedAt = time.Now().UnixMilli()
	name := freeName(q.processedDir, item.MessageID)
	return fsstore.WriteJSONAtomic(filepath.Join(q.processedDir, name), item, fsstore.FileOptions{})
}

func (q *Queue) pendingNames() ([]string, error) {
	entries, err := os.ReadDir(q.inboxDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("queue read inbox: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (q *Queue) read(name string) (Item, bool, error) {
	var item Item
	found, err := fsstore.ReadJSON(filepath.Join(q.inboxDir, name), &item)
	if err != nil {
		return Item{}, false, err
	}
	if !found {
		return Item{}, false, nil
	}
	item.filename = name
	return item, true, nil
}
