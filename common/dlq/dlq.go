// Package dlq records consumed messages that could not be applied, so operators can
// inspect and replay them. Messages are acknowledged on the broker either way.
package dlq

import (
	"context"
	"sync"
	"time"
)

// Failure classes.
const (
	ClassDecode      = "decode"
	ClassReferential = "referential"
	ClassSecurity    = "security"
	ClassScoring     = "scoring"
	ClassProcessing  = "processing"
)

// Entry is one dead-lettered message.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Class     string    `json:"class"`
	Channel   string    `json:"channel"`
	Key       string    `json:"key,omitempty"`
	Partition int       `json:"partition"`
	Offset    int64     `json:"offset"`
	EventID   string    `json:"event_id,omitempty"`
	Error     string    `json:"error"`
	Payload   []byte    `json:"payload"`
}

// Sink accepts dead-lettered messages.
type Sink interface {
	Write(ctx context.Context, entry Entry) error
}

// Store is a Sink that can also be inspected.
type Store interface {
	Sink
	List(ctx context.Context, limit int) ([]Entry, error)
	Purge(ctx context.Context) error
	Stats(ctx context.Context) map[string]interface{}
}

// Nop discards entries.
type Nop struct{}

func (Nop) Write(context.Context, Entry) error { return nil }
func (Nop) List(context.Context, int) ([]Entry, error) { return nil, nil }
func (Nop) Purge(context.Context) error { return nil }
func (Nop) Stats(context.Context) map[string]interface{} { return map[string]interface{}{"enabled": false} }

// Memory keeps entries in process.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Write appends entry.
func (m *Memory) Write(_ context.Context, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	m.entries = append(m.entries, entry)
	return nil
}

// List returns up to limit entries, oldest first. limit <= 0 returns all.
func (m *Memory) List(_ context.Context, limit int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Entry, n)
	copy(out, m.entries[:n])
	return out, nil
}

// Entries returns every entry.
func (m *Memory) Entries() []Entry {
	out, _ := m.List(context.Background(), 0)
	return out
}

// Purge drops every entry.
func (m *Memory) Purge(context.Context) error {
	m.mu.Lock()
	m.entries = nil
	m.mu.Unlock()
	return nil
}

// Stats reports the entry count.
func (m *Memory) Stats(context.Context) map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]interface{}{
		"enabled": true,
		"backend": "memory",
		"entries": len(m.entries),
	}
}
