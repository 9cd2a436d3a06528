package dlq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lendline/lendline-stack/common/logging"
)

// FileQueue writes dead-lettered messages to disk, one JSON file per entry.
type FileQueue struct {
	basePath string
	logger   *slog.Logger
	mu       sync.Mutex
	written  uint64
}

// NewFileQueue creates a DLQ that writes to the specified directory.
func NewFileQueue(basePath string, logger *slog.Logger) (*FileQueue, error) {
	if basePath == "" {
		return nil, fmt.Errorf("dlq base path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create dlq directory: %w", err)
	}

	return &FileQueue{
		basePath: basePath,
		logger:   logger.With("component", "dlq"),
	}, nil
}

// Write records a failed message to the dead-letter queue.
func (q *FileQueue) Write(_ context.Context, entry Entry) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	// Zero-padded names keep lexical order equal to write order
	filename := fmt.Sprintf("failed_%020d_%06d_%s.json", entry.Timestamp.UnixNano(), q.written, entry.Class)
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal dlq entry: %w", err)
	}

	if err := os.WriteFile(filepath.Join(q.basePath, filename), data, 0644); err != nil {
		return fmt.Errorf("write dlq entry: %w", err)
	}

	q.written++
	q.logger.Info("wrote dead letter", "file", filename, "class", entry.Class, logging.Channel(entry.Channel))
	return nil
}

// List returns failed messages in write order.
func (q *FileQueue) List(_ context.Context, limit int) ([]Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	names, err := q.files()
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, name := range names {
		if limit > 0 && len(entries) >= limit {
			break
		}

		data, err := os.ReadFile(filepath.Join(q.basePath, name))
		if err != nil {
			q.logger.Error("failed to read dlq file", "file", name, logging.Error(err))
			continue
		}

		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			q.logger.Error("failed to parse dlq file", "file", name, logging.Error(err))
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// Purge removes all entries from the queue.
func (q *FileQueue) Purge(_ context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	names, err := q.files()
	if err != nil {
		return err
	}

	deleted := 0
	for _, name := range names {
		if err := os.Remove(filepath.Join(q.basePath, name)); err != nil {
			q.logger.Error("failed to delete dlq file", "file", name, logging.Error(err))
			continue
		}
		deleted++
	}

	q.logger.Info("purged dead letters", "count", deleted)
	return nil
}

// Stats returns DLQ metrics.
func (q *FileQueue) Stats(_ context.Context) map[string]interface{} {
	q.mu.Lock()
	defer q.mu.Unlock()

	names, err := q.files()
	if err != nil {
		return map[string]interface{}{
			"enabled":       true,
			"backend":       "file",
			"written":       q.written,
			"pending_files": 0,
			"error":         err.Error(),
		}
	}

	return map[string]interface{}{
		"enabled":       true,
		"backend":       "file",
		"written":       q.written,
		"pending_files": len(names),
		"base_path":     q.basePath,
	}
}

func (q *FileQueue) files() ([]string, error) {
	dirEntries, err := os.ReadDir(q.basePath)
	if err != nil {
		return nil, fmt.Errorf("read dlq directory: %w", err)
	}

	var names []string
	for _, e := range dirEntries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "failed_") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
