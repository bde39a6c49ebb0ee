package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Compile-time interface check.
var _ Recorder = (*FileRecorder)(nil)

// fileRecord is the JSON-lines representation of an [Entry].
type fileRecord struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Transcript string    `json:"transcript"`
	Intent     string    `json:"intent,omitempty"`
	Confidence float64   `json:"confidence"`
	State      string    `json:"state"`
	Action     string    `json:"action"`
	CreatedAt  time.Time `json:"created_at"`
}

// FileRecorder persists utterance entries as JSON lines in a local file. It
// is the lightweight alternative to [PostgresStore] for single-node
// deployments without a database. Thread-safe for concurrent use.
type FileRecorder struct {
	mu   sync.Mutex
	path string
}

// NewFileRecorder creates a FileRecorder that appends to the given path.
// The file is created on the first write if it does not exist.
func NewFileRecorder(path string) *FileRecorder {
	return &FileRecorder{path: path}
}

// Record appends a single entry to the file.
func (fr *FileRecorder) Record(_ context.Context, e Entry) error {
	fr.mu.Lock()
	defer fr.mu.Unlock()

	e = fill(e)

	data, err := json.Marshal(fileRecord(e))
	if err != nil {
		return fmt.Errorf("audit: marshal: %w", err)
	}
	data = append(data, '\n')

	f, err := os.OpenFile(fr.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("audit: open file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("audit: write: %w", err)
	}
	return nil
}
