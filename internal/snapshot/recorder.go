// Package snapshot records the latest operation result to disk so external
// tooling can pick it up without talking to the process.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Recorder receives the result of every engine operation. Recording is best
// effort from the engine's point of view: failures are logged, never fatal.
type Recorder interface {
	Record(action string, result any) error
}

// entry is the on-disk layout of latest_result.json.
type entry struct {
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data"`
}

// FileRecorder writes each result to <dataDir>/latest_result.json,
// overwriting the previous one atomically.
type FileRecorder struct {
	path string
	mu   sync.Mutex
}

// NewFileRecorder creates the data dir if needed and returns a recorder.
func NewFileRecorder(dataDir string) (*FileRecorder, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileRecorder{path: filepath.Join(dataDir, "latest_result.json")}, nil
}

// Record writes the result envelope for an action.
func (r *FileRecorder) Record(action string, result any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.MarshalIndent(entry{
		Action:    action,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      result,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".result-*.json")
	if err != nil {
		return fmt.Errorf("create temp result: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp result: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp result: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace result: %w", err)
	}
	return nil
}

// Discard is a Recorder that drops everything. Used in tests and by callers
// that don't want result files.
type Discard struct{}

// Record implements Recorder.
func (Discard) Record(string, any) error { return nil }
