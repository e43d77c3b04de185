package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestFileRecorderWritesLatest(t *testing.T) {
	dir := t.TempDir()
	r, err := NewFileRecorder(dir)
	if err != nil {
		t.Fatalf("NewFileRecorder: %v", err)
	}

	if err := r.Record("request_auth", map[string]any{"success": true}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := r.Record("activate", map[string]any{"success": false}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "latest_result.json"))
	if err != nil {
		t.Fatalf("read result file: %v", err)
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		t.Fatalf("parse result file: %v", err)
	}
	if e.Action != "activate" {
		t.Errorf("Action: got %q, want %q (latest write wins)", e.Action, "activate")
	}
	if e.Timestamp == "" {
		t.Error("Timestamp missing")
	}
}

func TestDiscard(t *testing.T) {
	if err := (Discard{}).Record("anything", nil); err != nil {
		t.Fatalf("Discard.Record: %v", err)
	}
}
