package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/warrantd/warrant/internal/model"
)

// FileStore persists activation records as a single JSON snapshot,
// compatible with the legacy activations.json layout. The whole snapshot is
// rewritten atomically (temp file + rename) on every mutation, so a crash
// mid-write leaves the previous snapshot intact.
type FileStore struct {
	path string

	mu   sync.Mutex
	snap model.ActivationSnapshot
}

// NewFileStore loads (or initializes) the snapshot under dataDir. A missing
// or empty file is an empty store, not an error.
func NewFileStore(dataDir string) (*FileStore, error) {
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s := &FileStore{path: filepath.Join(dataDir, "activations.json")}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close is a no-op; the snapshot is persisted on every mutation.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.snap = model.ActivationSnapshot{Activations: map[string]model.ActivationRecord{}}
			return nil
		}
		return fmt.Errorf("read activation snapshot: %w", err)
	}
	if len(data) == 0 {
		s.snap = model.ActivationSnapshot{Activations: map[string]model.ActivationRecord{}}
		return nil
	}
	if err := json.Unmarshal(data, &s.snap); err != nil {
		return fmt.Errorf("parse activation snapshot: %w", err)
	}
	if s.snap.Activations == nil {
		s.snap.Activations = map[string]model.ActivationRecord{}
	}
	return nil
}

// persist writes the snapshot atomically. Callers must hold s.mu.
func (s *FileStore) persist() error {
	data, err := json.MarshalIndent(&s.snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal activation snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".activations-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Get returns the activation record for a worker.
func (s *FileStore) Get(ctx context.Context, workerID string) (*model.ActivationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.snap.Activations[workerID]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneRecord(rec)
	return &out, nil
}

// Upsert writes the record, bumps last_updated, and persists the snapshot.
func (s *FileStore) Upsert(ctx context.Context, rec *model.ActivationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.snap.Activations[rec.WorkerID]
	s.snap.Activations[rec.WorkerID] = cloneRecord(*rec)
	prevUpdated := s.snap.LastUpdated
	s.snap.LastUpdated = time.Now().UTC()

	if err := s.persist(); err != nil {
		// Roll the in-memory state back so a failed persist looks like the
		// mutation never happened.
		if prev.WorkerID == "" {
			delete(s.snap.Activations, rec.WorkerID)
		} else {
			s.snap.Activations[rec.WorkerID] = prev
		}
		s.snap.LastUpdated = prevUpdated
		return err
	}
	return nil
}

// UpdateLastVerify touches a record's last-verify timestamp and persists.
func (s *FileStore) UpdateLastVerify(ctx context.Context, workerID string, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.snap.Activations[workerID]
	if !ok {
		return ErrNotFound
	}
	prev := rec.LastVerifyTime
	prevUpdated := s.snap.LastUpdated
	rec.LastVerifyTime = t
	s.snap.Activations[workerID] = rec
	s.snap.LastUpdated = time.Now().UTC()

	if err := s.persist(); err != nil {
		rec.LastVerifyTime = prev
		s.snap.Activations[workerID] = rec
		s.snap.LastUpdated = prevUpdated
		return err
	}
	return nil
}

// MarkExpired transitions stale active records with one snapshot rewrite.
func (s *FileStore) MarkExpired(ctx context.Context, cutoff time.Time, stamp time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.snap
	next := model.ActivationSnapshot{
		Activations: make(map[string]model.ActivationRecord, len(prev.Activations)),
		LastUpdated: time.Now().UTC(),
	}

	count := 0
	for id, rec := range prev.Activations {
		out := cloneRecord(rec)
		if out.Status == model.ActivationStatusActive && out.Token.ExpireTime < cutoff.Unix() {
			out.Status = model.ActivationStatusExpired
			t := stamp
			out.ExpiredTime = &t
			count++
		}
		next.Activations[id] = out
	}

	s.snap = next
	if err := s.persist(); err != nil {
		s.snap = prev
		return 0, err
	}
	return count, nil
}

// List returns every activation record ordered by worker ID.
func (s *FileStore) List(ctx context.Context) ([]model.ActivationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]model.ActivationRecord, 0, len(s.snap.Activations))
	for _, rec := range s.snap.Activations {
		records = append(records, cloneRecord(rec))
	}
	sort.Slice(records, func(i, j int) bool { return records[i].WorkerID < records[j].WorkerID })
	return records, nil
}

// ActiveCount returns the number of records with status active.
func (s *FileStore) ActiveCount(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, rec := range s.snap.Activations {
		if rec.Status == model.ActivationStatusActive {
			count++
		}
	}
	return count, nil
}

// LastUpdated returns the time of the most recent mutation.
func (s *FileStore) LastUpdated(ctx context.Context) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.LastUpdated, nil
}

func cloneRecord(rec model.ActivationRecord) model.ActivationRecord {
	out := rec
	out.DeviceInfo = make(map[string]string, len(rec.DeviceInfo))
	for k, v := range rec.DeviceInfo {
		out.DeviceInfo[k] = v
	}
	if rec.ExpiredTime != nil {
		t := *rec.ExpiredTime
		out.ExpiredTime = &t
	}
	return out
}
