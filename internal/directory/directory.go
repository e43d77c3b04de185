// Package directory provides read-only access to the authorized worker
// roster. The roster is managed externally; the engine only looks workers up.
package directory

import (
	"errors"
	"sort"

	"github.com/warrantd/warrant/internal/model"
)

// ErrWorkerNotFound is returned by Lookup when the worker ID is not in the
// roster.
var ErrWorkerNotFound = errors.New("worker not found")

// Directory is the roster lookup the engine consumes.
type Directory interface {
	Lookup(workerID string) (*model.Worker, error)
	Count() int
}

// StaticDirectory is an in-memory roster, used in tests and wherever the
// roster is assembled programmatically.
type StaticDirectory struct {
	workers map[string]model.Worker
}

// NewStatic builds a StaticDirectory from a slice of workers.
func NewStatic(workers []model.Worker) *StaticDirectory {
	m := make(map[string]model.Worker, len(workers))
	for _, w := range workers {
		m[w.ID] = w
	}
	return &StaticDirectory{workers: m}
}

// Lookup returns the worker or ErrWorkerNotFound.
func (d *StaticDirectory) Lookup(workerID string) (*model.Worker, error) {
	w, ok := d.workers[workerID]
	if !ok {
		return nil, ErrWorkerNotFound
	}
	return &w, nil
}

// Count returns the number of roster entries.
func (d *StaticDirectory) Count() int {
	return len(d.workers)
}

// Workers returns every roster entry ordered by worker ID.
func (d *StaticDirectory) Workers() []model.Worker {
	out := make([]model.Worker, 0, len(d.workers))
	for _, w := range d.workers {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
