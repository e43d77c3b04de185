package model

// Worker statuses.
const (
	WorkerStatusActive   = "active"
	WorkerStatusInactive = "inactive"
)

// Worker is one entry in the authorized roster. The roster is managed
// outside the engine; the engine only ever reads it.
type Worker struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Department string `json:"department,omitempty" yaml:"department,omitempty"`
	Status     string `json:"status" yaml:"status"`
}

// Active reports whether the worker may request authorization.
func (w *Worker) Active() bool {
	return w.Status == WorkerStatusActive
}
