// Package store persists activation records. Two drivers implement the same
// contract: a SQLite database (the default) and a JSON snapshot file matching
// the legacy activations.json layout. Every mutating call is durable before
// it returns; a reported success is never lost to a crash.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/warrantd/warrant/internal/model"
)

// ErrNotFound is returned when no activation record exists for a worker.
var ErrNotFound = errors.New("not found")

// Driver names accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
)

// ActivationStore is the contract the authorization engine consumes. There
// is at most one record per worker; Upsert replaces in place.
type ActivationStore interface {
	// Get returns the record for a worker, or ErrNotFound.
	Get(ctx context.Context, workerID string) (*model.ActivationRecord, error)

	// Upsert writes the record and bumps the store's last-updated stamp.
	Upsert(ctx context.Context, rec *model.ActivationRecord) error

	// UpdateLastVerify touches a record's last-verify timestamp.
	// Returns ErrNotFound if no record exists.
	UpdateLastVerify(ctx context.Context, workerID string, t time.Time) error

	// MarkExpired flips every active record whose token expired before
	// cutoff to status expired, stamping it with stamp. The whole pass is
	// one durable write; the count of transitioned records is returned.
	MarkExpired(ctx context.Context, cutoff time.Time, stamp time.Time) (int, error)

	// List returns every record, expired ones included.
	List(ctx context.Context) ([]model.ActivationRecord, error)

	// ActiveCount returns the number of records with status active.
	ActiveCount(ctx context.Context) (int, error)

	// LastUpdated returns the time of the most recent mutation, or the zero
	// time for a store that has never been written.
	LastUpdated(ctx context.Context) (time.Time, error)

	Close() error
}

// Open creates an ActivationStore for the named driver rooted at dataDir.
func Open(driver, dataDir string) (ActivationStore, error) {
	switch driver {
	case DriverSQLite, "":
		return NewSQLiteStore(dataDir)
	case DriverFile:
		return NewFileStore(dataDir)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
