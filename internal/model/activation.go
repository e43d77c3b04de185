package model

import "time"

// Activation statuses.
const (
	ActivationStatusActive  = "active"
	ActivationStatusExpired = "expired"
)

// ActivationRecord binds a worker to exactly one device. There is at most
// one record per worker; re-activation overwrites the token in place and
// increments ActivateCount. The expiry sweeper flips Status to expired but
// never deletes the record.
type ActivationRecord struct {
	WorkerID       string            `json:"worker_id"`
	DeviceInfo     map[string]string `json:"device_info"`
	ActivateTime   time.Time         `json:"activate_time"`
	LastVerifyTime time.Time         `json:"last_verify_time"`
	ExpiredTime    *time.Time        `json:"expired_time,omitempty"`
	Token          Token             `json:"token"`
	Status         string            `json:"status"`
	ActivateCount  int               `json:"activate_count"`
}

// ActivationSnapshot is the persisted form of the whole store: every record
// keyed by worker ID plus the last mutation timestamp.
type ActivationSnapshot struct {
	Activations map[string]ActivationRecord `json:"activations"`
	LastUpdated time.Time                   `json:"last_updated"`
}
