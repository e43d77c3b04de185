package model

// Error codes surfaced in result envelopes. Domain rejections are
// deterministic and never retryable; only ErrCodeProcessing indicates a
// fault worth retrying (and the only class that exits non-zero).
const (
	ErrCodeWorkerNotAuthorized = "WORKER_NOT_AUTHORIZED"
	ErrCodeWorkerInactive      = "WORKER_INACTIVE"
	ErrCodeInvalidAuthCode     = "INVALID_AUTH_CODE"
	ErrCodeAuthCodeExpired     = "AUTH_CODE_EXPIRED"
	ErrCodeAlreadyActivated    = "ALREADY_ACTIVATED"
	ErrCodeTokenInvalid        = "TOKEN_INVALID"
	ErrCodeProcessing          = "PROCESSING_ERROR"
)

// Result is the common envelope every operation returns. ErrorCode is empty
// on success. This envelope, not Go errors, is the contract exposed to any
// CLI or HTTP wrapper for domain-level rejections.
type Result struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ErrorCode string `json:"error_code,omitempty"`
}

// Failure builds a rejection envelope.
func Failure(code, message string) Result {
	return Result{Success: false, Message: message, ErrorCode: code}
}

// AuthResult is returned by RequestAuth.
type AuthResult struct {
	Result
	AuthCode     string `json:"auth_code,omitempty"`
	IssueTime    int64  `json:"timestamp,omitempty"`
	ValidMinutes int    `json:"valid_minutes,omitempty"`
	WorkerName   string `json:"worker_name,omitempty"`
}

// ActivateResult is returned by Activate.
type ActivateResult struct {
	Result
	Token      *Token `json:"token,omitempty"`
	ExpireDays int    `json:"expire_days,omitempty"`
	WorkerName string `json:"worker_name,omitempty"`
}

// VerifyResult is returned by Verify.
type VerifyResult struct {
	Result
	WorkerID   string `json:"worker_id,omitempty"`
	WorkerName string `json:"worker_name,omitempty"`
}

// SystemStatus is the read-only aggregate reported by Status.
type SystemStatus struct {
	TotalAuthorized int    `json:"total_authorized"`
	ActiveDevices   int    `json:"active_devices"`
	MaxActivations  int    `json:"max_activations"`
	LastUpdated     string `json:"last_updated"`
	Version         string `json:"version"`
}

// StatusResult is returned by Status.
type StatusResult struct {
	Result
	SystemStatus *SystemStatus `json:"system_status,omitempty"`
}

// SweepResult is returned by Sweep.
type SweepResult struct {
	Result
	Expired int `json:"expired_count"`
}
