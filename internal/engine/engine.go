// Package engine orchestrates the authorization and token lifecycle: auth
// code requests, device activation, token verification, status reporting,
// and expiry sweeping. The engine holds no state of its own beyond a mutex;
// all durable state lives in the activation store.
//
// Domain rejections (bad code, inactive worker, already activated, invalid
// token) come back inside the result envelope with Success=false and are
// never Go errors. Returned errors mean infrastructure faults — storage
// unavailable, marshaling failure — and are the only thing callers should
// treat as retryable or exit non-zero for.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/warrantd/warrant/internal/directory"
	"github.com/warrantd/warrant/internal/model"
	"github.com/warrantd/warrant/internal/sign"
	"github.com/warrantd/warrant/internal/snapshot"
	"github.com/warrantd/warrant/internal/store"
)

// Config holds the engine's tunables.
type Config struct {
	// TokenExpireDays is the lifetime of issued tokens.
	TokenExpireDays int
	// AuthCodeValidMinutes is the redemption window for auth codes.
	AuthCodeValidMinutes int
	// MaxActivations is reported by Status. It is advisory only and not
	// enforced by Activate.
	MaxActivations int
	// Version is reported by Status.
	Version string
}

// DefaultConfig returns the stock engine configuration.
func DefaultConfig() Config {
	return Config{
		TokenExpireDays:      30,
		AuthCodeValidMinutes: 10,
		MaxActivations:       12,
		Version:              "1.0.0",
	}
}

// Engine composes the signer, directory, and activation store into the four
// authorization operations plus the expiry sweep.
type Engine struct {
	cfg      Config
	signer   *sign.Signer
	dir      directory.Directory
	store    store.ActivationStore
	recorder snapshot.Recorder
	logger   *slog.Logger
	now      func() time.Time

	// mu serializes every read-modify-write against the store, upholding
	// the single-writer model: two concurrent Activate calls for the same
	// worker must not both observe "not active" and both succeed.
	mu sync.Mutex
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces the engine's time source. Tests use this to pin "now".
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRecorder sets the latest-result recorder.
func WithRecorder(r snapshot.Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New builds an Engine. Zero config fields fall back to defaults.
func New(cfg Config, signer *sign.Signer, dir directory.Directory, st store.ActivationStore, opts ...Option) *Engine {
	def := DefaultConfig()
	if cfg.TokenExpireDays <= 0 {
		cfg.TokenExpireDays = def.TokenExpireDays
	}
	if cfg.AuthCodeValidMinutes <= 0 {
		cfg.AuthCodeValidMinutes = def.AuthCodeValidMinutes
	}
	if cfg.MaxActivations <= 0 {
		cfg.MaxActivations = def.MaxActivations
	}
	if cfg.Version == "" {
		cfg.Version = def.Version
	}

	e := &Engine{
		cfg:      cfg,
		signer:   signer,
		dir:      dir,
		store:    st,
		recorder: snapshot.Discard{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RequestAuth derives a short-lived auth code for an authorized worker. The
// code is never persisted; it is re-derivable from (worker, issue time) and
// only the validity window bounds replay.
func (e *Engine) RequestAuth(ctx context.Context, workerID string) (*model.AuthResult, error) {
	res := e.requestAuth(workerID)
	e.record("request_auth", res)
	if !res.Success {
		e.logger.Info("auth request rejected", "worker", workerID, "code", res.ErrorCode)
	}
	return res, nil
}

func (e *Engine) requestAuth(workerID string) *model.AuthResult {
	worker, err := e.dir.Lookup(workerID)
	if err != nil {
		return &model.AuthResult{Result: model.Failure(model.ErrCodeWorkerNotAuthorized, "worker ID is not authorized")}
	}
	if !worker.Active() {
		return &model.AuthResult{Result: model.Failure(model.ErrCodeWorkerInactive, "worker is not active")}
	}

	issue := e.now().Unix()
	code := e.signer.AuthCode(workerID, issue)

	return &model.AuthResult{
		Result: model.Result{
			Success: true,
			Message: fmt.Sprintf("auth code valid for %d minutes", e.cfg.AuthCodeValidMinutes),
		},
		AuthCode:     code,
		IssueTime:    issue,
		ValidMinutes: e.cfg.AuthCodeValidMinutes,
		WorkerName:   worker.Name,
	}
}

// Activate redeems an auth code and binds the worker to one device, issuing
// a fresh signed token. A worker with a currently active record is rejected;
// re-activation is only possible once the prior activation has expired.
func (e *Engine) Activate(ctx context.Context, workerID, authCode string, issueTime int64, deviceInfo map[string]string) (*model.ActivateResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	res, err := e.activate(ctx, workerID, authCode, issueTime, deviceInfo)
	if err != nil {
		return nil, err
	}
	e.record("activate", res)
	if res.Success {
		e.logger.Info("device activated", "worker", workerID)
	} else {
		e.logger.Info("activation rejected", "worker", workerID, "code", res.ErrorCode)
	}
	return res, nil
}

func (e *Engine) activate(ctx context.Context, workerID, authCode string, issueTime int64, deviceInfo map[string]string) (*model.ActivateResult, error) {
	expected := e.signer.AuthCode(workerID, issueTime)
	if !sign.Equal(strings.ToUpper(authCode), expected) {
		return &model.ActivateResult{Result: model.Failure(model.ErrCodeInvalidAuthCode, "auth code is invalid")}, nil
	}

	now := e.now()
	window := int64(e.cfg.AuthCodeValidMinutes) * 60
	if now.Unix()-issueTime > window {
		return &model.ActivateResult{Result: model.Failure(model.ErrCodeAuthCodeExpired,
			fmt.Sprintf("auth code expired (valid for %d minutes)", e.cfg.AuthCodeValidMinutes))}, nil
	}

	prevCount := 0
	existing, err := e.store.Get(ctx, workerID)
	switch {
	case err == nil:
		if existing.Status == model.ActivationStatusActive {
			return &model.ActivateResult{Result: model.Failure(model.ErrCodeAlreadyActivated, "worker already has an active device")}, nil
		}
		prevCount = existing.ActivateCount
	case err == store.ErrNotFound:
		// first activation
	default:
		return nil, fmt.Errorf("look up activation: %w", err)
	}

	token := e.issueToken(workerID, now)

	if deviceInfo == nil {
		deviceInfo = map[string]string{}
	}
	rec := &model.ActivationRecord{
		WorkerID:       workerID,
		DeviceInfo:     deviceInfo,
		ActivateTime:   now.UTC(),
		LastVerifyTime: now.UTC(),
		Token:          *token,
		Status:         model.ActivationStatusActive,
		ActivateCount:  prevCount + 1,
	}
	if err := e.store.Upsert(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist activation: %w", err)
	}

	workerName := ""
	if worker, err := e.dir.Lookup(workerID); err == nil {
		workerName = worker.Name
	}

	return &model.ActivateResult{
		Result:     model.Result{Success: true, Message: "device activated"},
		Token:      token,
		ExpireDays: e.cfg.TokenExpireDays,
		WorkerName: workerName,
	}, nil
}

func (e *Engine) issueToken(workerID string, now time.Time) *model.Token {
	expire := now.Unix() + int64(e.cfg.TokenExpireDays)*86400
	tokenID := sign.TokenID(workerID, now)
	return &model.Token{
		WorkerID:   workerID,
		IssueTime:  now.Unix(),
		ExpireTime: expire,
		TokenID:    tokenID,
		Signature:  e.signer.TokenSignature(workerID, expire, tokenID),
	}
}

// Verify checks a token's expiry and signature. It deliberately does not
// re-check the worker's current roster status: only the token itself gates
// success, so a since-deactivated worker with an unexpired token still
// verifies until the token expires or a sweep retires the activation.
func (e *Engine) Verify(ctx context.Context, token *model.Token) (*model.VerifyResult, error) {
	res, err := e.verify(ctx, token)
	if err != nil {
		return nil, err
	}
	e.record("verify", res)
	if !res.Success {
		e.logger.Info("verification rejected", "reason", res.Message)
	}
	return res, nil
}

func (e *Engine) verify(ctx context.Context, token *model.Token) (*model.VerifyResult, error) {
	if token.Empty() {
		return &model.VerifyResult{Result: model.Failure(model.ErrCodeTokenInvalid, "token data is empty")}, nil
	}
	if e.now().Unix() > token.ExpireTime {
		return &model.VerifyResult{Result: model.Failure(model.ErrCodeTokenInvalid, "token has expired")}, nil
	}

	expected := e.signer.TokenSignature(token.WorkerID, token.ExpireTime, token.TokenID)
	if !sign.Equal(token.Signature, expected) {
		return &model.VerifyResult{Result: model.Failure(model.ErrCodeTokenInvalid, "token signature is invalid")}, nil
	}

	// Touch the activation's last-verify stamp. A missing record is fine:
	// the token alone is the credential.
	if err := e.store.UpdateLastVerify(ctx, token.WorkerID, e.now().UTC()); err != nil && err != store.ErrNotFound {
		return nil, fmt.Errorf("touch last verify: %w", err)
	}

	workerName := ""
	if worker, err := e.dir.Lookup(token.WorkerID); err == nil {
		workerName = worker.Name
	}

	return &model.VerifyResult{
		Result:     model.Result{Success: true, Message: "token verified"},
		WorkerID:   token.WorkerID,
		WorkerName: workerName,
	}, nil
}

// Status reports the read-only system aggregate. No mutation.
func (e *Engine) Status(ctx context.Context) (*model.StatusResult, error) {
	active, err := e.store.ActiveCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("count active devices: %w", err)
	}
	updated, err := e.store.LastUpdated(ctx)
	if err != nil {
		return nil, fmt.Errorf("read last updated: %w", err)
	}

	lastUpdated := ""
	if !updated.IsZero() {
		lastUpdated = updated.UTC().Format(time.RFC3339)
	}

	res := &model.StatusResult{
		Result: model.Result{Success: true, Message: "ok"},
		SystemStatus: &model.SystemStatus{
			TotalAuthorized: e.dir.Count(),
			ActiveDevices:   active,
			MaxActivations:  e.cfg.MaxActivations,
			LastUpdated:     lastUpdated,
			Version:         e.cfg.Version,
		},
	}
	e.record("status", res)
	return res, nil
}

// record pushes the result to the snapshot recorder. Recording is a
// collaborator concern: a failure is logged and otherwise ignored.
func (e *Engine) record(action string, result any) {
	if err := e.recorder.Record(action, result); err != nil {
		e.logger.Warn("failed to record result", "action", action, "error", err)
	}
}
