// Package handler exposes the authorization engine over HTTP. The engine's
// result envelopes pass through verbatim: a domain rejection is a 200 with
// Success=false and an error code, while malformed requests and storage
// faults are the only paths to 4xx/5xx.
package handler

import (
	"net/http"

	"github.com/warrantd/warrant/internal/engine"
	"github.com/warrantd/warrant/internal/model"
)

// AuthHandler serves the worker-facing authorization endpoints.
type AuthHandler struct {
	engine *engine.Engine
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(e *engine.Engine) *AuthHandler {
	return &AuthHandler{engine: e}
}

// requestAuthRequest is the expected payload for RequestAuth.
type requestAuthRequest struct {
	WorkerID string `json:"worker_id"`
}

// RequestAuth issues a short-lived auth code for a worker.
// POST /api/v1/auth/request
func (h *AuthHandler) RequestAuth(w http.ResponseWriter, r *http.Request) {
	var req requestAuthRequest
	if err := readJSON(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, model.ErrCodeProcessing, "invalid request body: "+err.Error())
		return
	}
	if req.WorkerID == "" {
		writeFailure(w, http.StatusBadRequest, model.ErrCodeProcessing, "worker_id is required")
		return
	}

	res, err := h.engine.RequestAuth(r.Context(), req.WorkerID)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, model.ErrCodeProcessing, "auth request failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// activateRequest is the expected payload for Activate.
type activateRequest struct {
	WorkerID   string            `json:"worker_id"`
	AuthCode   string            `json:"auth_code"`
	IssueTime  int64             `json:"timestamp"`
	DeviceInfo map[string]string `json:"device_info,omitempty"`
}

// Activate redeems an auth code and returns the issued token.
// POST /api/v1/auth/activate
func (h *AuthHandler) Activate(w http.ResponseWriter, r *http.Request) {
	var req activateRequest
	if err := readJSON(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, model.ErrCodeProcessing, "invalid request body: "+err.Error())
		return
	}
	if req.WorkerID == "" || req.AuthCode == "" || req.IssueTime == 0 {
		writeFailure(w, http.StatusBadRequest, model.ErrCodeProcessing, "worker_id, auth_code and timestamp are required")
		return
	}

	res, err := h.engine.Activate(r.Context(), req.WorkerID, req.AuthCode, req.IssueTime, req.DeviceInfo)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, model.ErrCodeProcessing, "activation failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// verifyRequest is the expected payload for Verify.
type verifyRequest struct {
	Token *model.Token `json:"token"`
}

// Verify checks a token's signature and expiry.
// POST /api/v1/auth/verify
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := readJSON(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, model.ErrCodeProcessing, "invalid request body: "+err.Error())
		return
	}

	res, err := h.engine.Verify(r.Context(), req.Token)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, model.ErrCodeProcessing, "verification failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Status reports the read-only system aggregate.
// GET /api/v1/status
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	res, err := h.engine.Status(r.Context())
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, model.ErrCodeProcessing, "status failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}
