package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/warrantd/warrant/internal/engine"
	"github.com/warrantd/warrant/internal/model"
	"github.com/warrantd/warrant/internal/service"
	"github.com/warrantd/warrant/internal/store"
)

// OpsHandler serves the operator endpoints: session issuance, the expiry
// sweep, and the activation listing.
type OpsHandler struct {
	engine *engine.Engine
	ops    *service.OpsService
	store  store.ActivationStore
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(e *engine.Engine, ops *service.OpsService, st store.ActivationStore) *OpsHandler {
	return &OpsHandler{engine: e, ops: ops, store: st}
}

// sessionRequest is the expected payload for Session.
type sessionRequest struct {
	OperatorKey string `json:"operator_key"`
}

// sessionResponse is the payload for a successful session exchange.
type sessionResponse struct {
	Token     string `json:"session_token"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"`
}

// Session exchanges the operator key for a bearer session token.
// POST /api/v1/ops/session
func (h *OpsHandler) Session(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := readJSON(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, model.ErrCodeProcessing, "invalid request body: "+err.Error())
		return
	}
	if req.OperatorKey == "" {
		writeFailure(w, http.StatusBadRequest, model.ErrCodeProcessing, "operator_key is required")
		return
	}

	if err := h.ops.ValidateOperatorKey(r.Context(), req.OperatorKey); err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, model.Failure("", "invalid operator key"))
			return
		}
		writeFailure(w, http.StatusInternalServerError, model.ErrCodeProcessing, "session error: "+err.Error())
		return
	}

	ttl := service.DefaultSessionTTL
	token, err := h.ops.IssueSession(r.Context(), "operator", ttl)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, model.ErrCodeProcessing, "failed to issue session: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		Token:     token,
		TokenType: "bearer",
		ExpiresIn: int(ttl.Seconds()),
	})
}

// Sweep runs an expiry pass and reports how many activations transitioned.
// POST /api/v1/ops/sweep
func (h *OpsHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	res, err := h.engine.Sweep(r.Context())
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, model.ErrCodeProcessing, "sweep failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// activationsResponse is the payload for ListActivations.
type activationsResponse struct {
	model.Result
	Activations []model.ActivationRecord `json:"activations"`
	Count       int                      `json:"count"`
	LastUpdated string                   `json:"last_updated,omitempty"`
}

// ListActivations returns every activation record, expired ones included.
// GET /api/v1/ops/activations
func (h *OpsHandler) ListActivations(w http.ResponseWriter, r *http.Request) {
	recs, err := h.store.List(r.Context())
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, model.ErrCodeProcessing, "failed to list activations: "+err.Error())
		return
	}
	updated, err := h.store.LastUpdated(r.Context())
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, model.ErrCodeProcessing, "failed to read last updated: "+err.Error())
		return
	}

	lastUpdated := ""
	if !updated.IsZero() {
		lastUpdated = updated.UTC().Format(time.RFC3339)
	}

	writeJSON(w, http.StatusOK, activationsResponse{
		Result:      model.Result{Success: true, Message: "ok"},
		Activations: recs,
		Count:       len(recs),
		LastUpdated: lastUpdated,
	})
}
