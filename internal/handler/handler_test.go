package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/warrantd/warrant/internal/directory"
	"github.com/warrantd/warrant/internal/engine"
	"github.com/warrantd/warrant/internal/model"
	"github.com/warrantd/warrant/internal/service"
	"github.com/warrantd/warrant/internal/sign"
	"github.com/warrantd/warrant/internal/store"
)

type testEnv struct {
	auth *AuthHandler
	ops  *OpsHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	signer, err := sign.New("test-secret")
	if err != nil {
		t.Fatalf("sign.New: %v", err)
	}
	dir := directory.NewStatic([]model.Worker{
		{ID: "W1", Name: "Alice", Status: model.WorkerStatusActive},
	})
	st, err := store.NewSQLiteStore("")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	e := engine.New(engine.Config{}, signer, dir, st)
	opsSvc := service.NewOpsService(service.HashKey("operator-key"), "test-secret-key-for-jwt")

	return &testEnv{
		auth: NewAuthHandler(e),
		ops:  NewOpsHandler(e, opsSvc, st),
	}
}

func postJSON(t *testing.T, h http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func TestRequestAuthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rr := postJSON(t, env.auth.RequestAuth, "/api/v1/auth/request",
		map[string]string{"worker_id": "W1"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}

	var res model.AuthResult
	decodeBody(t, rr, &res)
	if !res.Success {
		t.Fatalf("rejected: %s", res.ErrorCode)
	}
	if len(res.AuthCode) != 8 {
		t.Errorf("auth code shape: %q", res.AuthCode)
	}
}

func TestRequestAuthEndpointUnknownWorker(t *testing.T) {
	env := newTestEnv(t)

	rr := postJSON(t, env.auth.RequestAuth, "/api/v1/auth/request",
		map[string]string{"worker_id": "W404"})

	// A domain rejection is still a 200; the envelope carries the code.
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var res model.AuthResult
	decodeBody(t, rr, &res)
	if res.Success || res.ErrorCode != model.ErrCodeWorkerNotAuthorized {
		t.Errorf("envelope: success=%v code=%q", res.Success, res.ErrorCode)
	}
}

func TestRequestAuthEndpointBadBody(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest("POST", "/api/v1/auth/request", bytes.NewReader([]byte("{not json")))
	rr := httptest.NewRecorder()
	env.auth.RequestAuth(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
	var res model.Result
	decodeBody(t, rr, &res)
	if res.ErrorCode != model.ErrCodeProcessing {
		t.Errorf("ErrorCode: got %q, want %q", res.ErrorCode, model.ErrCodeProcessing)
	}
}

func TestActivateAndVerifyEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rr := postJSON(t, env.auth.RequestAuth, "/api/v1/auth/request",
		map[string]string{"worker_id": "W1"})
	var auth model.AuthResult
	decodeBody(t, rr, &auth)
	if !auth.Success {
		t.Fatalf("auth request rejected: %s", auth.ErrorCode)
	}

	rr = postJSON(t, env.auth.Activate, "/api/v1/auth/activate", map[string]interface{}{
		"worker_id":   "W1",
		"auth_code":   auth.AuthCode,
		"timestamp":   auth.IssueTime,
		"device_info": map[string]string{"os": "linux"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var act model.ActivateResult
	decodeBody(t, rr, &act)
	if !act.Success {
		t.Fatalf("activation rejected: %s", act.ErrorCode)
	}
	if act.Token == nil || len(act.Token.Signature) != 16 {
		t.Fatalf("token: %+v", act.Token)
	}

	rr = postJSON(t, env.auth.Verify, "/api/v1/auth/verify",
		map[string]interface{}{"token": act.Token})
	var ver model.VerifyResult
	decodeBody(t, rr, &ver)
	if !ver.Success || ver.WorkerID != "W1" {
		t.Errorf("verify envelope: success=%v worker=%q", ver.Success, ver.WorkerID)
	}
}

func TestVerifyEndpointMissingToken(t *testing.T) {
	env := newTestEnv(t)

	rr := postJSON(t, env.auth.Verify, "/api/v1/auth/verify", map[string]interface{}{})
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var res model.VerifyResult
	decodeBody(t, rr, &res)
	if res.Success || res.ErrorCode != model.ErrCodeTokenInvalid {
		t.Errorf("envelope: success=%v code=%q", res.Success, res.ErrorCode)
	}
}

func TestStatusEndpoint(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest("GET", "/api/v1/status", nil)
	rr := httptest.NewRecorder()
	env.auth.Status(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var res model.StatusResult
	decodeBody(t, rr, &res)
	if res.SystemStatus == nil || res.SystemStatus.TotalAuthorized != 1 {
		t.Errorf("system status: %+v", res.SystemStatus)
	}
}

func TestSessionEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rr := postJSON(t, env.ops.Session, "/api/v1/ops/session",
		map[string]string{"operator_key": "operator-key"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var res sessionResponse
	decodeBody(t, rr, &res)
	if res.Token == "" || res.TokenType != "bearer" {
		t.Errorf("session response: %+v", res)
	}
}

func TestSessionEndpointWrongKey(t *testing.T) {
	env := newTestEnv(t)

	rr := postJSON(t, env.ops.Session, "/api/v1/ops/session",
		map[string]string{"operator_key": "nope"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
}

func TestSweepAndListEndpoints(t *testing.T) {
	env := newTestEnv(t)

	// Activate one worker so the listing has content.
	rr := postJSON(t, env.auth.RequestAuth, "/api/v1/auth/request",
		map[string]string{"worker_id": "W1"})
	var auth model.AuthResult
	decodeBody(t, rr, &auth)
	postJSON(t, env.auth.Activate, "/api/v1/auth/activate", map[string]interface{}{
		"worker_id": "W1",
		"auth_code": auth.AuthCode,
		"timestamp": auth.IssueTime,
	})

	rr = postJSON(t, env.ops.Sweep, "/api/v1/ops/sweep", map[string]string{})
	if rr.Code != http.StatusOK {
		t.Fatalf("sweep status: got %d, want 200", rr.Code)
	}
	var swept model.SweepResult
	decodeBody(t, rr, &swept)
	if swept.Expired != 0 {
		t.Errorf("sweep of fresh activation: got %d, want 0", swept.Expired)
	}

	req := httptest.NewRequest("GET", "/api/v1/ops/activations", nil)
	rr = httptest.NewRecorder()
	env.ops.ListActivations(rr, req)

	var listed activationsResponse
	decodeBody(t, rr, &listed)
	if listed.Count != 1 || len(listed.Activations) != 1 {
		t.Fatalf("listing: count=%d len=%d", listed.Count, len(listed.Activations))
	}
	if listed.Activations[0].WorkerID != "W1" {
		t.Errorf("WorkerID: got %q, want W1", listed.Activations[0].WorkerID)
	}
}
