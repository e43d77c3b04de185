package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
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

func newTestServer(t *testing.T) *Server {
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
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := DefaultConfig()
	cfg.AuthRatePerMinute = 0 // keep the limiter out of unit tests
	return New(cfg, e, st, opsSvc, logger)
}

func do(t *testing.T, s *Server, method, path string, body interface{}, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	return rr
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rr := do(t, s, "GET", "/healthz", nil, nil)
	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
}

func TestReadyz(t *testing.T) {
	s := newTestServer(t)
	rr := do(t, s, "GET", "/readyz", nil, nil)
	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
}

func TestOpenAPIServed(t *testing.T) {
	s := newTestServer(t)
	rr := do(t, s, "GET", "/openapi.json", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestFullActivationFlowThroughRouter(t *testing.T) {
	s := newTestServer(t)

	rr := do(t, s, "POST", "/api/v1/auth/request", map[string]string{"worker_id": "W1"}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("request status: got %d, want 200", rr.Code)
	}
	var auth model.AuthResult
	if err := json.Unmarshal(rr.Body.Bytes(), &auth); err != nil {
		t.Fatalf("decode auth: %v", err)
	}
	if !auth.Success {
		t.Fatalf("auth rejected: %s", auth.ErrorCode)
	}

	rr = do(t, s, "POST", "/api/v1/auth/activate", map[string]interface{}{
		"worker_id": "W1",
		"auth_code": auth.AuthCode,
		"timestamp": auth.IssueTime,
	}, nil)
	var act model.ActivateResult
	if err := json.Unmarshal(rr.Body.Bytes(), &act); err != nil {
		t.Fatalf("decode activate: %v", err)
	}
	if !act.Success {
		t.Fatalf("activation rejected: %s", act.ErrorCode)
	}

	rr = do(t, s, "POST", "/api/v1/auth/verify", map[string]interface{}{"token": act.Token}, nil)
	var ver model.VerifyResult
	if err := json.Unmarshal(rr.Body.Bytes(), &ver); err != nil {
		t.Fatalf("decode verify: %v", err)
	}
	if !ver.Success || ver.WorkerID != "W1" {
		t.Errorf("verify: success=%v worker=%q", ver.Success, ver.WorkerID)
	}

	rr = do(t, s, "GET", "/api/v1/status", nil, nil)
	var st model.StatusResult
	if err := json.Unmarshal(rr.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if st.SystemStatus == nil || st.SystemStatus.ActiveDevices != 1 {
		t.Errorf("system status: %+v", st.SystemStatus)
	}
}

func TestOpsEndpointsRequireSession(t *testing.T) {
	s := newTestServer(t)

	rr := do(t, s, "POST", "/api/v1/ops/sweep", nil, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("sweep without session: got %d, want 401", rr.Code)
	}
	rr = do(t, s, "GET", "/api/v1/ops/activations", nil, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("activations without session: got %d, want 401", rr.Code)
	}
}

func TestOpsSessionFlow(t *testing.T) {
	s := newTestServer(t)

	rr := do(t, s, "POST", "/api/v1/ops/session", map[string]string{"operator_key": "operator-key"}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("session status: got %d, want 200", rr.Code)
	}
	var session struct {
		Token string `json:"session_token"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if session.Token == "" {
		t.Fatal("expected a session token")
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+session.Token)

	rr = do(t, s, "POST", "/api/v1/ops/sweep", nil, header)
	if rr.Code != http.StatusOK {
		t.Fatalf("sweep with session: got %d, want 200", rr.Code)
	}

	rr = do(t, s, "GET", "/api/v1/ops/activations", nil, header)
	if rr.Code != http.StatusOK {
		t.Fatalf("activations with session: got %d, want 200", rr.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	rr := do(t, s, "GET", "/api/v1/nope", nil, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
}
