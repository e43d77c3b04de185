package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/warrantd/warrant/internal/service"
)

// ---------------------------------------------------------------------------
// RequestID middleware tests
// ---------------------------------------------------------------------------

func TestRequestIDGeneratesUUID(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRequestID(r.Context()) == "" {
			t.Error("expected non-empty request ID in context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	respID := rr.Header().Get("X-Request-ID")
	if respID == "" {
		t.Error("expected X-Request-ID in response header")
	}
	if len(respID) != 36 {
		t.Errorf("expected UUID-length request ID, got %q (len=%d)", respID, len(respID))
	}
}

func TestRequestIDPreservesClientID(t *testing.T) {
	clientID := "my-custom-trace-id-123"

	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := GetRequestID(r.Context()); id != clientID {
			t.Errorf("expected context ID %q, got %q", clientID, id)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", clientID)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if respID := rr.Header().Get("X-Request-ID"); respID != clientID {
		t.Errorf("expected response X-Request-ID %q, got %q", clientID, respID)
	}
}

func TestGetRequestIDEmptyContext(t *testing.T) {
	if id := GetRequestID(context.Background()); id != "" {
		t.Errorf("expected empty string from bare context, got %q", id)
	}
}

// ---------------------------------------------------------------------------
// RequireOperator middleware tests
// ---------------------------------------------------------------------------

func newTestOps() *service.OpsService {
	return service.NewOpsService(service.HashKey("operator-key"), "test-secret-key-for-jwt")
}

func TestRequireOperatorAllowsValidSession(t *testing.T) {
	ops := newTestOps()
	token, err := ops.IssueSession(context.Background(), "ops", time.Hour)
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}

	handler := RequireOperator(ops)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := GetOperator(r.Context())
		if p == nil || p.Subject != "ops" {
			t.Errorf("expected operator principal in context, got %+v", p)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("POST", "/api/v1/ops/sweep", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
}

func TestRequireOperatorBlocksMissingToken(t *testing.T) {
	handler := RequireOperator(newTestOps())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("inner handler should not be called without a token")
	}))

	req := httptest.NewRequest("POST", "/api/v1/ops/sweep", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rr.Code)
	}
}

func TestRequireOperatorBlocksGarbageToken(t *testing.T) {
	handler := RequireOperator(newTestOps())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("inner handler should not be called for a bad token")
	}))

	req := httptest.NewRequest("POST", "/api/v1/ops/sweep", nil)
	req.Header.Set("Authorization", "Bearer not.a.session")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rr.Code)
	}
}

func TestGetOperatorWithoutValue(t *testing.T) {
	if got := GetOperator(context.Background()); got != nil {
		t.Error("expected nil operator from bare context")
	}
}
