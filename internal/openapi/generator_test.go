package openapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGenerateCoversAllRoutes(t *testing.T) {
	doc := Generate("http://localhost:8080", "1.0.0")

	want := []string{
		"/api/v1/auth/request",
		"/api/v1/auth/activate",
		"/api/v1/auth/verify",
		"/api/v1/status",
		"/api/v1/ops/session",
		"/api/v1/ops/sweep",
		"/api/v1/ops/activations",
	}
	for _, path := range want {
		if doc.Paths.Value(path) == nil {
			t.Errorf("missing path %s", path)
		}
	}

	if doc.Paths.Len() != len(want) {
		t.Errorf("path count: got %d, want %d", doc.Paths.Len(), len(want))
	}
}

func TestGenerateSchemas(t *testing.T) {
	doc := Generate("http://localhost:8080", "2.0.0")

	for _, name := range []string{"Result", "Token", "AuthResult", "ActivateResult", "VerifyResult", "SystemStatus", "StatusResult", "SweepResult"} {
		if _, ok := doc.Components.Schemas[name]; !ok {
			t.Errorf("missing schema %s", name)
		}
	}

	if doc.Info.Version != "2.0.0" {
		t.Errorf("version: got %q, want 2.0.0", doc.Info.Version)
	}
}

func TestGenerateMarshalsToJSON(t *testing.T) {
	doc := Generate("http://localhost:8080", "1.0.0")

	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["openapi"] != "3.1.0" {
		t.Errorf("openapi field: got %v", decoded["openapi"])
	}
}

func TestHandlerServesJSON(t *testing.T) {
	req := httptest.NewRequest("GET", "/openapi.json", nil)
	rr := httptest.NewRecorder()
	Handler()(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q", ct)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}
