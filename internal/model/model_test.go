package model

import (
	"encoding/json"
	"testing"
)

func TestWorkerActive(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{WorkerStatusActive, true},
		{WorkerStatusInactive, false},
		{"suspended", false},
		{"", false},
	}
	for _, tc := range tests {
		w := Worker{ID: "W1", Status: tc.status}
		if got := w.Active(); got != tc.want {
			t.Errorf("Active() with status %q: got %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestTokenEmpty(t *testing.T) {
	var nilToken *Token
	if !nilToken.Empty() {
		t.Error("nil token should be empty")
	}
	if !(&Token{}).Empty() {
		t.Error("zero token should be empty")
	}
	full := &Token{WorkerID: "W1", Signature: "abc"}
	if full.Empty() {
		t.Error("populated token should not be empty")
	}
}

func TestFailureEnvelope(t *testing.T) {
	res := Failure(ErrCodeInvalidAuthCode, "auth code is invalid")
	if res.Success {
		t.Error("failure envelope must not report success")
	}
	if res.ErrorCode != ErrCodeInvalidAuthCode {
		t.Errorf("ErrorCode: got %q", res.ErrorCode)
	}

	raw, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["success"] != false || decoded["error_code"] != ErrCodeInvalidAuthCode {
		t.Errorf("envelope JSON: %s", raw)
	}
}

func TestSuccessEnvelopeOmitsErrorCode(t *testing.T) {
	raw, err := json.Marshal(Result{Success: true, Message: "ok"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, present := decoded["error_code"]; present {
		t.Errorf("error_code should be omitted on success: %s", raw)
	}
}
