package handler

import (
	"encoding/json"
	"net/http"

	"github.com/warrantd/warrant/internal/model"
)

// writeJSON serializes v as JSON with the given HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeFailure writes a rejection envelope with the given HTTP status.
// Domain rejections ride a 200 with Success=false; only transport-level
// problems (malformed body, storage faults) get 4xx/5xx, and those carry
// PROCESSING_ERROR.
func writeFailure(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, model.Failure(code, message))
}

// readJSON decodes the request body as JSON into v, closing the body.
func readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
