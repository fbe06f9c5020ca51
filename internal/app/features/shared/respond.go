// internal/app/features/shared/respond.go

// Package shared holds the JSON plumbing common to all feature
// handlers: response encoding and request decoding with the limits and
// error shapes every endpoint uses.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"
)

// maxBodyBytes caps request bodies. The largest legitimate payload is a
// maintenance request description; 1 MB is generous.
const maxBodyBytes = 1 << 20

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the uniform error envelope.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Error writes a JSON error envelope with the given status and message.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, errorBody{Error: message})
}

// ErrorCode writes a JSON error envelope carrying a machine-readable
// code alongside the message.
func ErrorCode(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, errorBody{Error: message, Code: code})
}

// Decode parses the request body into dst, rejecting unknown fields and
// oversized payloads.
func Decode(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	// A body with trailing garbage after the object is malformed.
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}
