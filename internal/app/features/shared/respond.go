// internal/app/features/shared/respond.go

// Package shared holds the JSON request/response helpers common to all
// feature handlers.
package shared

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gymovoo/gymovoo/internal/domain/models"
)

// maxBodyBytes caps request bodies; session payloads are tiny.
const maxBodyBytes = 64 << 10

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSession writes the session state as a 200 response. Transitions
// always resolve; a failed one is still a 200 whose body carries
// last_error, mirroring how the app consumes the state machine.
func WriteSession(w http.ResponseWriter, sess models.Session) {
	WriteJSON(w, http.StatusOK, sess)
}

// DecodeJSON reads a JSON request body into dst, rejecting unknown
// fields and oversized payloads.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	// A second value means trailing garbage.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}
