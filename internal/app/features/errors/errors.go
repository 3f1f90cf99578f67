// internal/app/features/errors/errors.go

// Package errors centralizes the JSON error responses for the gateway
// API, with logging attached so every client-visible failure has a
// server-side trace.
package errors

import (
	"net/http"

	"github.com/gymovoo/gymovoo/internal/app/features/shared"
	"go.uber.org/zap"
)

// ErrorLogger writes structured JSON errors and logs them.
type ErrorLogger struct {
	Log *zap.Logger
}

func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: logger}
}

type errorBody struct {
	Error string `json:"error"`
}

// LogBadRequest responds 400 with a JSON error.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	e.Log.Warn("bad request",
		zap.String("path", r.URL.Path),
		zap.String("reason", msg))
	shared.WriteJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

// LogServerError responds 500 with a generic JSON error; the detail
// stays in the log.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	e.Log.Error(msg,
		zap.String("path", r.URL.Path),
		zap.Error(err))
	shared.WriteJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
}

// LogUnavailable responds 503 with a JSON error. Used while the gateway
// is shutting down and refusing new session work.
func (e *ErrorLogger) LogUnavailable(w http.ResponseWriter, r *http.Request, msg string) {
	e.Log.Warn("service unavailable",
		zap.String("path", r.URL.Path),
		zap.String("reason", msg))
	shared.WriteJSON(w, http.StatusServiceUnavailable, errorBody{Error: msg})
}

// LogNotFound responds 404 with a JSON error.
func (e *ErrorLogger) LogNotFound(w http.ResponseWriter, r *http.Request, msg string) {
	shared.WriteJSON(w, http.StatusNotFound, errorBody{Error: msg})
}
