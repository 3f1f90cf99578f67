// internal/app/features/login/handler.go

// Package login serves credential sign-in and account sign-up for the
// calling device.
package login

import (
	"net/http"

	uierrors "github.com/gymovoo/gymovoo/internal/app/features/errors"
	"github.com/gymovoo/gymovoo/internal/app/features/shared"
	"github.com/gymovoo/gymovoo/internal/app/session"
	"github.com/gymovoo/gymovoo/internal/app/system/auth"
	"github.com/gymovoo/gymovoo/internal/app/system/htmlsanitize"
	"go.uber.org/zap"
)

type Handler struct {
	Manager *session.Manager
	ErrLog  *uierrors.ErrorLogger
	Log     *zap.Logger
}

func NewHandler(mgr *session.Manager, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Manager: mgr, ErrLog: errLog, Log: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// ServeLogin handles POST /login.
//
// The response is always 200 with the resulting session state; a failed
// sign-in shows up as last_error with the session unchanged. Field-level
// problems (missing email) are the only 400s.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	key, ok := auth.DeviceKey(r)
	if !ok {
		h.ErrLog.LogBadRequest(w, r, "no device session")
		return
	}

	var req loginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		h.ErrLog.LogBadRequest(w, r, "email and password are required")
		return
	}

	st, err := h.Manager.Get(r.Context(), key)
	if err != nil {
		h.ErrLog.LogUnavailable(w, r, "service is shutting down")
		return
	}
	shared.WriteSession(w, st.LoginWithCredentials(r.Context(), req.Email, req.Password))
}

// ServeSignUp handles POST /login/signup.
func (h *Handler) ServeSignUp(w http.ResponseWriter, r *http.Request) {
	key, ok := auth.DeviceKey(r)
	if !ok {
		h.ErrLog.LogBadRequest(w, r, "no device session")
		return
	}

	var req signUpRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		h.ErrLog.LogBadRequest(w, r, "email and password are required")
		return
	}

	displayName := htmlsanitize.Text(req.DisplayName)

	st, err := h.Manager.Get(r.Context(), key)
	if err != nil {
		h.ErrLog.LogUnavailable(w, r, "service is shutting down")
		return
	}
	shared.WriteSession(w, st.SignUp(r.Context(), req.Email, req.Password, displayName))
}
