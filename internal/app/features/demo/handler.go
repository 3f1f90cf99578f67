// internal/app/features/demo/handler.go

// Package demo serves the canned demo identities.
package demo

import (
	"net/http"

	uierrors "github.com/gymovoo/gymovoo/internal/app/features/errors"
	"github.com/gymovoo/gymovoo/internal/app/features/shared"
	"github.com/gymovoo/gymovoo/internal/app/session"
	"github.com/gymovoo/gymovoo/internal/app/system/auth"
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

type levelsResponse struct {
	Levels []string `json:"levels"`
}

type activateRequest struct {
	Level string `json:"level"`
}

// ServeLevels handles GET /demo.
func (h *Handler) ServeLevels(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, http.StatusOK, levelsResponse{Levels: session.DemoLevels()})
}

// ServeActivate handles POST /demo. An unknown level resolves to a
// session whose last_error is not_found, same as every other failed
// transition.
func (h *Handler) ServeActivate(w http.ResponseWriter, r *http.Request) {
	key, ok := auth.DeviceKey(r)
	if !ok {
		h.ErrLog.LogBadRequest(w, r, "no device session")
		return
	}

	var req activateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid request body")
		return
	}
	if req.Level == "" {
		h.ErrLog.LogBadRequest(w, r, "level is required")
		return
	}

	st, err := h.Manager.Get(r.Context(), key)
	if err != nil {
		h.ErrLog.LogUnavailable(w, r, "service is shutting down")
		return
	}
	shared.WriteSession(w, st.LoginAsDemo(r.Context(), req.Level))
}
