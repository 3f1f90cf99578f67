// internal/app/features/logout/handler.go

// Package logout serves sign-out for the calling device.
package logout

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

// ServeLogout handles POST /logout. Idempotent: logging out a device
// that is already signed out returns the same clean state.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	key, ok := auth.DeviceKey(r)
	if !ok {
		h.ErrLog.LogBadRequest(w, r, "no device session")
		return
	}

	st, err := h.Manager.Get(r.Context(), key)
	if err != nil {
		h.ErrLog.LogUnavailable(w, r, "service is shutting down")
		return
	}
	shared.WriteSession(w, st.SignOut(r.Context()))
}
