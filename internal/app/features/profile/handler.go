// internal/app/features/profile/handler.go

// Package profile serves profile mutation and session refresh for the
// registered user on the calling device.
package profile

import (
	"net/http"

	uierrors "github.com/gymovoo/gymovoo/internal/app/features/errors"
	"github.com/gymovoo/gymovoo/internal/app/features/shared"
	"github.com/gymovoo/gymovoo/internal/app/identity"
	"github.com/gymovoo/gymovoo/internal/app/session"
	"github.com/gymovoo/gymovoo/internal/app/system/auth"
	"github.com/gymovoo/gymovoo/internal/app/system/htmlsanitize"
	"github.com/gymovoo/gymovoo/internal/app/system/normalize"
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

type updateRequest struct {
	DisplayName     *string `json:"display_name"`
	AvatarURL       *string `json:"avatar_url"`
	Goal            *string `json:"goal"`
	ExperienceLevel *string `json:"experience_level"`
}

// ServeUpdate handles PUT /profile.
//
// For a device that is not in a registered session this is a silent
// no-op: the current state comes back unchanged with no error, matching
// the state machine's precondition semantics.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	key, ok := auth.DeviceKey(r)
	if !ok {
		h.ErrLog.LogBadRequest(w, r, "no device session")
		return
	}

	var req updateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid request body")
		return
	}

	upd := identity.ProfileUpdate{
		AvatarURL: req.AvatarURL,
	}
	if req.DisplayName != nil {
		clean := htmlsanitize.Text(normalize.Name(*req.DisplayName))
		upd.DisplayName = &clean
	}
	if req.Goal != nil {
		clean := htmlsanitize.Text(*req.Goal)
		upd.Goal = &clean
	}
	if req.ExperienceLevel != nil {
		clean := normalize.Level(*req.ExperienceLevel)
		upd.ExperienceLevel = &clean
	}

	st, err := h.Manager.Get(r.Context(), key)
	if err != nil {
		h.ErrLog.LogUnavailable(w, r, "service is shutting down")
		return
	}
	shared.WriteSession(w, st.UpdateProfile(r.Context(), upd))
}

// ServeRefresh handles POST /profile/refresh.
func (h *Handler) ServeRefresh(w http.ResponseWriter, r *http.Request) {
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
	shared.WriteSession(w, st.Refresh(r.Context()))
}
