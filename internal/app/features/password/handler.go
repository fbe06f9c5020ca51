// internal/app/features/password/handler.go
package password

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/casalink/internal/app/features/shared"
	"github.com/dalemusser/casalink/internal/app/session"
	"github.com/dalemusser/casalink/internal/app/system/auth"
	"github.com/dalemusser/casalink/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// minPasswordLength mirrors the identity provider's credential policy.
const minPasswordLength = 8

// Core is the slice of the session manager this handler drives.
type Core interface {
	ChangePassword(ctx context.Context, currentPassword, newPassword string) error
}

type Handler struct {
	Log      *zap.Logger
	Sessions Core
}

func NewHandler(core Core, logger *zap.Logger) *Handler {
	return &Handler{
		Log:      logger,
		Sessions: core,
	}
}

type changeRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// HandleChange handles POST /password/change. On success the
// first-login obligation flag in the cookie session is cleared so the
// RequirePasswordChanged gate opens without a fresh login.
func (h *Handler) HandleChange(w http.ResponseWriter, r *http.Request) {
	var req changeRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		shared.Error(w, http.StatusBadRequest, "currentPassword and newPassword are required")
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		shared.Error(w, http.StatusBadRequest, "new password must be at least 8 characters")
		return
	}
	if req.NewPassword == req.CurrentPassword {
		shared.Error(w, http.StatusBadRequest, "new password must differ from the current password")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Sessions.ChangePassword(ctx, req.CurrentPassword, req.NewPassword); err != nil {
		h.respondChangeError(w, err)
		return
	}

	if err := auth.SetPasswordChanged(w, r); err != nil {
		h.Log.Warn("clearing password-change flag in cookie failed", zap.Error(err))
	}

	shared.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) respondChangeError(w http.ResponseWriter, err error) {
	var reauth *session.ReauthenticationError
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		shared.Error(w, http.StatusUnauthorized, "not signed in")
	case errors.As(err, &reauth):
		shared.ErrorCode(w, http.StatusForbidden, "wrong_current_password", "Current password is incorrect.")
	default:
		h.Log.Error("password change failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "A server error occurred.")
	}
}
