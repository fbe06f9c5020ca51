// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/casalink/internal/app/features/shared"
	"github.com/dalemusser/casalink/internal/app/session"
	"github.com/dalemusser/casalink/internal/app/system/auth"
	"github.com/dalemusser/casalink/internal/app/system/ratelimit"
	"github.com/dalemusser/casalink/internal/app/system/timeouts"
	"github.com/dalemusser/casalink/internal/domain/models"
	"go.uber.org/zap"
)

// Core is the slice of the session manager this handler drives.
type Core interface {
	Login(ctx context.Context, email, password, selectedRole string) (*models.User, error)
}

type Handler struct {
	Log      *zap.Logger
	Sessions Core
	Limiter  *ratelimit.LoginLimiter
}

func NewHandler(core Core, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		Log:      logger,
		Sessions: core,
		Limiter:  limiter,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginResponse struct {
	User *models.User `json:"user"`
}

// roleMismatchResponse names the account's actual role so the client
// can steer the user to the right selection.
type roleMismatchResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code"`
	ActualRole string `json:"actualRole"`
}

// HandleLogin handles POST /login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" || req.Role == "" {
		shared.Error(w, http.StatusBadRequest, "email, password, and role are required")
		return
	}

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, req.Email); !ok {
			shared.ErrorCode(w, http.StatusTooManyRequests, "rate_limited", reason)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.Sessions.Login(ctx, req.Email, req.Password, req.Role)
	if err != nil {
		h.respondLoginError(w, r, req.Email, err)
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetEmail(req.Email)
	}

	if err := auth.Establish(w, r, auth.SessionUser{
		ID:                     user.ID,
		Name:                   user.Name,
		Email:                  user.Email,
		Role:                   user.Role,
		IsAdmin:                user.IsAdmin,
		RequiresPasswordChange: user.RequiresPasswordChange,
	}); err != nil {
		h.Log.Error("establish cookie session failed", zap.Error(err), zap.String("user_id", user.ID))
		shared.Error(w, http.StatusInternalServerError, "unable to create session")
		return
	}

	shared.JSON(w, http.StatusOK, loginResponse{User: user})
}

func (h *Handler) respondLoginError(w http.ResponseWriter, r *http.Request, email string, err error) {
	var mismatch *session.RoleMismatchError
	switch {
	case errors.As(err, &mismatch):
		shared.JSON(w, http.StatusForbidden, roleMismatchResponse{
			Error:      mismatch.Error(),
			Code:       "role_mismatch",
			ActualRole: mismatch.Actual,
		})
	case errors.Is(err, session.ErrInvalidCredentials):
		shared.ErrorCode(w, http.StatusUnauthorized, "invalid_credentials", "Incorrect email or password.")
	default:
		h.Log.Error("login failed", zap.Error(err), zap.String("email", email), zap.String("ip", ratelimit.ClientIP(r)))
		shared.Error(w, http.StatusInternalServerError, "A server error occurred.")
	}
}
