// internal/app/features/logout/handler.go
package logout

import (
	"context"
	"net/http"

	"github.com/dalemusser/casalink/internal/app/features/shared"
	"github.com/dalemusser/casalink/internal/app/system/auth"
	"github.com/dalemusser/casalink/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Core is the slice of the session manager this handler drives.
type Core interface {
	Logout(ctx context.Context)
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

// HandleLogout handles POST /logout. Logout never fails visibly: the
// identity session and the cookie are both torn down best-effort and
// the response is always 200.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	h.Sessions.Logout(ctx)

	if err := auth.Clear(w, r); err != nil {
		h.Log.Warn("clear cookie session failed during logout", zap.Error(err))
	}

	shared.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
