// internal/app/features/tenants/routes.go
package tenants

import (
	"github.com/dalemusser/casalink/internal/app/system/auth"
	"github.com/dalemusser/casalink/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Roster and provisioning are landlord-only; the admin flag opens
	// the gate as everywhere else.
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(models.RoleLandlord))
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
	})

	// A tenant may fetch their own record; scoping happens in the
	// handler.
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Get("/{tenantID}", h.HandleGet)
	})

	return r
}
