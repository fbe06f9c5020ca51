// internal/app/features/leases/routes.go
package leases

import (
	"github.com/dalemusser/casalink/internal/app/system/auth"
	"github.com/dalemusser/casalink/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Tenants and landlords both read leases.
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Get("/", h.HandleList)
		r.Get("/{leaseID}", h.HandleGet)
	})

	// Lifecycle is landlord-only.
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(models.RoleLandlord))
		r.Get("/expiring", h.HandleExpiring)
		r.Post("/", h.HandleCreate)
		r.Post("/{leaseID}/activate", h.HandleActivate)
		r.Post("/{leaseID}/end", h.HandleEnd)
	})

	return r
}
