// internal/app/features/maintenance/routes.go
package maintenance

import (
	"github.com/dalemusser/casalink/internal/app/system/auth"
	"github.com/dalemusser/casalink/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Get("/", h.HandleList)
		r.Get("/{requestID}", h.HandleGet)
		r.Post("/{requestID}/status", h.HandleStatus)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(models.RoleTenant))
		r.Post("/", h.HandleCreate)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(models.RoleLandlord))
		r.Post("/{requestID}/assign", h.HandleAssign)
	})

	return r
}
