// internal/app/features/properties/routes.go
package properties

import (
	"github.com/dalemusser/casalink/internal/app/system/auth"
	"github.com/dalemusser/casalink/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireRole(models.RoleLandlord))

	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)

	r.Route("/{propertyID}", func(r chi.Router) {
		r.Get("/", h.HandleGet)
		r.Put("/", h.HandleUpdate)
		r.Delete("/", h.HandleDelete)

		r.Post("/units", h.HandleCreateUnit)
		r.Post("/units/{unitID}/assign", h.HandleAssignUnit)
		r.Post("/units/{unitID}/vacate", h.HandleVacateUnit)
	})

	return r
}
