// internal/app/features/billing/routes.go
package billing

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
		r.Get("/lease/{leaseID}", h.HandleListByLease)
		r.Post("/{billID}/pay", h.HandlePay)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(models.RoleLandlord))
		r.Post("/", h.HandleCreate)
	})

	return r
}
