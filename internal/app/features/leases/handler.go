// internal/app/features/leases/handler.go
package leases

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/casalink/internal/app/features/shared"
	leasestore "github.com/dalemusser/casalink/internal/app/store/leases"
	unitstore "github.com/dalemusser/casalink/internal/app/store/units"
	"github.com/dalemusser/casalink/internal/app/system/auth"
	"github.com/dalemusser/casalink/internal/app/system/authz"
	"github.com/dalemusser/casalink/internal/app/system/timeouts"
	"github.com/dalemusser/casalink/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// expiringWindow is the look-ahead for the expiring-soon listing.
const expiringWindow = 30 * 24 * time.Hour

type Handler struct {
	Log    *zap.Logger
	Leases *leasestore.Store
	Units  *unitstore.Store
}

func NewHandler(leases *leasestore.Store, units *unitstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Log:    logger,
		Leases: leases,
		Units:  units,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /leases                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleList returns the caller's leases: landlords see leases they
// issued, tenants the leases they hold.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "not signed in")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var (
		list []models.Lease
		err  error
	)
	if authz.IsTenant(r) {
		list, err = h.Leases.ListByTenant(ctx, u.ID)
	} else {
		list, err = h.Leases.ListByLandlord(ctx, u.ID)
	}
	if err != nil {
		h.Log.Error("list leases failed", zap.Error(err), zap.String("user_id", u.ID))
		shared.Error(w, http.StatusInternalServerError, "A server error occurred.")
		return
	}
	if list == nil {
		list = []models.Lease{}
	}
	shared.JSON(w, http.StatusOK, map[string]any{"leases": list})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /leases/expiring                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleExpiring returns the landlord's active leases ending within the
// next 30 days.
func (h *Handler) HandleExpiring(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Leases.ExpiringSoon(ctx, u.ID, expiringWindow)
	if err != nil {
		h.Log.Error("expiring leases failed", zap.Error(err), zap.String("landlord_id", u.ID))
		shared.Error(w, http.StatusInternalServerError, "A server error occurred.")
		return
	}
	if list == nil {
		list = []models.Lease{}
	}
	shared.JSON(w, http.StatusOK, map[string]any{"leases": list})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /leases/{leaseID}                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	id, ok := h.leaseID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	lease, err := h.Leases.GetByID(ctx, id)
	if err != nil {
		h.respondLookupError(w, err)
		return
	}
	if lease.LandlordID != u.ID && lease.TenantID != u.ID && !u.IsAdmin {
		shared.Error(w, http.StatusForbidden, "forbidden")
		return
	}

	shared.JSON(w, http.StatusOK, map[string]any{"lease": lease})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /leases                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

type createRequest struct {
	UnitID          string  `json:"unitId"`
	TenantID        string  `json:"tenantId"`
	StartDate       string  `json:"startDate"` // RFC 3339 date
	EndDate         string  `json:"endDate"`
	MonthlyRent     float64 `json:"monthlyRent"`
	SecurityDeposit float64 `json:"securityDeposit"`
	Terms           string  `json:"terms"`
	Activate        bool    `json:"activate"`
}

// HandleCreate creates a lease for the landlord's unit. With
// activate=true the lease is created active, which also claims the unit
// for the tenant; otherwise it stays pending.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var req createRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	unitID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.UnitID))
	if err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid unit id")
		return
	}
	start, err := time.Parse(time.RFC3339, req.StartDate)
	if err != nil {
		shared.Error(w, http.StatusBadRequest, "startDate must be RFC 3339")
		return
	}
	var end *time.Time
	if req.EndDate != "" {
		e, err := time.Parse(time.RFC3339, req.EndDate)
		if err != nil {
			shared.Error(w, http.StatusBadRequest, "endDate must be RFC 3339")
			return
		}
		end = &e
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	unit, err := h.Units.GetByID(ctx, unitID)
	if err != nil {
		h.respondLookupError(w, err)
		return
	}

	status := models.LeasePending
	if req.Activate {
		status = models.LeaseActive
	}

	lease, err := h.Leases.Create(ctx, models.Lease{
		UnitID:          unit.ID,
		PropertyID:      unit.PropertyID,
		TenantID:        strings.TrimSpace(req.TenantID),
		LandlordID:      u.ID,
		StartDate:       start,
		EndDate:         end,
		MonthlyRent:     req.MonthlyRent,
		SecurityDeposit: req.SecurityDeposit,
		Terms:           req.Terms,
		Status:          status,
	})
	if err != nil {
		if errors.Is(err, leasestore.ErrActiveLeaseExists) {
			shared.ErrorCode(w, http.StatusConflict, "active_lease_exists", err.Error())
			return
		}
		shared.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	// An active lease moves the tenant in right away. The claim can lose
	// to a concurrent assignment; the lease stays for the landlord to
	// resolve.
	if status == models.LeaseActive {
		if err := h.Units.AssignTenant(ctx, unit.ID, lease.TenantID); err != nil &&
			!errors.Is(err, unitstore.ErrUnitOccupied) {
			h.Log.Warn("unit claim after lease creation failed",
				zap.Error(err), zap.String("lease_id", lease.ID.Hex()))
		}
	}

	shared.JSON(w, http.StatusCreated, map[string]any{"lease": lease})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /leases/{leaseID}/activate                                             |
| POST /leases/{leaseID}/end                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	id, ok := h.leaseID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	lease, err := h.Leases.GetByID(ctx, id)
	if err != nil {
		h.respondLookupError(w, err)
		return
	}
	if lease.LandlordID != u.ID && !u.IsAdmin {
		shared.Error(w, http.StatusForbidden, "forbidden")
		return
	}

	if err := h.Leases.Activate(ctx, id); err != nil {
		if errors.Is(err, leasestore.ErrActiveLeaseExists) {
			shared.ErrorCode(w, http.StatusConflict, "active_lease_exists", err.Error())
			return
		}
		h.respondLookupError(w, err)
		return
	}

	if err := h.Units.AssignTenant(ctx, lease.UnitID, lease.TenantID); err != nil &&
		!errors.Is(err, unitstore.ErrUnitOccupied) {
		h.Log.Warn("unit claim after lease activation failed",
			zap.Error(err), zap.String("lease_id", id.Hex()))
	}

	shared.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// HandleEnd ends a lease and releases its unit.
func (h *Handler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	id, ok := h.leaseID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	lease, err := h.Leases.GetByID(ctx, id)
	if err != nil {
		h.respondLookupError(w, err)
		return
	}
	if lease.LandlordID != u.ID && !u.IsAdmin {
		shared.Error(w, http.StatusForbidden, "forbidden")
		return
	}

	if err := h.Leases.End(ctx, id); err != nil {
		h.respondLookupError(w, err)
		return
	}

	if err := h.Units.Vacate(ctx, lease.UnitID); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		h.Log.Warn("vacate after lease end failed", zap.Error(err), zap.String("lease_id", id.Hex()))
	}

	shared.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

/*─────────────────────────────────────────────────────────────────────────────*
| helpers                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) leaseID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "leaseID"))
	if err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid lease id")
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *Handler) respondLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, mongo.ErrNoDocuments) {
		shared.Error(w, http.StatusNotFound, "not found")
		return
	}
	h.Log.Error("lease lookup failed", zap.Error(err))
	shared.Error(w, http.StatusInternalServerError, "A server error occurred.")
}
