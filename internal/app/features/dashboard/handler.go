// internal/app/features/dashboard/handler.go
//
// Role-aware summary counts for the landing screen. Each role gets the
// numbers its home view leads with; nothing here is authoritative, the
// detail endpoints are.
package dashboard

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/casalink/internal/app/features/shared"
	billstore "github.com/dalemusser/casalink/internal/app/store/bills"
	leasestore "github.com/dalemusser/casalink/internal/app/store/leases"
	maintenancestore "github.com/dalemusser/casalink/internal/app/store/maintenance"
	propertystore "github.com/dalemusser/casalink/internal/app/store/properties"
	unitstore "github.com/dalemusser/casalink/internal/app/store/units"
	userstore "github.com/dalemusser/casalink/internal/app/store/users"
	"github.com/dalemusser/casalink/internal/app/system/auth"
	"github.com/dalemusser/casalink/internal/app/system/timeouts"
	"github.com/dalemusser/casalink/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const expiringWindow = 30 * 24 * time.Hour

type Handler struct {
	Log        *zap.Logger
	Users      *userstore.Store
	Properties *propertystore.Store
	Units      *unitstore.Store
	Leases     *leasestore.Store
	Bills      *billstore.Store
	Requests   *maintenancestore.Store
}

func NewHandler(
	users *userstore.Store,
	properties *propertystore.Store,
	units *unitstore.Store,
	leasesStore *leasestore.Store,
	bills *billstore.Store,
	requests *maintenancestore.Store,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Log:        logger,
		Users:      users,
		Properties: properties,
		Units:      units,
		Leases:     leasesStore,
		Bills:      bills,
		Requests:   requests,
	}
}

type landlordSummary struct {
	Properties     int64            `json:"properties"`
	Tenants        int              `json:"tenants"`
	UnitsByStatus  map[string]int64 `json:"unitsByStatus"`
	OpenRequests   int64            `json:"openRequests"`
	ExpiringLeases int              `json:"expiringLeases"`
}

type tenantSummary struct {
	HasUnit          bool          `json:"hasUnit"`
	Unit             *models.Unit  `json:"unit,omitempty"`
	ActiveLease      *models.Lease `json:"activeLease,omitempty"`
	OutstandingTotal float64       `json:"outstandingTotal"`
	OpenRequests     int           `json:"openRequests"`
}

type adminSummary struct {
	Landlords int64 `json:"landlords"`
	Tenants   int64 `json:"tenants"`
}

// Serve routes the summary by the caller's role. Admins get platform
// totals regardless of which role they signed in under.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "not signed in")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var (
		payload any
		err     error
	)
	switch {
	case u.IsAdmin:
		payload, err = h.adminSummary(ctx)
	case u.Role == models.RoleTenant:
		payload, err = h.tenantSummary(ctx, u.ID)
	default:
		payload, err = h.landlordSummary(ctx, u.ID)
	}
	if err != nil {
		h.Log.Error("dashboard summary failed",
			zap.Error(err), zap.String("user_id", u.ID), zap.String("role", u.Role))
		shared.Error(w, http.StatusInternalServerError, "A server error occurred.")
		return
	}

	shared.JSON(w, http.StatusOK, map[string]any{"summary": payload})
}

func (h *Handler) landlordSummary(ctx context.Context, landlordID string) (*landlordSummary, error) {
	props, err := h.Properties.ListByLandlord(ctx, landlordID)
	if err != nil {
		return nil, err
	}
	propIDs := make([]primitive.ObjectID, len(props))
	for i, p := range props {
		propIDs[i] = p.ID
	}

	unitCounts, err := h.Units.CountByStatus(ctx, propIDs)
	if err != nil {
		return nil, err
	}
	tenants, err := h.Users.ListTenantsByLandlord(ctx, landlordID)
	if err != nil {
		return nil, err
	}
	openRequests, err := h.Requests.CountOpenByLandlord(ctx, landlordID)
	if err != nil {
		return nil, err
	}
	expiring, err := h.Leases.ExpiringSoon(ctx, landlordID, expiringWindow)
	if err != nil {
		return nil, err
	}

	return &landlordSummary{
		Properties:     int64(len(props)),
		Tenants:        len(tenants),
		UnitsByStatus:  unitCounts,
		OpenRequests:   openRequests,
		ExpiringLeases: len(expiring),
	}, nil
}

func (h *Handler) tenantSummary(ctx context.Context, tenantID string) (*tenantSummary, error) {
	out := &tenantSummary{}

	unit, err := h.Units.GetByTenant(ctx, tenantID)
	switch {
	case err == nil:
		out.HasUnit = true
		out.Unit = &unit
		if lease, err := h.Leases.ActiveForUnit(ctx, unit.ID); err == nil {
			out.ActiveLease = lease
		} else if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, err
		}
	case errors.Is(err, mongo.ErrNoDocuments):
		// Not housed yet; the rest of the summary still applies.
	default:
		return nil, err
	}

	total, err := h.Bills.OutstandingTotal(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out.OutstandingTotal = total

	requests, err := h.Requests.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for _, mr := range requests {
		switch mr.Status {
		case models.RequestOpen, models.RequestAssigned, models.RequestInProgress:
			out.OpenRequests++
		}
	}
	return out, nil
}

func (h *Handler) adminSummary(ctx context.Context) (*adminSummary, error) {
	landlords, err := h.Users.CountByRole(ctx, models.RoleLandlord)
	if err != nil {
		return nil, err
	}
	tenants, err := h.Users.CountByRole(ctx, models.RoleTenant)
	if err != nil {
		return nil, err
	}
	return &adminSummary{Landlords: landlords, Tenants: tenants}, nil
}
