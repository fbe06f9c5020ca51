// internal/app/features/billing/handler.go
package billing

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/casalink/internal/app/features/shared"
	billstore "github.com/dalemusser/casalink/internal/app/store/bills"
	leasestore "github.com/dalemusser/casalink/internal/app/store/leases"
	"github.com/dalemusser/casalink/internal/app/system/auth"
	"github.com/dalemusser/casalink/internal/app/system/authz"
	"github.com/dalemusser/casalink/internal/app/system/timeouts"
	"github.com/dalemusser/casalink/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Log    *zap.Logger
	Bills  *billstore.Store
	Leases *leasestore.Store
}

func NewHandler(bills *billstore.Store, leasesStore *leasestore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Log:    logger,
		Bills:  bills,
		Leases: leasesStore,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /bills                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleList returns the caller's bills: tenants see what they owe,
// landlords what they have charged. Tenants also get their outstanding
// total so the client doesn't have to re-sum. A ?status= param narrows
// the list to pending, paid, or overdue bills.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "not signed in")
		return
	}

	status := query.Get(r, "status")
	switch status {
	case "", models.BillPending, models.BillPaid, models.BillOverdue:
	default:
		shared.Error(w, http.StatusBadRequest, "unknown bill status")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if authz.IsTenant(r) {
		list, err := h.Bills.ListByTenant(ctx, u.ID, status)
		if err != nil {
			h.respondListError(w, err, u.ID)
			return
		}
		total, err := h.Bills.OutstandingTotal(ctx, u.ID)
		if err != nil {
			h.respondListError(w, err, u.ID)
			return
		}
		if list == nil {
			list = []models.Bill{}
		}
		shared.JSON(w, http.StatusOK, map[string]any{
			"bills":            list,
			"outstandingTotal": total,
		})
		return
	}

	list, err := h.Bills.ListByLandlord(ctx, u.ID, status)
	if err != nil {
		h.respondListError(w, err, u.ID)
		return
	}
	if list == nil {
		list = []models.Bill{}
	}
	shared.JSON(w, http.StatusOK, map[string]any{"bills": list})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /bills/lease/{leaseID}                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleListByLease returns every bill charged against one lease,
// visible to the lease's tenant and landlord.
func (h *Handler) HandleListByLease(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	leaseID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "leaseID"))
	if err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid lease id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	lease, err := h.Leases.GetByID(ctx, leaseID)
	if err != nil {
		h.respondLookupError(w, err)
		return
	}
	if lease.LandlordID != u.ID && lease.TenantID != u.ID && !u.IsAdmin {
		shared.Error(w, http.StatusForbidden, "forbidden")
		return
	}

	list, err := h.Bills.ListByLease(ctx, leaseID)
	if err != nil {
		h.respondListError(w, err, u.ID)
		return
	}
	if list == nil {
		list = []models.Bill{}
	}
	shared.JSON(w, http.StatusOK, map[string]any{"bills": list})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /bills                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

type createRequest struct {
	LeaseID  string  `json:"leaseId"`
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	DueDate  string  `json:"dueDate"` // RFC 3339
	Notes    string  `json:"notes"`
}

// HandleCreate charges a bill against one of the landlord's leases. The
// tenant and landlord on the bill come from the lease, not the request.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var req createRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	leaseID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.LeaseID))
	if err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid lease id")
		return
	}
	due, err := time.Parse(time.RFC3339, req.DueDate)
	if err != nil {
		shared.Error(w, http.StatusBadRequest, "dueDate must be RFC 3339")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	lease, err := h.Leases.GetByID(ctx, leaseID)
	if err != nil {
		h.respondLookupError(w, err)
		return
	}
	if lease.LandlordID != u.ID && !u.IsAdmin {
		shared.Error(w, http.StatusForbidden, "forbidden")
		return
	}

	bill, err := h.Bills.Create(ctx, models.Bill{
		LeaseID:    lease.ID,
		TenantID:   lease.TenantID,
		LandlordID: lease.LandlordID,
		Category:   strings.TrimSpace(req.Category),
		Amount:     req.Amount,
		DueDate:    due,
		Notes:      strings.TrimSpace(req.Notes),
	})
	if err != nil {
		shared.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	shared.JSON(w, http.StatusCreated, map[string]any{"bill": bill})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /bills/{billID}/pay                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// HandlePay settles a bill. The bill's tenant or its landlord may
// record the payment; paying twice is a conflict.
func (h *Handler) HandlePay(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "billID"))
	if err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid bill id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	bill, err := h.Bills.GetByID(ctx, id)
	if err != nil {
		h.respondLookupError(w, err)
		return
	}
	if bill.TenantID != u.ID && bill.LandlordID != u.ID && !u.IsAdmin {
		shared.Error(w, http.StatusForbidden, "forbidden")
		return
	}

	if err := h.Bills.MarkPaid(ctx, id); err != nil {
		if errors.Is(err, billstore.ErrAlreadyPaid) {
			shared.ErrorCode(w, http.StatusConflict, "already_paid", err.Error())
			return
		}
		h.respondLookupError(w, err)
		return
	}

	shared.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

/*─────────────────────────────────────────────────────────────────────────────*
| helpers                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) respondListError(w http.ResponseWriter, err error, userID string) {
	h.Log.Error("list bills failed", zap.Error(err), zap.String("user_id", userID))
	shared.Error(w, http.StatusInternalServerError, "A server error occurred.")
}

func (h *Handler) respondLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, mongo.ErrNoDocuments) {
		shared.Error(w, http.StatusNotFound, "not found")
		return
	}
	h.Log.Error("bill lookup failed", zap.Error(err))
	shared.Error(w, http.StatusInternalServerError, "A server error occurred.")
}
