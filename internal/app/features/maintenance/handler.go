// internal/app/features/maintenance/handler.go
package maintenance

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/casalink/internal/app/features/shared"
	maintenancestore "github.com/dalemusser/casalink/internal/app/store/maintenance"
	propertystore "github.com/dalemusser/casalink/internal/app/store/properties"
	unitstore "github.com/dalemusser/casalink/internal/app/store/units"
	"github.com/dalemusser/casalink/internal/app/system/auth"
	"github.com/dalemusser/casalink/internal/app/system/authz"
	"github.com/dalemusser/casalink/internal/app/system/htmlsanitize"
	"github.com/dalemusser/casalink/internal/app/system/timeouts"
	"github.com/dalemusser/casalink/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	Requests   *maintenancestore.Store
	Units      *unitstore.Store
	Properties *propertystore.Store
}

func NewHandler(requests *maintenancestore.Store, units *unitstore.Store, properties *propertystore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		Requests:   requests,
		Units:      units,
		Properties: properties,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /maintenance                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleList returns repair requests for the caller: tenants see their
// own filings, landlords everything against their units. Landlords can
// narrow to unresolved work with ?open=true.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "not signed in")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var (
		list []models.MaintenanceRequest
		err  error
	)
	switch {
	case authz.IsTenant(r):
		list, err = h.Requests.ListByTenant(ctx, u.ID)
	case r.URL.Query().Get("open") == "true":
		list, err = h.Requests.ListOpenByLandlord(ctx, u.ID)
	default:
		list, err = h.Requests.ListByLandlord(ctx, u.ID)
	}
	if err != nil {
		h.Log.Error("list maintenance requests failed", zap.Error(err), zap.String("user_id", u.ID))
		shared.Error(w, http.StatusInternalServerError, "A server error occurred.")
		return
	}
	if list == nil {
		list = []models.MaintenanceRequest{}
	}
	shared.JSON(w, http.StatusOK, map[string]any{"requests": list})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /maintenance/{requestID}                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	id, ok := h.requestID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	req, err := h.Requests.GetByID(ctx, id)
	if err != nil {
		h.respondLookupError(w, err)
		return
	}
	if req.TenantID != u.ID && req.LandlordID != u.ID && !u.IsAdmin {
		shared.Error(w, http.StatusForbidden, "forbidden")
		return
	}

	shared.JSON(w, http.StatusOK, map[string]any{"request": req})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /maintenance                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

type createRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
}

// HandleCreate files a repair request for the tenant's current unit.
// The unit and the accountable landlord come from the tenant's
// occupancy, not the request body.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var req createRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	unit, err := h.Units.GetByTenant(ctx, u.ID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			shared.ErrorCode(w, http.StatusConflict, "no_unit",
				"no unit is currently assigned to this account")
			return
		}
		h.Log.Error("unit lookup for request failed", zap.Error(err), zap.String("tenant_id", u.ID))
		shared.Error(w, http.StatusInternalServerError, "A server error occurred.")
		return
	}
	prop, err := h.Properties.GetByID(ctx, unit.PropertyID)
	if err != nil {
		h.respondLookupError(w, err)
		return
	}

	created, err := h.Requests.Create(ctx, models.MaintenanceRequest{
		UnitID:      unit.ID,
		PropertyID:  unit.PropertyID,
		TenantID:    u.ID,
		LandlordID:  prop.LandlordID,
		Title:       htmlsanitize.Sanitize(strings.TrimSpace(req.Title)),
		Description: htmlsanitize.Sanitize(strings.TrimSpace(req.Description)),
		Category:    strings.TrimSpace(req.Category),
		Priority:    strings.TrimSpace(req.Priority),
	})
	if err != nil {
		shared.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	shared.JSON(w, http.StatusCreated, map[string]any{"request": created})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /maintenance/{requestID}/assign                                        |
*─────────────────────────────────────────────────────────────────────────────*/

type assignRequest struct {
	AssignedTo    string  `json:"assignedTo"`
	EstimatedCost float64 `json:"estimatedCost"`
}

// HandleAssign hands an open request to a contractor. Landlord-only.
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	id, ok := h.requestID(w, r)
	if !ok {
		return
	}

	var req assignRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	assignee := strings.TrimSpace(req.AssignedTo)
	if assignee == "" {
		shared.Error(w, http.StatusBadRequest, "assignedTo is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	mr, err := h.Requests.GetByID(ctx, id)
	if err != nil {
		h.respondLookupError(w, err)
		return
	}
	if mr.LandlordID != u.ID && !u.IsAdmin {
		shared.Error(w, http.StatusForbidden, "forbidden")
		return
	}

	if err := h.Requests.Assign(ctx, id, htmlsanitize.Sanitize(assignee), req.EstimatedCost); err != nil {
		h.respondTransitionError(w, err)
		return
	}

	shared.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /maintenance/{requestID}/status                                        |
*─────────────────────────────────────────────────────────────────────────────*/

type statusRequest struct {
	Status string `json:"status"`
}

// HandleStatus advances a request through its lifecycle. Landlords may
// make any allowed transition; tenants may only cancel their own
// filings.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	id, ok := h.requestID(w, r)
	if !ok {
		return
	}

	var req statusRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	next := strings.TrimSpace(req.Status)
	if next == "" {
		shared.Error(w, http.StatusBadRequest, "status is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	mr, err := h.Requests.GetByID(ctx, id)
	if err != nil {
		h.respondLookupError(w, err)
		return
	}
	switch {
	case mr.LandlordID == u.ID || u.IsAdmin:
	case mr.TenantID == u.ID && next == models.RequestCancelled:
	default:
		shared.Error(w, http.StatusForbidden, "forbidden")
		return
	}

	if err := h.Requests.Transition(ctx, id, next); err != nil {
		h.respondTransitionError(w, err)
		return
	}

	shared.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

/*─────────────────────────────────────────────────────────────────────────────*
| helpers                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) requestID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "requestID"))
	if err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request id")
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *Handler) respondTransitionError(w http.ResponseWriter, err error) {
	if errors.Is(err, maintenancestore.ErrBadTransition) {
		shared.ErrorCode(w, http.StatusConflict, "bad_transition", err.Error())
		return
	}
	h.respondLookupError(w, err)
}

func (h *Handler) respondLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, mongo.ErrNoDocuments) {
		shared.Error(w, http.StatusNotFound, "not found")
		return
	}
	h.Log.Error("maintenance lookup failed", zap.Error(err))
	shared.Error(w, http.StatusInternalServerError, "A server error occurred.")
}
