// internal/app/features/properties/handler.go
package properties

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/casalink/internal/app/features/shared"
	propertystore "github.com/dalemusser/casalink/internal/app/store/properties"
	unitstore "github.com/dalemusser/casalink/internal/app/store/units"
	"github.com/dalemusser/casalink/internal/app/system/auth"
	"github.com/dalemusser/casalink/internal/app/system/htmlsanitize"
	"github.com/dalemusser/casalink/internal/app/system/paging"
	"github.com/dalemusser/casalink/internal/app/system/timeouts"
	"github.com/dalemusser/casalink/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	Properties *propertystore.Store
	Units      *unitstore.Store
}

func NewHandler(props *propertystore.Store, units *unitstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		Properties: props,
		Units:      units,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /properties                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

type listResponse struct {
	Properties []models.Property `json:"properties"`
	HasPrev    bool              `json:"hasPrev"`
	HasNext    bool              `json:"hasNext"`
	PrevCursor string            `json:"prevCursor,omitempty"`
	NextCursor string            `json:"nextCursor,omitempty"`
}

// HandleList returns one keyset page of the landlord's properties,
// sorted by address. Cursors travel in the before/after query params.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	before := query.Get(r, "before")
	after := query.Get(r, "after")
	cfg := paging.ConfigureKeyset(before, after)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rows, err := h.Properties.ListByLandlordPaged(ctx, u.ID, cfg)
	if err != nil {
		h.Log.Error("list properties failed", zap.Error(err), zap.String("landlord_id", u.ID))
		shared.Error(w, http.StatusInternalServerError, "A server error occurred.")
		return
	}

	res := paging.TrimPage(&rows, before, after)
	if cfg.Direction == paging.Backward {
		paging.Reverse(rows)
	}
	prev, next := paging.BuildCursors(rows,
		func(p models.Property) string { return p.Address },
		func(p models.Property) primitive.ObjectID { return p.ID })

	if rows == nil {
		rows = []models.Property{}
	}
	shared.JSON(w, http.StatusOK, listResponse{
		Properties: rows,
		HasPrev:    res.HasPrev,
		HasNext:    res.HasNext,
		PrevCursor: prev,
		NextCursor: next,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /properties                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

type propertyRequest struct {
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	ZipCode      string   `json:"zipCode"`
	Country      string   `json:"country"`
	PropertyType string   `json:"propertyType"`
	TotalUnits   int      `json:"totalUnits"`
	Bedrooms     int      `json:"bedrooms"`
	Bathrooms    int      `json:"bathrooms"`
	MonthlyRate  float64  `json:"monthlyRate"`
	Description  string   `json:"description"`
	Amenities    []string `json:"amenities"`
}

// HandleCreate creates a property owned by the signed-in landlord.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var req propertyRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	created, err := h.Properties.Create(ctx, models.Property{
		LandlordID:   u.ID,
		Name:         strings.TrimSpace(req.Name),
		Address:      strings.TrimSpace(req.Address),
		City:         strings.TrimSpace(req.City),
		State:        strings.TrimSpace(req.State),
		ZipCode:      strings.TrimSpace(req.ZipCode),
		Country:      strings.TrimSpace(req.Country),
		PropertyType: strings.TrimSpace(req.PropertyType),
		TotalUnits:   req.TotalUnits,
		Bedrooms:     req.Bedrooms,
		Bathrooms:    req.Bathrooms,
		MonthlyRate:  req.MonthlyRate,
		Description:  htmlsanitize.Sanitize(req.Description),
		Amenities:    req.Amenities,
	})
	if err != nil {
		shared.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	shared.JSON(w, http.StatusCreated, map[string]any{"property": created})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /properties/{propertyID}                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleGet returns one property with its units.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	id, ok := h.propertyID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	prop, err := h.Properties.GetByID(ctx, id)
	if err != nil {
		h.respondLookupError(w, err, "property")
		return
	}
	if prop.LandlordID != u.ID && !u.IsAdmin {
		shared.Error(w, http.StatusForbidden, "forbidden")
		return
	}

	units, err := h.Units.ListByProperty(ctx, prop.ID)
	if err != nil {
		h.Log.Error("list units failed", zap.Error(err), zap.String("property_id", prop.ID.Hex()))
		shared.Error(w, http.StatusInternalServerError, "A server error occurred.")
		return
	}
	if units == nil {
		units = []models.Unit{}
	}

	shared.JSON(w, http.StatusOK, map[string]any{"property": prop, "units": units})
}

/*─────────────────────────────────────────────────────────────────────────────*
| PUT /properties/{propertyID}                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleUpdate modifies the landlord's own property.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	id, ok := h.propertyID(w, r)
	if !ok {
		return
	}

	var req propertyRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err := h.Properties.Update(ctx, id, u.ID, models.Property{
		Name:         strings.TrimSpace(req.Name),
		Address:      strings.TrimSpace(req.Address),
		City:         strings.TrimSpace(req.City),
		State:        strings.TrimSpace(req.State),
		ZipCode:      strings.TrimSpace(req.ZipCode),
		PropertyType: strings.TrimSpace(req.PropertyType),
		TotalUnits:   req.TotalUnits,
		MonthlyRate:  req.MonthlyRate,
		Description:  htmlsanitize.Sanitize(req.Description),
		Amenities:    req.Amenities,
	})
	if err != nil {
		h.respondLookupError(w, err, "property")
		return
	}

	shared.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

/*─────────────────────────────────────────────────────────────────────────────*
| DELETE /properties/{propertyID}                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	id, ok := h.propertyID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.Properties.Delete(ctx, id, u.ID)
	if err != nil {
		h.Log.Error("delete property failed", zap.Error(err), zap.String("property_id", id.Hex()))
		shared.Error(w, http.StatusInternalServerError, "A server error occurred.")
		return
	}
	if n == 0 {
		shared.Error(w, http.StatusNotFound, "property not found")
		return
	}

	shared.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /properties/{propertyID}/units                                         |
*─────────────────────────────────────────────────────────────────────────────*/

type unitRequest struct {
	UnitNumber      string   `json:"unitNumber"`
	BedroomCount    int      `json:"bedroomCount"`
	BathroomCount   int      `json:"bathroomCount"`
	SquareFeet      int      `json:"squareFeet"`
	RentAmount      float64  `json:"rentAmount"`
	SecurityDeposit float64  `json:"securityDeposit"`
	Description     string   `json:"description"`
	Amenities       []string `json:"amenities"`
}

// HandleCreateUnit adds a unit to the landlord's property.
func (h *Handler) HandleCreateUnit(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	id, ok := h.propertyID(w, r)
	if !ok {
		return
	}

	var req unitRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if !h.ownsProperty(ctx, w, u, id) {
		return
	}

	created, err := h.Units.Create(ctx, models.Unit{
		PropertyID:      id,
		UnitNumber:      strings.TrimSpace(req.UnitNumber),
		BedroomCount:    req.BedroomCount,
		BathroomCount:   req.BathroomCount,
		SquareFeet:      req.SquareFeet,
		RentAmount:      req.RentAmount,
		SecurityDeposit: req.SecurityDeposit,
		Description:     htmlsanitize.Sanitize(req.Description),
		Amenities:       req.Amenities,
	})
	if err != nil {
		if errors.Is(err, unitstore.ErrDuplicateUnit) {
			shared.ErrorCode(w, http.StatusConflict, "duplicate_unit", err.Error())
			return
		}
		shared.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	shared.JSON(w, http.StatusCreated, map[string]any{"unit": created})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /properties/{propertyID}/units/{unitID}/assign                         |
| POST /properties/{propertyID}/units/{unitID}/vacate                         |
*─────────────────────────────────────────────────────────────────────────────*/

type assignRequest struct {
	TenantID string `json:"tenantId"`
}

// HandleAssignUnit moves a tenant into a vacant unit. The vacancy claim
// is atomic; a concurrent assignment loses with 409.
func (h *Handler) HandleAssignUnit(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	propID, ok := h.propertyID(w, r)
	if !ok {
		return
	}
	unitID, ok := h.unitID(w, r)
	if !ok {
		return
	}

	var req assignRequest
	if err := shared.Decode(r, &req); err != nil || strings.TrimSpace(req.TenantID) == "" {
		shared.Error(w, http.StatusBadRequest, "tenantId is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if !h.ownsProperty(ctx, w, u, propID) {
		return
	}

	if err := h.Units.AssignTenant(ctx, unitID, req.TenantID); err != nil {
		switch {
		case errors.Is(err, unitstore.ErrUnitOccupied):
			shared.ErrorCode(w, http.StatusConflict, "unit_occupied", "Unit is already occupied.")
		case errors.Is(err, mongo.ErrNoDocuments):
			shared.Error(w, http.StatusNotFound, "unit not found")
		default:
			h.Log.Error("assign unit failed", zap.Error(err), zap.String("unit_id", unitID.Hex()))
			shared.Error(w, http.StatusInternalServerError, "A server error occurred.")
		}
		return
	}

	shared.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// HandleVacateUnit releases a unit back to vacant.
func (h *Handler) HandleVacateUnit(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	propID, ok := h.propertyID(w, r)
	if !ok {
		return
	}
	unitID, ok := h.unitID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if !h.ownsProperty(ctx, w, u, propID) {
		return
	}

	if err := h.Units.Vacate(ctx, unitID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			shared.Error(w, http.StatusNotFound, "unit not found")
			return
		}
		h.Log.Error("vacate unit failed", zap.Error(err), zap.String("unit_id", unitID.Hex()))
		shared.Error(w, http.StatusInternalServerError, "A server error occurred.")
		return
	}

	shared.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

/*─────────────────────────────────────────────────────────────────────────────*
| helpers                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) propertyID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "propertyID"))
	if err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid property id")
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *Handler) unitID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "unitID"))
	if err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid unit id")
		return primitive.NilObjectID, false
	}
	return id, true
}

// ownsProperty loads the property and rejects callers who are neither
// the owning landlord nor an admin. Writes the error response itself.
func (h *Handler) ownsProperty(ctx context.Context, w http.ResponseWriter, u *auth.SessionUser, id primitive.ObjectID) bool {
	prop, err := h.Properties.GetByID(ctx, id)
	if err != nil {
		h.respondLookupError(w, err, "property")
		return false
	}
	if prop.LandlordID != u.ID && !u.IsAdmin {
		shared.Error(w, http.StatusForbidden, "forbidden")
		return false
	}
	return true
}

func (h *Handler) respondLookupError(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, mongo.ErrNoDocuments) {
		shared.Error(w, http.StatusNotFound, what+" not found")
		return
	}
	h.Log.Error("lookup failed", zap.Error(err))
	shared.Error(w, http.StatusInternalServerError, "A server error occurred.")
}
