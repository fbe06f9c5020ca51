// internal/app/features/tenants/handler.go
package tenants

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/casalink/internal/app/features/shared"
	"github.com/dalemusser/casalink/internal/app/session"
	"github.com/dalemusser/casalink/internal/app/system/auth"
	"github.com/dalemusser/casalink/internal/app/system/authz"
	"github.com/dalemusser/casalink/internal/app/system/timeouts"
	"github.com/dalemusser/casalink/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Provisioner is the slice of the session manager that creates tenant
// accounts on behalf of a landlord.
type Provisioner interface {
	CreateTenantAccount(ctx context.Context, data session.TenantData, temporaryPassword, landlordPassword string) (*session.ProvisionResult, error)
}

// Directory is the slice of the user store the roster endpoints read.
type Directory interface {
	ListTenantsByLandlord(ctx context.Context, landlordID string) ([]models.User, error)
	GetTenantByID(ctx context.Context, id string) (*models.User, error)
}

type Handler struct {
	Log         *zap.Logger
	Provisioner Provisioner
	Users       Directory
}

func NewHandler(prov Provisioner, users Directory, logger *zap.Logger) *Handler {
	return &Handler{
		Log:         logger,
		Provisioner: prov,
		Users:       users,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /tenants                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleList returns the signed-in landlord's tenant roster.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "not signed in")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Users.ListTenantsByLandlord(ctx, u.ID)
	if err != nil {
		h.Log.Error("list tenants failed", zap.Error(err), zap.String("landlord_id", u.ID))
		shared.Error(w, http.StatusInternalServerError, "A server error occurred.")
		return
	}
	if list == nil {
		list = []models.User{}
	}
	shared.JSON(w, http.StatusOK, map[string]any{"tenants": list})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /tenants/{tenantID}                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleGet returns one tenant. Landlords see only their own tenants;
// admins see any.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	if tenantID == "" {
		shared.Error(w, http.StatusBadRequest, "missing tenant id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	tenant, err := h.Users.GetTenantByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			shared.Error(w, http.StatusNotFound, "tenant not found")
			return
		}
		h.Log.Error("get tenant failed", zap.Error(err), zap.String("tenant_id", tenantID))
		shared.Error(w, http.StatusInternalServerError, "A server error occurred.")
		return
	}

	if !authz.CanViewTenant(r, tenant.ID, tenant.LandlordID) {
		shared.Error(w, http.StatusForbidden, "forbidden")
		return
	}

	shared.JSON(w, http.StatusOK, map[string]any{"tenant": tenant})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /tenants                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type createRequest struct {
	Email             string `json:"email"`
	Name              string `json:"name"`
	Phone             string `json:"phone"`
	Occupation        string `json:"occupation"`
	Age               int    `json:"age"`
	RoomNumber        string `json:"roomNumber"`
	RentalAddress     string `json:"rentalAddress"`
	TemporaryPassword string `json:"temporaryPassword"`
	LandlordPassword  string `json:"landlordPassword"`
}

// createResponse discloses the temporary password exactly once, in the
// provisioning response.
type createResponse struct {
	TenantID          string `json:"tenantId"`
	Email             string `json:"email"`
	Name              string `json:"name"`
	TemporaryPassword string `json:"temporaryPassword"`

	// LandlordSessionLost is set when the tenant was created but the
	// landlord's identity session could not be restored; the client must
	// send the landlord back to the login screen.
	LandlordSessionLost bool `json:"landlordSessionLost,omitempty"`
}

// HandleCreate provisions a tenant account for the signed-in landlord.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	switch {
	case req.Email == "":
		shared.Error(w, http.StatusBadRequest, "email is required")
		return
	case req.TemporaryPassword == "":
		shared.Error(w, http.StatusBadRequest, "temporaryPassword is required")
		return
	case req.LandlordPassword == "":
		shared.Error(w, http.StatusBadRequest, "landlordPassword is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	res, err := h.Provisioner.CreateTenantAccount(ctx, session.TenantData{
		Email:         req.Email,
		Name:          req.Name,
		Phone:         req.Phone,
		Occupation:    req.Occupation,
		Age:           req.Age,
		RoomNumber:    req.RoomNumber,
		RentalAddress: req.RentalAddress,
	}, req.TemporaryPassword, req.LandlordPassword)
	if err != nil {
		h.respondCreateError(w, r, res, err)
		return
	}

	shared.JSON(w, http.StatusCreated, createResponse{
		TenantID:          res.TenantID,
		Email:             res.Email,
		Name:              res.Name,
		TemporaryPassword: res.TemporaryPassword,
	})
}

func (h *Handler) respondCreateError(w http.ResponseWriter, r *http.Request, res *session.ProvisionResult, err error) {
	var partial *session.PartialProvisioningError
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		shared.Error(w, http.StatusUnauthorized, "landlord session required")
	case errors.Is(err, session.ErrAuthorizationFailed):
		shared.ErrorCode(w, http.StatusForbidden, "wrong_landlord_password", "Landlord password is incorrect.")
	case errors.Is(err, session.ErrEmailAlreadyInUse):
		shared.ErrorCode(w, http.StatusConflict, "email_in_use", "An account with that email already exists.")
	case errors.As(err, &partial):
		// The tenant exists; only the hand-back failed. The cookie session
		// no longer matches an identity session, so drop it.
		h.Log.Error("landlord session lost after tenant creation",
			zap.String("tenant_id", partial.TenantID), zap.Error(err))
		if clearErr := auth.Clear(w, r); clearErr != nil {
			h.Log.Warn("clear cookie session failed", zap.Error(clearErr))
		}
		shared.JSON(w, http.StatusBadGateway, createResponse{
			TenantID:            res.TenantID,
			Email:               res.Email,
			Name:                res.Name,
			TemporaryPassword:   res.TemporaryPassword,
			LandlordSessionLost: true,
		})
	default:
		h.Log.Error("tenant provisioning failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "A server error occurred.")
	}
}
