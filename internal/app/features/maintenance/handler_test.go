package maintenance_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/casalink/internal/app/features/maintenance"
	maintenancestore "github.com/dalemusser/casalink/internal/app/store/maintenance"
	propertystore "github.com/dalemusser/casalink/internal/app/store/properties"
	unitstore "github.com/dalemusser/casalink/internal/app/store/units"
	"github.com/dalemusser/casalink/internal/app/system/auth"
	"github.com/dalemusser/casalink/internal/domain/models"
	"github.com/dalemusser/casalink/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*maintenance.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	h := maintenance.NewHandler(
		maintenancestore.New(db), unitstore.New(db), propertystore.New(db), zap.NewNop())
	return h, db
}

func asLandlord(r *http.Request) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID: "landlord-1", Name: "Lana", Role: models.RoleLandlord,
	})
}

func asTenant(id string, r *http.Request) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID: id, Name: "Terry", Role: models.RoleTenant,
	})
}

// seedOccupiedUnit houses tenant-1 in one of landlord-1's units.
func seedOccupiedUnit(t *testing.T, db *mongo.Database) models.Unit {
	t.Helper()
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	prop := fx.CreateProperty(ctx, "landlord-1", "12 Oak Street")
	unit := fx.CreateUnit(ctx, prop.ID, "1A", 950)
	if err := unitstore.New(db).AssignTenant(ctx, unit.ID, "tenant-1"); err != nil {
		t.Fatalf("assign tenant: %v", err)
	}
	return unit
}

func fileRequest(t *testing.T, h *maintenance.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := asTenant("tenant-1", httptest.NewRequest("POST", "/maintenance", strings.NewReader(body)))
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)
	return rec
}

func TestHandleCreate_DerivesPartiesFromOccupancy(t *testing.T) {
	h, db := newTestHandler(t)
	unit := seedOccupiedUnit(t, db)

	rec := fileRequest(t, h,
		`{"title":"Leaking faucet","description":"Kitchen sink drips","category":"plumbing","priority":"normal"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Request models.MaintenanceRequest `json:"request"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Request.UnitID != unit.ID {
		t.Errorf("unitId not derived from occupancy")
	}
	if resp.Request.LandlordID != "landlord-1" {
		t.Errorf("landlordId = %q, want landlord-1", resp.Request.LandlordID)
	}
	if resp.Request.Status != models.RequestOpen {
		t.Errorf("status = %q, want open", resp.Request.Status)
	}
}

func TestHandleCreate_SanitizesFreeText(t *testing.T) {
	h, db := newTestHandler(t)
	seedOccupiedUnit(t, db)

	rec := fileRequest(t, h,
		`{"title":"Broken <script>alert(1)</script> window","description":"Glass cracked","category":"structural","priority":"high"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Request models.MaintenanceRequest `json:"request"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if strings.Contains(resp.Request.Title, "<script>") {
		t.Errorf("title not sanitized: %q", resp.Request.Title)
	}
	if !strings.Contains(resp.Request.Title, "window") {
		t.Errorf("title lost its content: %q", resp.Request.Title)
	}
}

func TestHandleCreate_NoUnitAssigned(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := fileRequest(t, h,
		`{"title":"Leak","description":"Drip","category":"plumbing","priority":"normal"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409; body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "no_unit") {
		t.Errorf("missing no_unit code: %s", rec.Body.String())
	}
}

func TestHandleCreate_RejectsBadPriority(t *testing.T) {
	h, db := newTestHandler(t)
	seedOccupiedUnit(t, db)

	rec := fileRequest(t, h,
		`{"title":"Leak","description":"Drip","category":"plumbing","priority":"whenever"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleList_ScopedByRole(t *testing.T) {
	h, db := newTestHandler(t)
	seedOccupiedUnit(t, db)

	rec := fileRequest(t, h,
		`{"title":"Leak","description":"Drip","category":"plumbing","priority":"normal"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed request: status = %d", rec.Code)
	}

	decode := func(rec *httptest.ResponseRecorder) []models.MaintenanceRequest {
		t.Helper()
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			Requests []models.MaintenanceRequest `json:"requests"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		return resp.Requests
	}

	out := httptest.NewRecorder()
	h.HandleList(out, asLandlord(httptest.NewRequest("GET", "/maintenance?open=true", nil)))
	if got := decode(out); len(got) != 1 {
		t.Errorf("landlord open list: %d requests, want 1", len(got))
	}

	out = httptest.NewRecorder()
	h.HandleList(out, asTenant("tenant-2", httptest.NewRequest("GET", "/maintenance", nil)))
	if got := decode(out); len(got) != 0 {
		t.Errorf("other tenant sees %d requests, want 0", len(got))
	}
}

func TestHandleStatus_Lifecycle(t *testing.T) {
	h, db := newTestHandler(t)
	seedOccupiedUnit(t, db)

	rec := fileRequest(t, h,
		`{"title":"Leak","description":"Drip","category":"plumbing","priority":"normal"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed request: status = %d", rec.Code)
	}
	var created struct {
		Request models.MaintenanceRequest `json:"request"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	id := created.Request.ID

	landlordMove := func(status string) *httptest.ResponseRecorder {
		body := `{"status":"` + status + `"}`
		req := asLandlord(httptest.NewRequest("POST", "/maintenance/"+id.Hex()+"/status",
			strings.NewReader(body)))
		req = testutil.WithChiURLParam(req, "requestID", id.Hex())
		out := httptest.NewRecorder()
		h.HandleStatus(out, req)
		return out
	}

	// open -> completed skips the state machine.
	if out := landlordMove(models.RequestCompleted); out.Code != http.StatusConflict {
		t.Fatalf("open->completed: status = %d, want 409; body %s", out.Code, out.Body.String())
	}
	if out := landlordMove(models.RequestInProgress); out.Code != http.StatusOK {
		t.Fatalf("open->in-progress: status = %d; body %s", out.Code, out.Body.String())
	}
	if out := landlordMove(models.RequestCompleted); out.Code != http.StatusOK {
		t.Fatalf("in-progress->completed: status = %d; body %s", out.Code, out.Body.String())
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	got, err := maintenancestore.New(db).GetByID(ctx, id)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.Status != models.RequestCompleted || got.CompletedAt == nil {
		t.Errorf("request = %q/completedAt=%v, want completed with timestamp", got.Status, got.CompletedAt)
	}
}

func TestHandleStatus_TenantMayOnlyCancel(t *testing.T) {
	h, db := newTestHandler(t)
	seedOccupiedUnit(t, db)

	rec := fileRequest(t, h,
		`{"title":"Leak","description":"Drip","category":"plumbing","priority":"normal"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed request: status = %d", rec.Code)
	}
	var created struct {
		Request models.MaintenanceRequest `json:"request"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	id := created.Request.ID

	move := func(tenantID, status string) *httptest.ResponseRecorder {
		body := `{"status":"` + status + `"}`
		req := asTenant(tenantID, httptest.NewRequest("POST", "/maintenance/"+id.Hex()+"/status",
			strings.NewReader(body)))
		req = testutil.WithChiURLParam(req, "requestID", id.Hex())
		out := httptest.NewRecorder()
		h.HandleStatus(out, req)
		return out
	}

	if out := move("tenant-1", models.RequestInProgress); out.Code != http.StatusForbidden {
		t.Errorf("tenant advancing work: status = %d, want 403", out.Code)
	}
	if out := move("tenant-2", models.RequestCancelled); out.Code != http.StatusForbidden {
		t.Errorf("stranger cancelling: status = %d, want 403", out.Code)
	}
	if out := move("tenant-1", models.RequestCancelled); out.Code != http.StatusOK {
		t.Errorf("filer cancelling: status = %d, want 200; body %s", out.Code, out.Body.String())
	}
}

func TestHandleAssign_OpenRequestOnly(t *testing.T) {
	h, db := newTestHandler(t)
	seedOccupiedUnit(t, db)

	rec := fileRequest(t, h,
		`{"title":"Leak","description":"Drip","category":"plumbing","priority":"normal"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed request: status = %d", rec.Code)
	}
	var created struct {
		Request models.MaintenanceRequest `json:"request"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	id := created.Request.ID

	assign := func() *httptest.ResponseRecorder {
		body := `{"assignedTo":"Ace Plumbing","estimatedCost":150}`
		req := asLandlord(httptest.NewRequest("POST", "/maintenance/"+id.Hex()+"/assign",
			strings.NewReader(body)))
		req = testutil.WithChiURLParam(req, "requestID", id.Hex())
		out := httptest.NewRecorder()
		h.HandleAssign(out, req)
		return out
	}

	if out := assign(); out.Code != http.StatusOK {
		t.Fatalf("assign: status = %d; body %s", out.Code, out.Body.String())
	}
	if out := assign(); out.Code != http.StatusConflict {
		t.Errorf("second assign: status = %d, want 409", out.Code)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	got, err := maintenancestore.New(db).GetByID(ctx, id)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.Status != models.RequestAssigned || got.AssignedTo != "Ace Plumbing" {
		t.Errorf("request = %q/%q, want assigned/Ace Plumbing", got.Status, got.AssignedTo)
	}
	if got.EstimatedCost != 150 {
		t.Errorf("estimatedCost = %v, want 150", got.EstimatedCost)
	}
}
