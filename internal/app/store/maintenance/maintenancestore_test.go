package maintenancestore_test

import (
	"errors"
	"testing"

	maintenancestore "github.com/dalemusser/casalink/internal/app/store/maintenance"
	"github.com/dalemusser/casalink/internal/domain/models"
	"github.com/dalemusser/casalink/internal/testutil"
)

func setup(t *testing.T) (*maintenancestore.Store, models.MaintenanceRequest, func()) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := maintenancestore.New(db)
	ctx, cancel := testutil.TestContext()

	fx := testutil.NewFixtures(t, db)
	landlord := fx.CreateLandlord(ctx, "Lana Landlord", "lana@example.com")
	tenant := fx.CreateTenant(ctx, "Bea Tenant", "bea@example.com", landlord.ID)
	prop := fx.CreateProperty(ctx, landlord.ID, "1 Main St")
	unit := fx.CreateUnit(ctx, prop.ID, "1A", 1200)

	req, err := store.Create(ctx, models.MaintenanceRequest{
		UnitID:      unit.ID,
		PropertyID:  prop.ID,
		TenantID:    tenant.ID,
		LandlordID:  landlord.ID,
		Title:       "Leaking faucet",
		Description: "Kitchen faucet drips constantly",
		Category:    "plumbing",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return store, req, cancel
}

func TestStore_Create_Defaults(t *testing.T) {
	_, req, cancel := setup(t)
	defer cancel()

	if req.Status != models.RequestOpen {
		t.Errorf("status: got %q, want open", req.Status)
	}
	if req.Priority != models.PriorityNormal {
		t.Errorf("priority: got %q, want normal", req.Priority)
	}
}

func TestStore_Transition_StateMachine(t *testing.T) {
	store, req, cancel := setup(t)
	defer cancel()
	ctx, cancel2 := testutil.TestContext()
	defer cancel2()

	// open -> completed skips the middle states and is rejected.
	err := store.Transition(ctx, req.ID, models.RequestCompleted)
	if !errors.Is(err, maintenancestore.ErrBadTransition) {
		t.Fatalf("expected ErrBadTransition, got %v", err)
	}

	// open -> in-progress -> completed is the legal path.
	if err := store.Transition(ctx, req.ID, models.RequestInProgress); err != nil {
		t.Fatalf("open -> in-progress failed: %v", err)
	}
	if err := store.Transition(ctx, req.ID, models.RequestCompleted); err != nil {
		t.Fatalf("in-progress -> completed failed: %v", err)
	}

	got, err := store.GetByID(ctx, req.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.RequestCompleted {
		t.Errorf("status: got %q, want completed", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("expected CompletedAt to be stamped")
	}

	// Completed is terminal.
	err = store.Transition(ctx, req.ID, models.RequestCancelled)
	if !errors.Is(err, maintenancestore.ErrBadTransition) {
		t.Errorf("expected ErrBadTransition from completed, got %v", err)
	}
}

func TestStore_Assign(t *testing.T) {
	store, req, cancel := setup(t)
	defer cancel()
	ctx, cancel2 := testutil.TestContext()
	defer cancel2()

	if err := store.Assign(ctx, req.ID, "Ace Plumbing", 150); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}

	got, err := store.GetByID(ctx, req.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.RequestAssigned {
		t.Errorf("status: got %q, want assigned", got.Status)
	}
	if got.AssignedTo != "Ace Plumbing" {
		t.Errorf("assigned to: got %q", got.AssignedTo)
	}
	if got.EstimatedCost != 150 {
		t.Errorf("estimated cost: got %v", got.EstimatedCost)
	}

	// Assigning twice is rejected.
	if err := store.Assign(ctx, req.ID, "Other Crew", 0); !errors.Is(err, maintenancestore.ErrBadTransition) {
		t.Errorf("expected ErrBadTransition, got %v", err)
	}
}
