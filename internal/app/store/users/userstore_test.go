package userstore_test

import (
	"testing"

	userstore "github.com/dalemusser/casalink/internal/app/store/users"
	"github.com/dalemusser/casalink/internal/domain/models"
	"github.com/dalemusser/casalink/internal/testutil"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := models.User{
		ID:    uuid.NewString(),
		Email: "  Lana@Example.COM ",
		Name:  "  Lana Landlord ",
		Role:  "Landlord",
	}

	created, err := store.Create(ctx, u)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Verify normalized fields
	if created.Email != "lana@example.com" {
		t.Errorf("email not normalized: %q", created.Email)
	}
	if created.Name != "Lana Landlord" {
		t.Errorf("name not trimmed: %q", created.Name)
	}
	if created.Role != models.RoleLandlord {
		t.Errorf("role not normalized: %q", created.Role)
	}
	if created.Status != "active" {
		t.Errorf("expected default status 'active', got %q", created.Status)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestStore_Create_BadRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.User{
		ID:    uuid.NewString(),
		Email: "x@example.com",
		Role:  "superuser",
	})
	if err == nil {
		t.Fatal("expected an error for an unknown role")
	}
}

func TestStore_GetByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	created := fx.CreateLandlord(ctx, "Lana Landlord", "lana@example.com")

	got, err := store.GetByEmail(ctx, "LANA@example.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("got user %q, want %q", got.ID, created.ID)
	}

	if _, err := store.GetByEmail(ctx, "missing@example.com"); err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments, got %v", err)
	}
}

func TestStore_ListTenantsByLandlord(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	landlord := fx.CreateLandlord(ctx, "Lana Landlord", "lana@example.com")
	other := fx.CreateLandlord(ctx, "Oscar Owner", "oscar@example.com")
	fx.CreateTenant(ctx, "Bea Tenant", "bea@example.com", landlord.ID)
	fx.CreateTenant(ctx, "Abe Tenant", "abe@example.com", landlord.ID)
	fx.CreateTenant(ctx, "Cal Tenant", "cal@example.com", other.ID)

	tenants, err := store.ListTenantsByLandlord(ctx, landlord.ID)
	if err != nil {
		t.Fatalf("ListTenantsByLandlord failed: %v", err)
	}
	if len(tenants) != 2 {
		t.Fatalf("expected 2 tenants, got %d", len(tenants))
	}
	// Sorted by name.
	if tenants[0].Name != "Abe Tenant" || tenants[1].Name != "Bea Tenant" {
		t.Errorf("unexpected order: %q, %q", tenants[0].Name, tenants[1].Name)
	}
}

func TestStore_GetTenantByID_RejectsOtherRoles(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	landlord := fx.CreateLandlord(ctx, "Lana Landlord", "lana@example.com")

	if _, err := store.GetTenantByID(ctx, landlord.ID); err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments for a landlord, got %v", err)
	}
}

func TestStore_UpdateProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	landlord := fx.CreateLandlord(ctx, "Lana Landlord", "lana@example.com")
	tenant := fx.CreateTenant(ctx, "Bea Tenant", "bea@example.com", landlord.ID)

	err := store.UpdateProfile(ctx, tenant.ID, userstore.ProfileUpdate{
		Name:       "  Beatrice Tenant ",
		Phone:      "555-0100",
		Occupation: "engineer",
		Age:        31,
	})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}

	got, err := store.GetByID(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "Beatrice Tenant" {
		t.Errorf("name: got %q", got.Name)
	}
	if got.Phone != "555-0100" || got.Occupation != "engineer" || got.Age != 31 {
		t.Errorf("profile fields not updated: %+v", got)
	}
}
