package adminstore_test

import (
	"testing"

	adminstore "github.com/dalemusser/casalink/internal/app/store/admins"
	"github.com/dalemusser/casalink/internal/app/system/indexes"
	"github.com/dalemusser/casalink/internal/domain/models"
	"github.com/dalemusser/casalink/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestCreate_NormalizesAndDefaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := adminstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.AdminUser{
		ID:       "uid-1",
		Email:    "  Admin@CasaLink.com ",
		Name:     "  Pat  Admin ",
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Email != "admin@casalink.com" {
		t.Errorf("Email = %q, want normalized", created.Email)
	}
	if created.Role != "super_admin" {
		t.Errorf("Role = %q, want default super_admin", created.Role)
	}

	got, err := store.GetByID(ctx, "uid-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Email != "admin@casalink.com" {
		t.Errorf("stored Email = %q, want normalized", got.Email)
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// The unique email index backs the duplicate check.
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	store := adminstore.New(db)
	if _, err := store.Create(ctx, models.AdminUser{
		ID: "uid-1", Email: "admin@casalink.com", IsActive: true,
	}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	_, err := store.Create(ctx, models.AdminUser{
		ID: "uid-2", Email: "ADMIN@casalink.com", IsActive: true,
	})
	if err != adminstore.ErrDuplicateAdmin {
		t.Errorf("err = %v, want ErrDuplicateAdmin", err)
	}
}

func TestIsActiveAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := adminstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateAdminRecord(ctx, "uid-1", "admin@casalink.com")

	ok, err := store.IsActiveAdmin(ctx, "uid-1")
	if err != nil {
		t.Fatalf("IsActiveAdmin failed: %v", err)
	}
	if !ok {
		t.Error("active admin reported inactive")
	}

	// A missing record is a plain false, never an error.
	ok, err = store.IsActiveAdmin(ctx, "uid-nobody")
	if err != nil {
		t.Fatalf("IsActiveAdmin for missing uid failed: %v", err)
	}
	if ok {
		t.Error("missing record reported as active admin")
	}

	// A disabled record is also false.
	if err := store.SetActive(ctx, "uid-1", false); err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}
	ok, err = store.IsActiveAdmin(ctx, "uid-1")
	if err != nil {
		t.Fatalf("IsActiveAdmin after disable failed: %v", err)
	}
	if ok {
		t.Error("disabled admin reported as active")
	}
}

func TestSetActive_MissingRecord(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := adminstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.SetActive(ctx, "uid-nobody", true); err != mongo.ErrNoDocuments {
		t.Errorf("err = %v, want ErrNoDocuments", err)
	}
}

func TestList_SortedByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := adminstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateAdminRecord(ctx, "uid-2", "zoe@casalink.com")
	fx.CreateAdminRecord(ctx, "uid-1", "ana@casalink.com")

	got, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].Email != "ana@casalink.com" || got[1].Email != "zoe@casalink.com" {
		t.Errorf("wrong order: %q, %q", got[0].Email, got[1].Email)
	}
}

func TestRecordLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := adminstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateAdminRecord(ctx, "uid-1", "admin@casalink.com")

	if err := store.RecordLogin(ctx, "uid-1"); err != nil {
		t.Fatalf("RecordLogin failed: %v", err)
	}
	got, err := store.GetByID(ctx, "uid-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.LastLogin == nil || got.LastLogin.IsZero() {
		t.Error("LastLogin not stamped")
	}
}
