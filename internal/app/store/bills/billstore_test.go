package billstore_test

import (
	"testing"
	"time"

	billstore "github.com/dalemusser/casalink/internal/app/store/bills"
	"github.com/dalemusser/casalink/internal/domain/models"
	"github.com/dalemusser/casalink/internal/testutil"
)

func TestStore_MarkPaid(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := billstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	landlord := fx.CreateLandlord(ctx, "Lana Landlord", "lana@example.com")
	tenant := fx.CreateTenant(ctx, "Bea Tenant", "bea@example.com", landlord.ID)
	prop := fx.CreateProperty(ctx, landlord.ID, "1 Main St")
	unit := fx.CreateUnit(ctx, prop.ID, "1A", 1200)
	lease := fx.CreateLease(ctx, unit, tenant.ID, landlord.ID)
	bill := fx.CreateBill(ctx, lease, 1200, time.Now().UTC().AddDate(0, 0, 7))

	if err := store.MarkPaid(ctx, bill.ID); err != nil {
		t.Fatalf("MarkPaid failed: %v", err)
	}

	got, err := store.GetByID(ctx, bill.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.BillPaid {
		t.Errorf("status: got %q, want paid", got.Status)
	}
	if got.PaidAt == nil {
		t.Error("expected PaidAt to be stamped")
	}

	// Paying twice is rejected, not silently overwritten.
	if err := store.MarkPaid(ctx, bill.ID); err != billstore.ErrAlreadyPaid {
		t.Errorf("expected ErrAlreadyPaid, got %v", err)
	}
}

func TestStore_MarkOverdue(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := billstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	landlord := fx.CreateLandlord(ctx, "Lana Landlord", "lana@example.com")
	tenant := fx.CreateTenant(ctx, "Bea Tenant", "bea@example.com", landlord.ID)
	prop := fx.CreateProperty(ctx, landlord.ID, "1 Main St")
	unit := fx.CreateUnit(ctx, prop.ID, "1A", 1200)
	lease := fx.CreateLease(ctx, unit, tenant.ID, landlord.ID)

	past := fx.CreateBill(ctx, lease, 1200, time.Now().UTC().AddDate(0, 0, -3))
	future := fx.CreateBill(ctx, lease, 1200, time.Now().UTC().AddDate(0, 0, 3))

	n, err := store.MarkOverdue(ctx)
	if err != nil {
		t.Fatalf("MarkOverdue failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 bill flipped, got %d", n)
	}

	gotPast, _ := store.GetByID(ctx, past.ID)
	if gotPast.Status != models.BillOverdue {
		t.Errorf("past-due bill status: got %q, want overdue", gotPast.Status)
	}
	gotFuture, _ := store.GetByID(ctx, future.ID)
	if gotFuture.Status != models.BillPending {
		t.Errorf("future bill status: got %q, want pending", gotFuture.Status)
	}
}

func TestStore_OutstandingTotal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := billstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	landlord := fx.CreateLandlord(ctx, "Lana Landlord", "lana@example.com")
	tenant := fx.CreateTenant(ctx, "Bea Tenant", "bea@example.com", landlord.ID)
	prop := fx.CreateProperty(ctx, landlord.ID, "1 Main St")
	unit := fx.CreateUnit(ctx, prop.ID, "1A", 1200)
	lease := fx.CreateLease(ctx, unit, tenant.ID, landlord.ID)

	due := time.Now().UTC().AddDate(0, 0, 7)
	fx.CreateBill(ctx, lease, 1200, due)
	fx.CreateBill(ctx, lease, 80, due)
	paid := fx.CreateBill(ctx, lease, 500, due)
	if err := store.MarkPaid(ctx, paid.ID); err != nil {
		t.Fatalf("MarkPaid failed: %v", err)
	}

	total, err := store.OutstandingTotal(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("OutstandingTotal failed: %v", err)
	}
	if total != 1280 {
		t.Errorf("outstanding total: got %v, want 1280", total)
	}
}
