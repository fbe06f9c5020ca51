package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/casalink/internal/app/system/normalize"
	"github.com/dalemusser/casalink/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user with the given role, keyed by a fresh uid.
func (f *Fixtures) CreateUser(ctx context.Context, name, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:        uuid.NewString(),
		Email:     normalize.Email(email),
		Name:      normalize.Name(name),
		Role:      role,
		IsActive:  true,
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateLandlord inserts a landlord user.
func (f *Fixtures) CreateLandlord(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, email, models.RoleLandlord)
}

// CreateTenant inserts a tenant user provisioned by the given landlord.
func (f *Fixtures) CreateTenant(ctx context.Context, name, email, landlordID string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:                   uuid.NewString(),
		Email:                normalize.Email(email),
		Name:                 normalize.Name(name),
		Role:                 models.RoleTenant,
		LandlordID:           landlordID,
		HasTemporaryPassword: true,
		IsActive:             true,
		Status:               "unverified",
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test tenant: %v", err)
	}
	return user
}

// CreateAdminRecord inserts an active admin_users record for a uid.
func (f *Fixtures) CreateAdminRecord(ctx context.Context, uid, email string) models.AdminUser {
	f.t.Helper()

	now := time.Now().UTC()
	admin := models.AdminUser{
		ID:        uid,
		Email:     normalize.Email(email),
		Name:      "Test Admin",
		Role:      "super_admin",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("admin_users").InsertOne(ctx, admin); err != nil {
		f.t.Fatalf("failed to create test admin record: %v", err)
	}
	return admin
}

// CreateProperty inserts a property owned by the landlord.
func (f *Fixtures) CreateProperty(ctx context.Context, landlordID, address string) models.Property {
	f.t.Helper()

	now := time.Now().UTC()
	prop := models.Property{
		ID:           primitive.NewObjectID(),
		LandlordID:   landlordID,
		Address:      address,
		City:         "Test City",
		State:        "TS",
		PropertyType: "apartment",
		TotalUnits:   4,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := f.db.Collection("properties").InsertOne(ctx, prop); err != nil {
		f.t.Fatalf("failed to create test property: %v", err)
	}
	return prop
}

// CreateUnit inserts a vacant unit in the property.
func (f *Fixtures) CreateUnit(ctx context.Context, propertyID primitive.ObjectID, number string, rent float64) models.Unit {
	f.t.Helper()

	now := time.Now().UTC()
	unit := models.Unit{
		ID:            primitive.NewObjectID(),
		PropertyID:    propertyID,
		UnitNumber:    number,
		BedroomCount:  2,
		BathroomCount: 1,
		RentAmount:    rent,
		Status:        models.UnitVacant,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := f.db.Collection("units").InsertOne(ctx, unit); err != nil {
		f.t.Fatalf("failed to create test unit: %v", err)
	}
	return unit
}

// CreateLease inserts an active lease binding a tenant to a unit.
func (f *Fixtures) CreateLease(ctx context.Context, unit models.Unit, tenantID, landlordID string) models.Lease {
	f.t.Helper()

	now := time.Now().UTC()
	end := now.AddDate(1, 0, 0)
	lease := models.Lease{
		ID:          primitive.NewObjectID(),
		UnitID:      unit.ID,
		PropertyID:  unit.PropertyID,
		TenantID:    tenantID,
		LandlordID:  landlordID,
		StartDate:   now,
		EndDate:     &end,
		MonthlyRent: unit.RentAmount,
		Status:      models.LeaseActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := f.db.Collection("leases").InsertOne(ctx, lease); err != nil {
		f.t.Fatalf("failed to create test lease: %v", err)
	}
	return lease
}

// CreateBill inserts a pending bill against the lease.
func (f *Fixtures) CreateBill(ctx context.Context, lease models.Lease, amount float64, due time.Time) models.Bill {
	f.t.Helper()

	now := time.Now().UTC()
	bill := models.Bill{
		ID:         primitive.NewObjectID(),
		LeaseID:    lease.ID,
		TenantID:   lease.TenantID,
		LandlordID: lease.LandlordID,
		Category:   "rent",
		Amount:     amount,
		DueDate:    due,
		Status:     models.BillPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("bills").InsertOne(ctx, bill); err != nil {
		f.t.Fatalf("failed to create test bill: %v", err)
	}
	return bill
}
