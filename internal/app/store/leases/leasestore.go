package leasestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/casalink/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

// ErrActiveLeaseExists is returned when creating an active lease for a
// unit that already has one.
var ErrActiveLeaseExists = errors.New("unit already has an active lease")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("leases")}
}

func (s *Store) Create(ctx context.Context, l models.Lease) (models.Lease, error) {
	if errs := l.Validate(); len(errs) > 0 {
		return models.Lease{}, errors.New("lease failed validation: " + strings.Join(errs, "; "))
	}
	if l.Status == "" {
		l.Status = models.LeasePending
	}

	// One active lease per unit at a time.
	if l.Status == models.LeaseActive {
		existing, err := s.ActiveForUnit(ctx, l.UnitID)
		if err != nil && err != mongo.ErrNoDocuments {
			return models.Lease{}, err
		}
		if existing != nil {
			return models.Lease{}, ErrActiveLeaseExists
		}
	}

	now := time.Now().UTC()
	l.ID = primitive.NewObjectID()
	l.CreatedAt = now
	l.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, l); err != nil {
		return models.Lease{}, err
	}
	return l, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Lease, error) {
	var l models.Lease
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&l)
	if err != nil {
		return models.Lease{}, err
	}
	return l, nil
}

// ActiveForUnit returns the unit's active lease, or mongo.ErrNoDocuments.
func (s *Store) ActiveForUnit(ctx context.Context, unitID primitive.ObjectID) (*models.Lease, error) {
	var l models.Lease
	err := s.c.FindOne(ctx, bson.M{"unit_id": unitID, "status": models.LeaseActive}).Decode(&l)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ListByLandlord returns a landlord's leases, newest first.
func (s *Store) ListByLandlord(ctx context.Context, landlordID string) ([]models.Lease, error) {
	return s.find(ctx, bson.M{"landlord_id": landlordID})
}

// ListByTenant returns a tenant's leases, newest first.
func (s *Store) ListByTenant(ctx context.Context, tenantID string) ([]models.Lease, error) {
	return s.find(ctx, bson.M{"tenant_id": tenantID})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Lease, error) {
	cur, err := s.c.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "start_date", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Lease
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Activate moves a pending lease to active, enforcing the one-active-
// lease-per-unit rule.
func (s *Store) Activate(ctx context.Context, id primitive.ObjectID) error {
	l, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	existing, err := s.ActiveForUnit(ctx, l.UnitID)
	if err != nil && err != mongo.ErrNoDocuments {
		return err
	}
	if existing != nil && existing.ID != id {
		return ErrActiveLeaseExists
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.LeasePending},
		bson.M{"$set": bson.M{"status": models.LeaseActive, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// End closes a lease and stamps its end date if not already set.
func (s *Store) End(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$ne": models.LeaseEnded}},
		bson.M{"$set": bson.M{
			"status":     models.LeaseEnded,
			"end_date":   now,
			"updated_at": now,
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ExpiringSoon returns a landlord's active leases ending within the
// window, soonest first.
func (s *Store) ExpiringSoon(ctx context.Context, landlordID string, window time.Duration) ([]models.Lease, error) {
	now := time.Now().UTC()
	cur, err := s.c.Find(ctx, bson.M{
		"landlord_id": landlordID,
		"status":      models.LeaseActive,
		"end_date":    bson.M{"$gt": now, "$lte": now.Add(window)},
	}, options.Find().SetSort(bson.D{{Key: "end_date", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Lease
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
