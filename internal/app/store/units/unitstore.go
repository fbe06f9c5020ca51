package unitstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/casalink/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	// ErrDuplicateUnit is returned when a unit number already exists within the property.
	ErrDuplicateUnit = errors.New("a unit with this number already exists in the property")
	// ErrUnitOccupied is returned when assigning a tenant to a unit that already has one.
	ErrUnitOccupied = errors.New("unit is already occupied")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("units")}
}

func (s *Store) Create(ctx context.Context, u models.Unit) (models.Unit, error) {
	if errs := u.Validate(); len(errs) > 0 {
		return models.Unit{}, errors.New("unit failed validation: " + strings.Join(errs, "; "))
	}
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	if u.Status == "" {
		u.Status = models.UnitVacant
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Unit{}, ErrDuplicateUnit
		}
		return models.Unit{}, err
	}
	return u, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Unit, error) {
	var u models.Unit
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err != nil {
		return models.Unit{}, err
	}
	return u, nil
}

// ListByProperty returns a property's units sorted by unit number.
func (s *Store) ListByProperty(ctx context.Context, propertyID primitive.ObjectID) ([]models.Unit, error) {
	cur, err := s.c.Find(ctx, bson.M{"property_id": propertyID},
		options.Find().SetSort(bson.D{{Key: "unit_number", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Unit
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByTenant returns the unit currently occupied by the tenant, or
// mongo.ErrNoDocuments when they have none.
func (s *Store) GetByTenant(ctx context.Context, tenantID string) (models.Unit, error) {
	var u models.Unit
	err := s.c.FindOne(ctx, bson.M{"current_tenant_id": tenantID, "status": models.UnitOccupied}).Decode(&u)
	if err != nil {
		return models.Unit{}, err
	}
	return u, nil
}

// AssignTenant marks a vacant unit occupied by the given tenant. The
// status filter makes the claim atomic: a concurrent assignment of the
// same unit matches zero documents.
func (s *Store) AssignTenant(ctx context.Context, id primitive.ObjectID, tenantID string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.UnitVacant},
		bson.M{"$set": bson.M{
			"status":            models.UnitOccupied,
			"current_tenant_id": tenantID,
			"updated_at":        time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Distinguish "occupied" from "missing" for the caller's message.
		if err := s.c.FindOne(ctx, bson.M{"_id": id}).Err(); err != nil {
			return err
		}
		return ErrUnitOccupied
	}
	return nil
}

// Vacate releases a unit back to vacant and clears the tenant link.
func (s *Store) Vacate(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{
			"$set":   bson.M{"status": models.UnitVacant, "updated_at": time.Now().UTC()},
			"$unset": bson.M{"current_tenant_id": ""},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetStatus moves a unit into or out of maintenance.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// CountByStatus returns per-status unit counts for a property set, used
// by the landlord dashboard.
func (s *Store) CountByStatus(ctx context.Context, propertyIDs []primitive.ObjectID) (map[string]int64, error) {
	out := map[string]int64{}
	if len(propertyIDs) == 0 {
		return out, nil
	}
	for _, status := range []string{models.UnitVacant, models.UnitOccupied, models.UnitMaintenance} {
		n, err := s.c.CountDocuments(ctx, bson.M{
			"property_id": bson.M{"$in": propertyIDs},
			"status":      status,
		})
		if err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, nil
}
