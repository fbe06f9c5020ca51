package propertystore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/casalink/internal/app/system/paging"
	"github.com/dalemusser/casalink/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrInvalidProperty = errors.New("property failed validation")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("properties")}
}

func (s *Store) Create(ctx context.Context, p models.Property) (models.Property, error) {
	if errs := p.Validate(); len(errs) > 0 {
		return models.Property{}, validationErr(errs)
	}
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Property{}, err
	}
	return p, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Property, error) {
	var p models.Property
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		return models.Property{}, err
	}
	return p, nil
}

// ListByLandlord returns a landlord's properties sorted by address.
func (s *Store) ListByLandlord(ctx context.Context, landlordID string) ([]models.Property, error) {
	cur, err := s.c.Find(ctx, bson.M{"landlord_id": landlordID},
		options.Find().SetSort(bson.D{{Key: "address", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Property
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByLandlordPaged returns one keyset page of a landlord's
// properties sorted by address. The slice holds up to PageSize+1 rows;
// callers run it through paging.TrimPage. Rows arrive in reverse order
// when paging backward.
func (s *Store) ListByLandlordPaged(ctx context.Context, landlordID string, cfg paging.KeysetConfig) ([]models.Property, error) {
	filter := bson.M{"landlord_id": landlordID}
	if window := cfg.KeysetWindow("address"); window != nil {
		filter = bson.M{"$and": bson.A{filter, window}}
	}

	find := options.Find()
	cfg.ApplyToFind(find, "address")

	cur, err := s.c.Find(ctx, filter, find)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Property
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update modifies a property's mutable fields and refreshes UpdatedAt.
// Only the owning landlord's documents are matched.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, landlordID string, p models.Property) error {
	set := bson.M{
		"updated_at": time.Now().UTC(),
	}
	if p.Name != "" {
		set["name"] = p.Name
	}
	if p.Address != "" {
		set["address"] = p.Address
	}
	if p.City != "" {
		set["city"] = p.City
	}
	if p.State != "" {
		set["state"] = p.State
	}
	if p.ZipCode != "" {
		set["zip_code"] = p.ZipCode
	}
	if p.PropertyType != "" {
		set["property_type"] = p.PropertyType
	}
	if p.TotalUnits > 0 {
		set["total_units"] = p.TotalUnits
	}
	if p.MonthlyRate > 0 {
		set["monthly_rate"] = p.MonthlyRate
	}
	if p.Description != "" {
		set["description"] = p.Description
	}
	if p.Amenities != nil {
		set["amenities"] = p.Amenities
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "landlord_id": landlordID},
		bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a property owned by the landlord. Returns the number of
// documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID, landlordID string) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "landlord_id": landlordID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountByLandlord returns the number of properties a landlord owns.
func (s *Store) CountByLandlord(ctx context.Context, landlordID string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"landlord_id": landlordID})
}

func validationErr(errs []string) error {
	return errors.New("property failed validation: " + strings.Join(errs, "; "))
}
