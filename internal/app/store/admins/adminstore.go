package adminstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/casalink/internal/app/system/normalize"
	"github.com/dalemusser/casalink/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateAdmin = errors.New("an admin record already exists for this user")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("admin_users")}
}

// Create inserts an admin record keyed by the user's identity uid.
func (s *Store) Create(ctx context.Context, a models.AdminUser) (models.AdminUser, error) {
	a.Email = normalize.Email(a.Email)
	a.Name = normalize.Name(a.Name)
	if a.Role == "" {
		a.Role = "super_admin"
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.AdminUser{}, ErrDuplicateAdmin
		}
		return models.AdminUser{}, err
	}
	return a, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (models.AdminUser, error) {
	var a models.AdminUser
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if err != nil {
		return models.AdminUser{}, err
	}
	return a, nil
}

// IsActiveAdmin reports whether an active admin record exists for the
// given uid. A missing record is not an error.
func (s *Store) IsActiveAdmin(ctx context.Context, id string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"_id": id, "is_active": true}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List returns all admin records sorted by email.
func (s *Store) List(ctx context.Context) ([]models.AdminUser, error) {
	cur, err := s.c.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "email", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.AdminUser
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetActive enables or disables an admin record.
func (s *Store) SetActive(ctx context.Context, id string, active bool) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"is_active":  active,
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

// RecordLogin stamps the admin record's last login time.
func (s *Store) RecordLogin(ctx context.Context, id string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"last_login": time.Now().UTC(),
		"updated_at": time.Now().UTC(),
	}})
	return err
}
