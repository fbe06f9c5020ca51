package userstore

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

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New(`role must be "tenant"|"landlord"|"admin"`)
)

// GetByID loads a user by identity uid.
func (s *Store) GetByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetTenantByID loads a user by uid, returning an error if the user does
// not exist or is not a tenant.
func (s *Store) GetTenantByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "role": models.RoleTenant}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user after normalizing and validating fields.
// The caller supplies the identity uid as the document ID.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.Email = normalize.Email(u.Email)
	u.Name = normalize.Name(u.Name)
	u.Role = normalize.Role(u.Role)
	u.Status = normalize.Status(u.Status)

	if !models.ValidRole(u.Role) {
		return models.User{}, errBadRole
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// ProfileUpdate holds the profile fields a user can edit themselves.
type ProfileUpdate struct {
	Name       string
	Phone      string
	Occupation string
	Age        int
}

// UpdateProfile updates a user's editable profile fields.
func (s *Store) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) error {
	set := bson.M{
		"name":       normalize.Name(upd.Name),
		"phone":      upd.Phone,
		"updated_at": time.Now().UTC(),
	}
	if upd.Occupation != "" {
		set["occupation"] = upd.Occupation
	}
	if upd.Age > 0 {
		set["age"] = upd.Age
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	return err
}

// ListTenantsByLandlord returns the tenants provisioned by a landlord,
// sorted by name for stable listing.
func (s *Store) ListTenantsByLandlord(ctx context.Context, landlordID string) ([]models.User, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"role": models.RoleTenant, "landlord_id": landlordID},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetStatus flips a user's status (active, unverified, disabled).
func (s *Store) SetStatus(ctx context.Context, id, status string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":     normalize.Status(status),
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// EmailExistsForOther checks if an email already exists for a user other than the given ID.
func (s *Store) EmailExistsForOther(ctx context.Context, email, excludeID string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"email": normalize.Email(email),
		"_id":   bson.M{"$ne": excludeID},
	}).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}

// CountByRole returns the number of users with the given role.
func (s *Store) CountByRole(ctx context.Context, role string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"role": normalize.Role(role)})
}
