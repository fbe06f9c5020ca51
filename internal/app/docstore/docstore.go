// internal/app/docstore/docstore.go

// Package docstore is the thin adapter between CasaLink and its Mongo
// document collections. It exposes get/set/update keyed by collection
// and document id, plus the typed directories the session core needs.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/casalink/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no document exists for the id.
	ErrNotFound = errors.New("document not found")

	// ErrUnavailable wraps driver/network failures.
	ErrUnavailable = errors.New("document store unavailable")
)

// Store adapts a Mongo database to the get/set/update surface the
// session core and provisioning flows work against.
type Store struct {
	db *mongo.Database
}

// New creates a Store over the given database.
func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

// Get decodes the document with the given id into out.
func (s *Store) Get(ctx context.Context, collection, id string, out any) error {
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if err == mongo.ErrNoDocuments {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: get %s/%s: %v", ErrUnavailable, collection, id, err)
	}
	return nil
}

// Set writes the full document under the given id, replacing any
// existing document.
func (s *Store) Set(ctx context.Context, collection, id string, doc any) error {
	opts := options.Replace().SetUpsert(true)
	_, err := s.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, doc, opts)
	if err != nil {
		return fmt.Errorf("%w: set %s/%s: %v", ErrUnavailable, collection, id, err)
	}
	return nil
}

// Update applies a partial $set to the document with the given id.
func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	res, err := s.db.Collection(collection).UpdateOne(ctx,
		bson.M{"_id": id}, bson.M{"$set": bson.M(fields)})
	if err != nil {
		return fmt.Errorf("%w: update %s/%s: %v", ErrUnavailable, collection, id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Typed directories for the session core                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// Users returns the users directory view of the store.
func (s *Store) Users() *Users { return &Users{s: s} }

// Admins returns the admin_users directory view of the store.
func (s *Store) Admins() *Admins { return &Admins{s: s} }

// Users reads and writes user records in the users collection.
type Users struct {
	s *Store
}

// Get loads a user record by identity uid.
func (u *Users) Get(ctx context.Context, id string) (*models.User, error) {
	var rec models.User
	if err := u.s.Get(ctx, "users", id, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Put writes a full user record keyed by identity uid.
func (u *Users) Put(ctx context.Context, id string, rec models.User) error {
	rec.ID = id
	return u.s.Set(ctx, "users", id, rec)
}

// Update applies a partial update to a user record.
func (u *Users) Update(ctx context.Context, id string, fields map[string]any) error {
	fields["updated_at"] = time.Now().UTC()
	return u.s.Update(ctx, "users", id, fields)
}

// Admins answers the single question the session core asks of the
// admin_users collection.
type Admins struct {
	s *Store
}

// IsActiveAdmin reports whether an active admin record exists for the
// identity uid. A missing record is not an error.
func (a *Admins) IsActiveAdmin(ctx context.Context, id string) (bool, error) {
	var rec models.AdminUser
	err := a.s.Get(ctx, "admin_users", id, &rec)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return rec.IsActive, nil
}
