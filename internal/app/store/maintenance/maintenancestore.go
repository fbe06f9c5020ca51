package maintenancestore

import (
	"context"
	"errors"
	"fmt"
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

// ErrBadTransition is returned for a status change the request's state
// machine does not allow.
var ErrBadTransition = errors.New("invalid status transition")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("maintenance_requests")}
}

func (s *Store) Create(ctx context.Context, r models.MaintenanceRequest) (models.MaintenanceRequest, error) {
	if r.Priority == "" {
		r.Priority = models.PriorityNormal
	}
	if errs := r.Validate(); len(errs) > 0 {
		return models.MaintenanceRequest{}, errors.New("request failed validation: " + strings.Join(errs, "; "))
	}
	now := time.Now().UTC()
	r.ID = primitive.NewObjectID()
	r.Status = models.RequestOpen
	r.CreatedAt = now
	r.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		return models.MaintenanceRequest{}, err
	}
	return r, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.MaintenanceRequest, error) {
	var r models.MaintenanceRequest
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if err != nil {
		return models.MaintenanceRequest{}, err
	}
	return r, nil
}

// ListByTenant returns a tenant's requests, newest first.
func (s *Store) ListByTenant(ctx context.Context, tenantID string) ([]models.MaintenanceRequest, error) {
	return s.find(ctx, bson.M{"tenant_id": tenantID})
}

// ListByLandlord returns requests against a landlord's units, newest first.
func (s *Store) ListByLandlord(ctx context.Context, landlordID string) ([]models.MaintenanceRequest, error) {
	return s.find(ctx, bson.M{"landlord_id": landlordID})
}

// ListOpenByLandlord returns a landlord's unresolved requests, urgent
// work surfacing first through the created_at sort within status.
func (s *Store) ListOpenByLandlord(ctx context.Context, landlordID string) ([]models.MaintenanceRequest, error) {
	return s.find(ctx, bson.M{
		"landlord_id": landlordID,
		"status": bson.M{"$in": bson.A{
			models.RequestOpen, models.RequestAssigned, models.RequestInProgress,
		}},
	})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.MaintenanceRequest, error) {
	cur, err := s.c.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.MaintenanceRequest
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Transition moves a request to the next status, enforcing the state
// machine. Completing a request stamps CompletedAt.
func (s *Store) Transition(ctx context.Context, id primitive.ObjectID, next string) error {
	r, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !r.ValidTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrBadTransition, r.Status, next)
	}

	now := time.Now().UTC()
	set := bson.M{"status": next, "updated_at": now}
	if next == models.RequestCompleted {
		set["completed_at"] = now
	}

	// Filter on the old status so a concurrent transition loses cleanly.
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": r.Status},
		bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: request changed underneath", ErrBadTransition)
	}
	return nil
}

// Assign hands a request to a contractor or staff member and moves it to
// assigned when still open.
func (s *Store) Assign(ctx context.Context, id primitive.ObjectID, assignee string, estimatedCost float64) error {
	r, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if r.Status != models.RequestOpen {
		return fmt.Errorf("%w: %s -> %s", ErrBadTransition, r.Status, models.RequestAssigned)
	}
	set := bson.M{
		"status":      models.RequestAssigned,
		"assigned_to": assignee,
		"updated_at":  time.Now().UTC(),
	}
	if estimatedCost > 0 {
		set["estimated_cost"] = estimatedCost
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.RequestOpen},
		bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: request changed underneath", ErrBadTransition)
	}
	return nil
}

// CountOpenByLandlord returns the number of unresolved requests, used by
// the landlord dashboard.
func (s *Store) CountOpenByLandlord(ctx context.Context, landlordID string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"landlord_id": landlordID,
		"status": bson.M{"$in": bson.A{
			models.RequestOpen, models.RequestAssigned, models.RequestInProgress,
		}},
	})
}
