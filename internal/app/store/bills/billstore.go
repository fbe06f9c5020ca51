package billstore

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

// ErrAlreadyPaid is returned when marking a paid bill paid again.
var ErrAlreadyPaid = errors.New("bill is already paid")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("bills")}
}

func (s *Store) Create(ctx context.Context, b models.Bill) (models.Bill, error) {
	if errs := b.Validate(); len(errs) > 0 {
		return models.Bill{}, errors.New("bill failed validation: " + strings.Join(errs, "; "))
	}
	if b.Status == "" {
		b.Status = models.BillPending
	}
	if b.Category == "" {
		b.Category = "rent"
	}
	now := time.Now().UTC()
	b.ID = primitive.NewObjectID()
	b.CreatedAt = now
	b.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, b); err != nil {
		return models.Bill{}, err
	}
	return b, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Bill, error) {
	var b models.Bill
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&b)
	if err != nil {
		return models.Bill{}, err
	}
	return b, nil
}

// ListByTenant returns a tenant's bills, newest due date first. An
// empty status matches all statuses.
func (s *Store) ListByTenant(ctx context.Context, tenantID, status string) ([]models.Bill, error) {
	return s.find(ctx, withStatus(bson.M{"tenant_id": tenantID}, status))
}

// ListByLandlord returns a landlord's issued bills, newest due date
// first. An empty status matches all statuses.
func (s *Store) ListByLandlord(ctx context.Context, landlordID, status string) ([]models.Bill, error) {
	return s.find(ctx, withStatus(bson.M{"landlord_id": landlordID}, status))
}

func withStatus(filter bson.M, status string) bson.M {
	if status != "" {
		filter["status"] = status
	}
	return filter
}

// ListByLease returns all bills charged against a lease.
func (s *Store) ListByLease(ctx context.Context, leaseID primitive.ObjectID) ([]models.Bill, error) {
	return s.find(ctx, bson.M{"lease_id": leaseID})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Bill, error) {
	cur, err := s.c.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "due_date", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Bill
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkPaid settles a bill. The status filter makes double payment a
// no-match rather than a silent overwrite.
func (s *Store) MarkPaid(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$ne": models.BillPaid}},
		bson.M{"$set": bson.M{
			"status":     models.BillPaid,
			"paid_at":    now,
			"updated_at": now,
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if err := s.c.FindOne(ctx, bson.M{"_id": id}).Err(); err != nil {
			return err
		}
		return ErrAlreadyPaid
	}
	return nil
}

// MarkOverdue sweeps pending bills past their due date into overdue.
// Returns the number of bills flipped. Intended for a periodic task.
func (s *Store) MarkOverdue(ctx context.Context) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"status": models.BillPending, "due_date": bson.M{"$lt": time.Now().UTC()}},
		bson.M{"$set": bson.M{"status": models.BillOverdue, "updated_at": time.Now().UTC()}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// OutstandingTotal sums a tenant's unpaid bill amounts.
func (s *Store) OutstandingTotal(ctx context.Context, tenantID string) (float64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"tenant_id": tenantID,
			"status":    bson.M{"$in": bson.A{models.BillPending, models.BillOverdue}},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$amount"},
		}}},
	})
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)
	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}
