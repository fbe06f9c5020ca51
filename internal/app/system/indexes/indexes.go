// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureCredentials(ctx, db); err != nil {
		problems = append(problems, "credentials: "+err.Error())
	}
	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureAdminUsers(ctx, db); err != nil {
		problems = append(problems, "admin_users: "+err.Error())
	}
	if err := ensureProperties(ctx, db); err != nil {
		problems = append(problems, "properties: "+err.Error())
	}
	if err := ensureUnits(ctx, db); err != nil {
		problems = append(problems, "units: "+err.Error())
	}
	if err := ensureLeases(ctx, db); err != nil {
		problems = append(problems, "leases: "+err.Error())
	}
	if err := ensureBills(ctx, db); err != nil {
		problems = append(problems, "bills: "+err.Error())
	}
	if err := ensureMaintenance(ctx, db); err != nil {
		problems = append(problems, "maintenance_requests: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := a != nil && *a
	bv := b != nil && *b
	return av == bv
}

func loadExisting(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	out := map[string]existingIndex{} // sig -> index
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return out, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()), zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out, nil
}

// ensureIndexSet reconciles the desired index models against what the
// collection already has: identical indexes are reused, same-key indexes
// with different names or uniqueness are dropped and recreated, missing
// ones are created.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	existing, _ := loadExisting(ctx, coll)

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = m.Options.Unique
		}
		desiredSig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, ok := existing[desiredSig]; ok {
			if sameBoolPtr(desiredUnique, ex.Unique) && (desiredName == "" || ex.Name == desiredName) {
				zap.L().Info("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", desiredSig))
				continue
			}

			// Same keys, wrong name or options: drop and recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
			if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
				if isDuplicateKeyErr(err) && desiredUnique != nil && *desiredUnique {
					errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), desiredName))
				} else {
					errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
				}
				continue
			}
			zap.L().Info("index dropped and recreated",
				zap.String("collection", coll.Name()),
				zap.String("name", desiredName),
				zap.String("keys", desiredSig),
				zap.String("took", time.Since(start).String()))
			continue
		}

		created, err := coll.Indexes().CreateOne(ctx, m)
		if err != nil {
			if isOptionsConflictErr(err) {
				// An index with the same keys appeared under a different
				// name (race or manual creation); treat it as reusable.
				zap.L().Info("reusing conflicting index",
					zap.String("collection", coll.Name()),
					zap.String("keys", desiredSig))
				continue
			}
			if isDuplicateKeyErr(err) && desiredUnique != nil && *desiredUnique {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), desiredName))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			}
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", created),
			zap.String("keys", desiredSig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 { // E11000 duplicate key error index
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Mongo/DocDB sometimes returns IndexOptionsConflict when an index with the
// same keys already exists under a different name (or options differ).
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict")
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                             */
/* -------------------------------------------------------------------------- */

func ensureCredentials(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("credentials")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One credential per email address; sign-in and sign-up both key on it.
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_credentials_email"),
		},
	})
}

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("users")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Email must be unique across all users
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
		// Landlord tenant lists: filter by landlord, sort by name
		{
			Keys: bson.D{
				{Key: "role", Value: 1},
				{Key: "landlord_id", Value: 1},
				{Key: "name", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("idx_users_role_landlord_name_id"),
		},
		// Role counts for the admin dashboard
		{
			Keys:    bson.D{{Key: "role", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_users_role_status"),
		},
	})
}

func ensureAdminUsers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("admin_users")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_admins_email"),
		},
	})
}

func ensureProperties(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("properties")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Landlord listings: filter by owner, sort by address
		{
			Keys: bson.D{
				{Key: "landlord_id", Value: 1},
				{Key: "address", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("idx_props_landlord_address_id"),
		},
	})
}

func ensureUnits(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("units")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// No duplicate unit numbers inside the same property
		{
			Keys:    bson.D{{Key: "property_id", Value: 1}, {Key: "unit_number", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_units_property_number"),
		},
		// Occupancy dashboards: per-property status counts
		{
			Keys:    bson.D{{Key: "property_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_units_property_status"),
		},
		// Reverse lookup: which unit does a tenant occupy
		{
			Keys:    bson.D{{Key: "current_tenant_id", Value: 1}},
			Options: options.Index().SetName("idx_units_tenant"),
		},
	})
}

func ensureLeases(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("leases")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One-active-lease-per-unit lookups
		{
			Keys:    bson.D{{Key: "unit_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_leases_unit_status"),
		},
		// Tenant lease history, newest first
		{
			Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "start_date", Value: -1}},
			Options: options.Index().SetName("idx_leases_tenant_start"),
		},
		// Landlord listings and expiry sweeps
		{
			Keys: bson.D{
				{Key: "landlord_id", Value: 1},
				{Key: "status", Value: 1},
				{Key: "end_date", Value: 1},
			},
			Options: options.Index().SetName("idx_leases_landlord_status_end"),
		},
	})
}

func ensureBills(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("bills")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Tenant billing screens, newest due first
		{
			Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "due_date", Value: -1}},
			Options: options.Index().SetName("idx_bills_tenant_due"),
		},
		// Per-lease statements
		{
			Keys:    bson.D{{Key: "lease_id", Value: 1}, {Key: "due_date", Value: -1}},
			Options: options.Index().SetName("idx_bills_lease_due"),
		},
		// Overdue sweep: pending bills past their date
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "due_date", Value: 1}},
			Options: options.Index().SetName("idx_bills_status_due"),
		},
	})
}

func ensureMaintenance(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("maintenance_requests")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Landlord work queues: open requests, newest first
		{
			Keys: bson.D{
				{Key: "landlord_id", Value: 1},
				{Key: "status", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_maint_landlord_status_created"),
		},
		// Tenant request history
		{
			Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_maint_tenant_created"),
		},
	})
}
