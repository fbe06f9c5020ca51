// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	// helper: ensure collection exists (with truthful logging) and then validator (if provided)
	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			// DocumentDB or other deployments may not support collMod/validators.
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	// Identity and account collections
	ensure("credentials", credentialsSchema())
	ensure("users", usersSchema())
	ensure("admin_users", adminUsersSchema())

	// Property management collections
	ensure("properties", propertiesSchema())
	ensure("units", unitsSchema())
	ensure("leases", leasesSchema())
	ensure("bills", billsSchema())
	ensure("maintenance_requests", maintenanceSchema())

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

func credentialsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"email", "password_hash"},
			"properties": bson.M{
				"email":         bson.M{"bsonType": "string", "minLength": 3},
				"password_hash": bson.M{"bsonType": "binData"},
				"created_at":    bson.M{"bsonType": "date"},
				"updated_at":    bson.M{"bsonType": "date"},
			},
		},
	}
}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"email", "role", "status"},
			"properties": bson.M{
				"email":  bson.M{"bsonType": "string", "minLength": 3},
				"name":   bson.M{"bsonType": "string"},
				"role":   bson.M{"enum": bson.A{"tenant", "landlord", "admin"}},
				"status": bson.M{"enum": bson.A{"active", "unverified", "disabled"}},

				"has_temporary_password": bson.M{"bsonType": "bool"},
				"password_changed":       bson.M{"bsonType": "bool"},
				"login_count":            bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},

				"landlord_id": bson.M{"bsonType": "string"},
				"created_by":  bson.M{"bsonType": "string"},
			},
		},
	}
}

func adminUsersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"email", "is_active"},
			"properties": bson.M{
				"email":     bson.M{"bsonType": "string", "minLength": 3},
				"role":      bson.M{"enum": bson.A{"super_admin"}},
				"is_active": bson.M{"bsonType": "bool"},
			},
		},
	}
}

func propertiesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"landlord_id", "address", "city", "state"},
			"properties": bson.M{
				"landlord_id": bson.M{"bsonType": "string", "minLength": 1},
				"address":     bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"city":        bson.M{"bsonType": "string", "minLength": 1},
				"state":       bson.M{"bsonType": "string", "minLength": 1},
				"total_units": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
			},
		},
	}
}

func unitsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"property_id", "unit_number", "status"},
			"properties": bson.M{
				"property_id": bson.M{"bsonType": "objectId"},
				"unit_number": bson.M{"bsonType": "string", "minLength": 1},
				"status":      bson.M{"enum": bson.A{"vacant", "occupied", "maintenance"}},
				"rent_amount": bson.M{"bsonType": bson.A{"double", "int", "long", "decimal"}, "minimum": 0},
			},
		},
	}
}

func leasesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"unit_id", "tenant_id", "landlord_id", "status", "start_date"},
			"properties": bson.M{
				"unit_id":      bson.M{"bsonType": "objectId"},
				"property_id":  bson.M{"bsonType": "objectId"},
				"tenant_id":    bson.M{"bsonType": "string", "minLength": 1},
				"landlord_id":  bson.M{"bsonType": "string", "minLength": 1},
				"status":       bson.M{"enum": bson.A{"active", "ended", "pending"}},
				"start_date":   bson.M{"bsonType": "date"},
				"monthly_rent": bson.M{"bsonType": bson.A{"double", "int", "long", "decimal"}, "minimum": 0},
			},
		},
	}
}

func billsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"lease_id", "tenant_id", "amount", "due_date", "status"},
			"properties": bson.M{
				"lease_id":  bson.M{"bsonType": "objectId"},
				"tenant_id": bson.M{"bsonType": "string", "minLength": 1},
				"category":  bson.M{"enum": bson.A{"rent", "utility", "fee"}},
				"amount":    bson.M{"bsonType": bson.A{"double", "int", "long", "decimal"}, "minimum": 0},
				"due_date":  bson.M{"bsonType": "date"},
				"status":    bson.M{"enum": bson.A{"pending", "paid", "overdue"}},
			},
		},
	}
}

func maintenanceSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"unit_id", "tenant_id", "title", "status", "priority"},
			"properties": bson.M{
				"unit_id":   bson.M{"bsonType": "objectId"},
				"tenant_id": bson.M{"bsonType": "string", "minLength": 1},
				"title":     bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"status":    bson.M{"enum": bson.A{"open", "assigned", "in-progress", "completed", "cancelled"}},
				"priority":  bson.M{"enum": bson.A{"low", "normal", "high", "emergency"}},
			},
		},
	}
}
