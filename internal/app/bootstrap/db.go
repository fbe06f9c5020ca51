// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/dalemusser/casalink/internal/app/docstore"
	"github.com/dalemusser/casalink/internal/app/identity/local"
	"github.com/dalemusser/casalink/internal/app/session"
	billstore "github.com/dalemusser/casalink/internal/app/store/bills"
	"github.com/dalemusser/casalink/internal/app/system/indexes"
	"github.com/dalemusser/casalink/internal/app/system/validators"
	"github.com/dalemusser/casalink/internal/app/system/workers"
)

// ConnectDB establishes the Mongo connection and builds the backend
// dependencies the rest of the lifecycle hooks work with.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(appCfg.MongoDatabase)
	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase))

	store := docstore.New(db)
	ids := local.New(db, logger)
	sessions := session.NewManager(ids, store.Users(), store.Admins(),
		session.Config{AdminEmails: appCfg.AdminEmails}, logger)

	interval := appCfg.BillSweepInterval
	if interval <= 0 {
		interval = time.Hour
	}
	sweep := workers.NewBillSweep(billstore.New(db), logger, interval)

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		Identity:      ids,
		Sessions:      sessions,
		BillSweep:     sweep,
	}, nil
}

// EnsureSchema creates the collection indexes and schema validators the
// stores rely on. Safe to run on every startup.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	if err := deps.Identity.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure credential indexes: %w", err)
	}
	if err := validators.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		return fmt.Errorf("ensure validators: %w", err)
	}
	logger.Info("schema ensured")
	return nil
}
