// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dalemusser/casalink/internal/app/identity/local"
	"github.com/dalemusser/casalink/internal/app/session"
	"github.com/dalemusser/casalink/internal/app/system/workers"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Identity is the email/password provider over the credentials
	// collection; Sessions is the session core built on it.
	Identity *local.Provider
	Sessions *session.Manager

	// BillSweep flips pending bills past due to overdue on a timer.
	BillSweep *workers.BillSweep
}
