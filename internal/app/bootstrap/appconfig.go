// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS,
// logging, CORS); AppConfig is everything specific to CasaLink. The
// struct is passed to most lifecycle hooks, so any configuration needed
// during startup, request handling, or shutdown lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session cookie configuration
	SessionKey    string // secret key for signing session cookies
	SessionDomain string // cookie domain (blank means current host)

	// AdminEmails is the allow-list consulted by the session core for
	// admin standing; membership alone grants it.
	AdminEmails []string

	// BillSweepInterval is how often the overdue-bill sweep runs.
	BillSweepInterval time.Duration
}
