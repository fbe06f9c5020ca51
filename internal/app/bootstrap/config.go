// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for CasaLink.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_key, etc.
//   - Environment variables: CASALINK_MONGO_URI, CASALINK_SESSION_KEY, etc.
//   - Command-line flags: --mongo_uri, --session_key, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "casalink", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	{Name: "admin_emails", Default: "", Desc: "Comma-separated emails granted admin standing"},

	{Name: "bill_sweep_interval", Default: "1h", Desc: "How often pending bills past due are swept to overdue"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config
// yaml/json/toml files, environment variables (WAFFLE_* for core,
// CASALINK_* for app), and command-line flags, merged with precedence
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CASALINK", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionDomain:    appValues.String("session_domain"),

		BillSweepInterval: appValues.Duration("bill_sweep_interval", time.Hour),
	}

	if raw := appValues.String("admin_emails"); raw != "" {
		for _, e := range strings.Split(raw, ",") {
			if e = strings.TrimSpace(e); e != "" {
				appCfg.AdminEmails = append(appCfg.AdminEmails, e)
			}
		}
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation before any
// backends are touched.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if len(appCfg.SessionKey) < 32 {
		return fmt.Errorf("session_key must be at least 32 characters")
	}
	if coreCfg.Env == "prod" && strings.HasPrefix(appCfg.SessionKey, "dev-only-") {
		return fmt.Errorf("session_key must be changed from the development default in production")
	}
	return nil
}
