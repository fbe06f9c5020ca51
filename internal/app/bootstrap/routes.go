// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	billingfeature "github.com/dalemusser/casalink/internal/app/features/billing"
	dashboardfeature "github.com/dalemusser/casalink/internal/app/features/dashboard"
	healthfeature "github.com/dalemusser/casalink/internal/app/features/health"
	leasesfeature "github.com/dalemusser/casalink/internal/app/features/leases"
	loginfeature "github.com/dalemusser/casalink/internal/app/features/login"
	logoutfeature "github.com/dalemusser/casalink/internal/app/features/logout"
	maintenancefeature "github.com/dalemusser/casalink/internal/app/features/maintenance"
	passwordfeature "github.com/dalemusser/casalink/internal/app/features/password"
	propertiesfeature "github.com/dalemusser/casalink/internal/app/features/properties"
	tenantsfeature "github.com/dalemusser/casalink/internal/app/features/tenants"
	billstore "github.com/dalemusser/casalink/internal/app/store/bills"
	leasestore "github.com/dalemusser/casalink/internal/app/store/leases"
	maintenancestore "github.com/dalemusser/casalink/internal/app/store/maintenance"
	propertystore "github.com/dalemusser/casalink/internal/app/store/properties"
	unitstore "github.com/dalemusser/casalink/internal/app/store/units"
	userstore "github.com/dalemusser/casalink/internal/app/store/users"
	"github.com/dalemusser/casalink/internal/app/system/auth"
	"github.com/dalemusser/casalink/internal/app/system/ratelimit"
)

// BuildHandler constructs the root HTTP handler for the app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and Startup have completed. The router mounts one feature package per
// area; everything except /health and /login sits behind the cookie
// session middleware plus the first-login password-change gate.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	if err := auth.InitSessionStore(appCfg.SessionKey, appCfg.SessionDomain, secure, logger); err != nil {
		logger.Error("session store init failed", zap.Error(err))
		return nil, err
	}

	db := deps.MongoDatabase
	users := userstore.New(db)
	properties := propertystore.New(db)
	units := unitstore.New(db)
	leases := leasestore.New(db)
	bills := billstore.New(db)
	requests := maintenancestore.New(db)

	r := chi.NewRouter()

	// Loads the SessionUser into context when a valid cookie is present.
	r.Use(auth.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators.
	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(deps.MongoClient, logger)))

	// Authentication.
	loginHandler := loginfeature.NewHandler(deps.Sessions, ratelimit.NewLoginLimiter(), logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))
	r.Mount("/logout", logoutfeature.Routes(logoutfeature.NewHandler(deps.Sessions, logger)))

	// Password change is reachable while the change is still owed; every
	// other signed-in route is gated on it.
	r.Mount("/password", passwordfeature.Routes(passwordfeature.NewHandler(deps.Sessions, logger)))

	r.Group(func(r chi.Router) {
		r.Use(auth.RequirePasswordChanged)

		r.Mount("/dashboard", dashboardfeature.Routes(dashboardfeature.NewHandler(
			users, properties, units, leases, bills, requests, logger)))
		r.Mount("/tenants", tenantsfeature.Routes(tenantsfeature.NewHandler(deps.Sessions, users, logger)))
		r.Mount("/properties", propertiesfeature.Routes(propertiesfeature.NewHandler(properties, units, logger)))
		r.Mount("/leases", leasesfeature.Routes(leasesfeature.NewHandler(leases, units, logger)))
		r.Mount("/bills", billingfeature.Routes(billingfeature.NewHandler(bills, leases, logger)))
		r.Mount("/maintenance", maintenancefeature.Routes(maintenancefeature.NewHandler(
			requests, units, properties, logger)))
	})

	return r, nil
}
