// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	"github.com/dalemusser/casalink/internal/domain/models"
)

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	// Auth-state changes are interesting operationally even when no
	// feature is listening.
	deps.Sessions.OnAuthChange(func(u *models.User) {
		if u == nil {
			logger.Info("auth state: signed out")
			return
		}
		logger.Info("auth state: signed in",
			zap.String("user_id", u.ID), zap.String("role", u.Role))
	})

	deps.BillSweep.Start()
	return nil
}
