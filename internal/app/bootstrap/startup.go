// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	invitestore "github.com/dalemusser/quorum/internal/app/store/invites"
	"github.com/dalemusser/quorum/internal/app/system/timeouts"
	"github.com/dalemusser/quorum/internal/app/system/timezones"
	"github.com/dalemusser/quorum/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// inviteSweeper runs for the life of the process; Shutdown stops it.
var inviteSweeper *workers.InviteSweep

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It is the
// place to start background workers, warm caches, or perform any app-wide
// setup that depends on config and backends.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	// Fail fast if the embedded zone list is unreadable.
	if err := timezones.Load(); err != nil {
		return err
	}

	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("handler timeouts overridden from environment",
			zap.Int("overrides", n))
	}

	if appCfg.InviteSweepInterval > 0 {
		inviteSweeper = workers.NewInviteSweep(
			invitestore.New(deps.MongoDatabase), logger, appCfg.InviteSweepInterval)
		inviteSweeper.Start()
	} else {
		logger.Info("invite sweep worker disabled")
	}
	return nil
}
