package bootstrap

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	bootstrap "sentinel_bot/internal/modules/bootstrap/service"
	"sentinel_bot/internal/modules/config"
	health "sentinel_bot/internal/modules/health/service"
	"sentinel_bot/internal/notify"
	"sentinel_bot/internal/runner"
)

// Module starts autostart accounts and marks the process ready. It must be
// registered after every module whose start hooks it depends on.
func Module() fx.Option {
	return fx.Module("bootstrap",
		fx.Invoke(func(
			lc fx.Lifecycle,
			cfg *config.Config,
			sup *runner.Supervisor,
			state *health.State,
			n notify.Notifier,
			log *zap.Logger,
		) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					started := bootstrap.Autostart(sup, cfg.Accounts, log.Named("bootstrap"))
					state.SetReady(true)
					log.Info("bootstrap done", zap.Int("accounts", len(cfg.Accounts)), zap.Int("started", started))
					n.Notifyf(0, "🟢 %s up: %d/%d accounts started", cfg.Service.Name, started, len(cfg.Accounts))
					return nil
				},
			})
		}),
	)
}
