package mt5_bridge

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"sentinel_bot/internal/broker"
	"sentinel_bot/internal/broker/paper"
	"sentinel_bot/internal/models"
	"sentinel_bot/internal/modules/config"
	"sentinel_bot/internal/modules/mt5_bridge/service"
)

func Module() fx.Option {
	return fx.Module("mt5_bridge",
		fx.Provide(
			NewFactory,
		),
	)
}

// NewFactory opens a bridge session per account. Paper accounts get an
// in-memory broker seeded with their configured balance.
func NewFactory(cfg *config.Config, log *zap.Logger) broker.Factory {
	return broker.FactoryFunc(func(ctx context.Context, acc models.Account) (broker.Broker, error) {
		if acc.Paper {
			log.Info("paper broker", zap.Int64("account", acc.ID), zap.Float64("balance", acc.Balance))
			return paper.New(acc.Balance), nil
		}
		return service.Dial(ctx, service.Config{
			URL:         acc.BridgeURL,
			Login:       acc.Login,
			Password:    acc.Password,
			Server:      acc.Server,
			CallTimeout: cfg.Trading.CallTimeout,
		}, log.Named("mt5").With(zap.Int64("account", acc.ID)))
	})
}
