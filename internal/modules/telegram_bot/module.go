package telegram

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"sentinel_bot/internal/memory"
	"sentinel_bot/internal/modules/config"
	"sentinel_bot/internal/modules/telegram_bot/service"
	"sentinel_bot/internal/notify"
	"sentinel_bot/internal/runner"
)

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(
			NewSender,
		),
		fx.Invoke(
			func(lc fx.Lifecycle, sender notify.Sender, sup *runner.Supervisor, tr *memory.Tracker) {
				t, ok := sender.(*service.Telegram)
				if !ok {
					return
				}
				t.Bind(sup, tr)
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						t.Start(context.Background())
						return nil
					},
					OnStop: func(ctx context.Context) error {
						t.Stop()
						return nil
					},
				})
			},
		),
	)
}

// NewSender returns the Telegram bot, or a log sink when no token is set.
func NewSender(cfg *config.Config, log *zap.Logger) (notify.Sender, error) {
	if cfg.Telegram.Token == "" {
		log.Warn("telegram token not set, notifications go to the log")
		return notify.NewStdout(log.Named("notify")), nil
	}
	t, err := service.NewTelegram(cfg, log.Named("telegram"))
	if err != nil {
		return nil, err
	}
	return t, nil
}
