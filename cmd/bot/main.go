package main

import (
	"github.com/opentracing/opentracing-go"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"sentinel_bot/internal/modules/bootstrap"
	"sentinel_bot/internal/modules/config"
	"sentinel_bot/internal/modules/health"
	"sentinel_bot/internal/modules/memory"
	"sentinel_bot/internal/modules/mt5_bridge"
	"sentinel_bot/internal/modules/postgres"
	"sentinel_bot/internal/modules/sentiment"
	telegram "sentinel_bot/internal/modules/telegram_bot"
	"sentinel_bot/internal/modules/telemetry"
	"sentinel_bot/internal/runner"
)

func main() {
	app := fx.New(
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		config.Module(),
		telemetry.Module(),
		postgres.Module(),
		memory.Module(),
		sentiment.Module(),
		mt5_bridge.Module(),
		runner.Module(),
		telegram.Module(),
		health.Module(),
		bootstrap.Module(),
		// spans are started through the global tracer, force its installation
		fx.Invoke(func(opentracing.Tracer) {}),
	)
	app.Run()
}
