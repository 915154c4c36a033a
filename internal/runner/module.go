package runner

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"sentinel_bot/internal/analysis"
	"sentinel_bot/internal/broker"
	"sentinel_bot/internal/filters"
	"sentinel_bot/internal/memory"
	"sentinel_bot/internal/modules/config"
	"sentinel_bot/internal/modules/sentiment"
	"sentinel_bot/internal/notify"
	"sentinel_bot/internal/risk"
	"sentinel_bot/internal/runner/sessions"
	"sentinel_bot/internal/strategy"
)

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			NewNotifier,
			NewFromConfig,
		),
		fx.Invoke(func(lc fx.Lifecycle, s *Supervisor, n *notify.Async) {
			lc.Append(fx.Hook{
				OnStop: func(ctx context.Context) error {
					err := s.StopAll(ctx)
					n.Wait()
					return err
				},
			})
		}),
	)
}

// NewNotifier wraps the configured sender so the scan loop never blocks on it.
func NewNotifier(sender notify.Sender, cfg *config.Config, log *zap.Logger) (*notify.Async, notify.Notifier) {
	a := notify.NewAsync(sender, cfg.Trading.CallTimeout, log.Named("notify"))
	return a, a
}

type Params struct {
	fx.In

	Config    *config.Config
	Factory   broker.Factory
	Journal   *memory.Tracker
	Sentiment sentiment.Provider
	Notifier  notify.Notifier
	Log       *zap.Logger
}

func NewFromConfig(p Params) *Supervisor {
	t := p.Config.Trading
	log := p.Log.Named("runner")

	settings := strategy.Settings{
		MaxStopPips: t.MaxStopLossPips,
		DefaultLot:  t.DefaultLot,
		Analysis:    analysis.Config{CallTimeout: t.CallTimeout},
		Decider: strategy.Config{
			VolatilityPeriod: t.VolatilityPeriod,
			CallTimeout:      t.CallTimeout,
		},
	}

	return NewSupervisor(sessions.Config{
		MaxTradesAtOnce:   t.MaxTradesAtOnce,
		MaxSpreadPoints:   t.MaxSpreadPips,
		MaxLot:            t.MaxLotSize,
		IgnoreSpreadCheck: t.IgnoreSpreadCheck,
		MagicNumber:       t.MagicNumber,
		BaseSymbols:       t.BaseSymbols,
		ScanInterval:      t.ScanInterval,
		SymbolPause:       t.SymbolPause,
		HealthRetry:       t.HealthRetry,
		BusyWait:          t.BusyWait,
		CallTimeout:       t.CallTimeout,
	}, sessions.Deps{
		Factory: p.Factory,
		Engine: func(md broker.MarketData) strategy.Engine {
			return strategy.NewEngine(md, settings, log.Named("engine"))
		},
		Journal:   p.Journal,
		Sentiment: p.Sentiment,
		Notifier:  p.Notifier,
		Schedule: &filters.Schedule{
			Clock:              filters.SystemClock(),
			Sessions:           t.Sessions,
			CryptoSymbols:      t.CryptoSymbols,
			AllowWeekendCrypto: t.AllowWeekendCrypto,
		},
		Tiers: risk.Tiers(t.RiskTiers),
	}, log)
}
