package sentiment

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"sentinel_bot/internal/modules/config"
	"sentinel_bot/internal/modules/sentiment/service"
)

// Provider is what the scan loop consumes.
type Provider interface {
	Sentiment(ctx context.Context, symbol string) (float64, bool)
	IsStrongNewsEvent(ctx context.Context, symbol string) bool
}

func Module() fx.Option {
	return fx.Module("sentiment",
		fx.Provide(
			NewCache,
			NewProvider,
		),
	)
}

// NewCache prefers Redis when an address is configured.
func NewCache(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) service.Cache {
	if cfg.Sentiment.Redis.Addr == "" {
		return service.NewMemoryCache()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Sentiment.Redis.Addr,
		Password: cfg.Sentiment.Redis.Password,
		DB:       cfg.Sentiment.Redis.DB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warn("redis unavailable, sentiment cache misses until it recovers", zap.Error(err))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return service.NewRedisCache(client, log.Named("sentiment.cache"))
}

func NewProvider(cfg *config.Config, cache service.Cache, log *zap.Logger) Provider {
	s := cfg.Sentiment
	if !s.Enabled || s.APIKey == "" {
		log.Info("sentiment provider disabled")
		return service.Disabled{}
	}
	return service.NewFinnhub(service.Config{
		BaseURL:         s.BaseURL,
		APIKey:          s.APIKey,
		StrongThreshold: s.StrongThreshold,
		Timeout:         s.Timeout,
		CacheTTL:        s.CacheTTL,
	}, cache, log.Named("sentiment"))
}
