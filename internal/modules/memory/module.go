package memory

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"sentinel_bot/internal/memory"
	"sentinel_bot/internal/memory/file"
	"sentinel_bot/internal/memory/pg"
	"sentinel_bot/internal/modules/config"
	"sentinel_bot/internal/modules/postgres"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

func Module() fx.Option {
	return fx.Module("memory",
		fx.Provide(
			NewTracker,
		),
	)
}

// NewTracker opens the configured store and loads the journal on start,
// before the supervisor runs any session.
func NewTracker(lc fx.Lifecycle, cfg *config.Config, conn *postgres.Connector, log *zap.Logger) (*memory.Tracker, error) {
	log = log.Named("memory")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Trading.CallTimeout)
	defer cancel()

	store, err := openStore(ctx, cfg.Memory, conn)
	if err != nil {
		return nil, fmt.Errorf("open trade memory: %w", err)
	}
	log.Info("trade memory backend", zap.String("backend", cfg.Memory.Backend))

	tr := memory.NewTracker(store, log)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return tr.Load(ctx)
		},
	})
	return tr, nil
}

func openStore(ctx context.Context, cfg config.Memory, conn *postgres.Connector) (memory.Store, error) {
	switch cfg.Backend {
	case "", BackendFile:
		return file.NewStore(cfg.Path), nil
	case BackendPostgres:
		txm, err := conn.TxManager(ctx)
		if err != nil {
			return nil, err
		}
		s := pg.NewStore(txm)
		if err := s.Migrate(ctx); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown memory backend %q", cfg.Backend)
	}
}
