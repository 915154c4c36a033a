package postgres

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"

	"sentinel_bot/internal/modules/config"
	"sentinel_bot/pkg/db"
)

// Module provides a Connector. The pool is only opened when a component
// asks for it, so file-backed deployments never touch postgres.
func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			NewConnector,
		),
	)
}

type Connector struct {
	dsn string

	once sync.Once
	pool *pgxpool.Pool
	txm  *db.PgTxManager
	err  error
}

func NewConnector(lc fx.Lifecycle, cfg *config.Config) *Connector {
	c := &Connector{dsn: cfg.DB}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			if c.pool != nil {
				c.pool.Close()
			}
			return nil
		},
	})
	return c
}

// TxManager opens and pings the pool on first use.
func (c *Connector) TxManager(ctx context.Context) (db.TxManager, error) {
	c.once.Do(func() {
		if c.dsn == "" {
			c.err = fmt.Errorf("db_dsn is empty")
			return
		}
		poolMaster, err := db.NewPool(ctx, db.PoolConfig{
			DSN: c.dsn,
		})
		if err != nil {
			c.err = fmt.Errorf("failed to create poolMaster: %w", err)
			return
		}
		if err = poolMaster.Ping(ctx); err != nil {
			poolMaster.Close()
			c.err = fmt.Errorf("ping postgres: %w", err)
			return
		}
		c.pool = poolMaster
		c.txm = db.NewPgTxManager(poolMaster)
	})
	if c.err != nil {
		return nil, c.err
	}
	return c.txm, nil
}
