// Package pg persists trade memory in Postgres.
package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"sentinel_bot/internal/models"
	"sentinel_bot/pkg/db"
)

const (
	createTable = `
CREATE TABLE IF NOT EXISTS trade_memory (
	seq         BIGSERIAL PRIMARY KEY,
	id          UUID NOT NULL UNIQUE,
	symbol      TEXT NOT NULL,
	ticket      BIGINT NOT NULL DEFAULT 0,
	direction   TEXT NOT NULL DEFAULT '',
	entry_price DOUBLE PRECISION NOT NULL,
	exit_price  DOUBLE PRECISION,
	profit      DOUBLE PRECISION,
	sentiment   DOUBLE PRECISION,
	bias        TEXT NOT NULL DEFAULT '',
	opened_at   TIMESTAMPTZ NOT NULL,
	closed_at   TIMESTAMPTZ
)`

	insertTrade = `
INSERT INTO trade_memory (id, symbol, ticket, direction, entry_price, exit_price, profit, sentiment, bias, opened_at, closed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	updateTrade = `
UPDATE trade_memory
SET exit_price = $2, profit = $3, sentiment = $4, bias = $5, closed_at = $6
WHERE id = $1`

	selectTrades = `
SELECT id, symbol, ticket, direction, entry_price, exit_price, profit, sentiment, bias, opened_at, closed_at
FROM trade_memory
ORDER BY seq`
)

type Store struct {
	db db.TxManager
}

func NewStore(txm db.TxManager) *Store {
	return &Store{db: txm}
}

// Migrate creates the table when it does not exist.
func (s *Store) Migrate(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Migrate: %w", err)
		}
	}()
	_, err = s.db.Conn().Exec(ctx, createTable)
	return err
}

func (s *Store) Load(ctx context.Context) (out []models.TradeRecord, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Load: %w", err)
		}
	}()

	rows, err := s.db.Conn().Query(ctx, selectTrades)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r         models.TradeRecord
			direction string
			closedAt  *time.Time
		)
		if err = rows.Scan(
			&r.ID, &r.Symbol, &r.Ticket, &direction, &r.EntryPrice,
			&r.ExitPrice, &r.Profit, &r.Sentiment, &r.Bias, &r.Time, &closedAt,
		); err != nil {
			return nil, err
		}
		r.Direction = models.Direction(direction)
		r.Time = r.Time.UTC()
		if closedAt != nil {
			at := closedAt.UTC()
			r.ClosedAt = &at
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Append(ctx context.Context, rec models.TradeRecord) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Append: %w", err)
		}
	}()
	if rec.ID == uuid.Nil {
		return fmt.Errorf("record without id")
	}
	return s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, insertTrade,
			rec.ID, rec.Symbol, rec.Ticket, string(rec.Direction), rec.EntryPrice,
			rec.ExitPrice, rec.Profit, rec.Sentiment, rec.Bias, rec.Time, rec.ClosedAt,
		)
		return err
	})
}

func (s *Store) Update(ctx context.Context, rec models.TradeRecord) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Update: %w", err)
		}
	}()
	return s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctxTx, updateTrade,
			rec.ID, rec.ExitPrice, rec.Profit, rec.Sentiment, rec.Bias, rec.ClosedAt,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("record %s not found", rec.ID)
		}
		return nil
	})
}
