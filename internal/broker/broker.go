// Package broker defines what the scan loop needs from a trading terminal.
package broker

import (
	"context"
	"errors"
	"time"

	"sentinel_bot/internal/models"
)

var (
	// ErrUnavailable marks missing market data. Callers treat it as a soft rejection.
	ErrUnavailable = errors.New("broker: data unavailable")
	// ErrOrderRejected is returned when the terminal declines an order.
	ErrOrderRejected = errors.New("broker: order rejected")
	ErrNotConnected  = errors.New("broker: not connected")
)

type MarketData interface {
	// Candles returns up to count closed candles, oldest first. Empty means no data.
	Candles(ctx context.Context, symbol string, tf models.Timeframe, count int) ([]models.Candle, error)
	Tick(ctx context.Context, symbol string) (models.Tick, error)
	SymbolInfo(ctx context.Context, symbol string) (models.SymbolInfo, error)
}

type Account interface {
	Balance(ctx context.Context) (float64, error)
	// OpenPositions returns positions for symbol, or all of them when symbol is empty.
	OpenPositions(ctx context.Context, symbol string) ([]models.Position, error)
}

type Executor interface {
	PlaceOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error)
}

// Broker is one exclusive terminal session. It is not safe for concurrent use.
type Broker interface {
	MarketData
	Account
	Executor

	Ping(ctx context.Context) error
	Close() error
}

// SymbolLister is implemented by brokers that can enumerate their instruments.
type SymbolLister interface {
	Symbols(ctx context.Context) ([]string, error)
}

// DealHistory is implemented by brokers that report closed positions.
type DealHistory interface {
	ClosedDeals(ctx context.Context, since time.Time) ([]models.Deal, error)
}

// Factory opens a broker session for an account.
type Factory interface {
	Open(ctx context.Context, acc models.Account) (Broker, error)
}

type FactoryFunc func(ctx context.Context, acc models.Account) (Broker, error)

func (f FactoryFunc) Open(ctx context.Context, acc models.Account) (Broker, error) {
	return f(ctx, acc)
}
