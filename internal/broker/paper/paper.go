// Package paper is an in-memory broker used for dry runs and tests.
package paper

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"sentinel_bot/internal/broker"
	"sentinel_bot/internal/models"
)

type Broker struct {
	mu sync.Mutex

	balance   float64
	candles   map[string]map[models.Timeframe][]models.Candle
	ticks     map[string]models.Tick
	infos     map[string]models.SymbolInfo
	positions map[int64]models.Position
	deals     []models.Deal
	orders    []models.OrderRequest

	nextTicket int64
	closed     bool
	pingErr    error
	rejectAll  string
}

func New(balance float64) *Broker {
	return &Broker{
		balance:    balance,
		candles:    make(map[string]map[models.Timeframe][]models.Candle),
		ticks:      make(map[string]models.Tick),
		infos:      make(map[string]models.SymbolInfo),
		positions:  make(map[int64]models.Position),
		nextTicket: 1000,
	}
}

// Factory returns the same paper broker for every account.
func Factory(b *Broker) broker.Factory {
	return broker.FactoryFunc(func(ctx context.Context, acc models.Account) (broker.Broker, error) {
		b.mu.Lock()
		b.closed = false
		b.mu.Unlock()
		return b, nil
	})
}

func (b *Broker) SetCandles(symbol string, tf models.Timeframe, cs []models.Candle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.candles[symbol] == nil {
		b.candles[symbol] = make(map[models.Timeframe][]models.Candle)
	}
	b.candles[symbol][tf] = append([]models.Candle(nil), cs...)
}

func (b *Broker) SetTick(symbol string, bid, ask float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ticks[symbol] = models.Tick{Bid: bid, Ask: ask, Time: time.Now().UTC()}
}

func (b *Broker) SetSymbolInfo(info models.SymbolInfo) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.infos[info.Name] = info
}

func (b *Broker) SetBalance(v float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balance = v
}

// SetPingError makes Ping fail until reset with nil.
func (b *Broker) SetPingError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pingErr = err
}

// RejectOrders makes every PlaceOrder fail with the given comment. Empty resets.
func (b *Broker) RejectOrders(comment string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejectAll = comment
}

func (b *Broker) Orders() []models.OrderRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.OrderRequest(nil), b.orders...)
}

func (b *Broker) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Broker) Candles(_ context.Context, symbol string, tf models.Timeframe, count int) ([]models.Candle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cs := b.candles[symbol][tf]
	if len(cs) > count {
		cs = cs[len(cs)-count:]
	}
	return append([]models.Candle(nil), cs...), nil
}

func (b *Broker) Tick(_ context.Context, symbol string) (models.Tick, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.ticks[symbol]
	if !ok {
		return models.Tick{}, errors.Wrapf(broker.ErrUnavailable, "tick %s", symbol)
	}
	return t, nil
}

func (b *Broker) SymbolInfo(_ context.Context, symbol string) (models.SymbolInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	info, ok := b.infos[symbol]
	if !ok {
		return models.SymbolInfo{}, errors.Wrapf(broker.ErrUnavailable, "symbol %s", symbol)
	}
	return info, nil
}

func (b *Broker) Symbols(_ context.Context) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.infos))
	for name := range b.infos {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func (b *Broker) Balance(_ context.Context) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balance, nil
}

func (b *Broker) OpenPositions(_ context.Context, symbol string) ([]models.Position, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Position, 0, len(b.positions))
	for _, p := range b.positions {
		if symbol == "" || p.Symbol == symbol {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticket < out[j].Ticket })
	return out, nil
}

func (b *Broker) PlaceOrder(_ context.Context, req models.OrderRequest) (models.OrderResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return models.OrderResult{}, broker.ErrNotConnected
	}
	b.orders = append(b.orders, req)
	if b.rejectAll != "" {
		return models.OrderResult{}, errors.Wrap(broker.ErrOrderRejected, b.rejectAll)
	}
	if req.Lot <= 0 {
		return models.OrderResult{}, errors.Wrap(broker.ErrOrderRejected, "invalid volume")
	}

	b.nextTicket++
	b.positions[b.nextTicket] = models.Position{
		Ticket:    b.nextTicket,
		Symbol:    req.Symbol,
		Direction: req.Direction,
		Volume:    req.Lot,
		OpenPrice: req.Price,
		SL:        req.StopLoss,
		TP:        req.TakeProfit,
		OpenedAt:  time.Now().UTC(),
	}
	return models.OrderResult{Ticket: b.nextTicket, Price: req.Price}, nil
}

// ClosePosition settles an open position and moves it into the deal history.
func (b *Broker) ClosePosition(ticket int64, exit, profit float64, at time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.positions[ticket]
	if !ok {
		return fmt.Errorf("paper.ClosePosition: ticket %d not open", ticket)
	}
	delete(b.positions, ticket)
	b.balance += profit
	b.deals = append(b.deals, models.Deal{
		Ticket:    ticket,
		Symbol:    p.Symbol,
		ExitPrice: exit,
		Profit:    profit,
		ClosedAt:  at,
	})
	return nil
}

func (b *Broker) ClosedDeals(_ context.Context, since time.Time) ([]models.Deal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []models.Deal
	for _, d := range b.deals {
		if !d.ClosedAt.Before(since) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (b *Broker) Ping(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return broker.ErrNotConnected
	}
	return b.pingErr
}

func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
