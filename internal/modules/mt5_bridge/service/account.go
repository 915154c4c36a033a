package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"sentinel_bot/internal/broker"
	"sentinel_bot/internal/models"
)

func (c *Client) Balance(ctx context.Context) (float64, error) {
	var info *accountInfo
	if err := c.call(ctx, methodAccount, nil, &info); err != nil {
		return 0, fmt.Errorf("mt5.Balance: %w", err)
	}
	if info == nil {
		return 0, errors.Wrap(broker.ErrUnavailable, "account info")
	}
	return info.Balance, nil
}

func (c *Client) OpenPositions(ctx context.Context, symbol string) ([]models.Position, error) {
	var params any
	if symbol != "" {
		params = map[string]any{"symbol": symbol}
	}
	var raw []position
	if err := c.call(ctx, methodPositions, params, &raw); err != nil {
		return nil, fmt.Errorf("mt5.OpenPositions %q: %w", symbol, err)
	}
	out := make([]models.Position, 0, len(raw))
	for _, p := range raw {
		out = append(out, p.model())
	}
	return out, nil
}

// PlaceOrder sends a market order. Anything but a done/placed retcode is a rejection.
func (c *Client) PlaceOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error) {
	typ := orderTypeBuy
	if req.Direction == models.Sell {
		typ = orderTypeSell
	}
	params := orderSend{
		Action:      tradeActionDeal,
		Symbol:      req.Symbol,
		Volume:      req.Lot,
		Type:        typ,
		Price:       req.Price,
		SL:          req.StopLoss,
		TP:          req.TakeProfit,
		Deviation:   defaultDeviation,
		Magic:       req.Magic,
		Comment:     req.Comment,
		TypeTime:    orderTimeGTC,
		TypeFilling: orderFillingIOC,
	}
	var res *orderResult
	if err := c.call(ctx, methodOrderSend, params, &res); err != nil {
		return models.OrderResult{}, fmt.Errorf("mt5.PlaceOrder %s: %w", req.Symbol, err)
	}
	if res == nil {
		return models.OrderResult{}, errors.Wrapf(broker.ErrOrderRejected, "%s: empty result", req.Symbol)
	}
	if res.Retcode != retcodeDone && res.Retcode != retcodePlaced {
		return models.OrderResult{}, errors.Wrapf(broker.ErrOrderRejected, "%s: retcode %d %s", req.Symbol, res.Retcode, res.Comment)
	}
	price := res.Price
	if price == 0 {
		price = req.Price
	}
	return models.OrderResult{Ticket: res.Order, Price: price}, nil
}

// ClosedDeals returns exit deals since the given time keyed by the position they closed.
func (c *Client) ClosedDeals(ctx context.Context, since time.Time) ([]models.Deal, error) {
	params := map[string]any{
		"date_from": since.Unix(),
		"date_to":   time.Now().Add(time.Minute).Unix(),
	}
	var raw []deal
	if err := c.call(ctx, methodHistoryDeals, params, &raw); err != nil {
		return nil, fmt.Errorf("mt5.ClosedDeals: %w", err)
	}
	out := make([]models.Deal, 0, len(raw))
	for _, d := range raw {
		if d.Entry != dealEntryOut {
			continue
		}
		out = append(out, models.Deal{
			Ticket:    d.PositionID,
			Symbol:    d.Symbol,
			ExitPrice: d.Price,
			Profit:    d.Profit,
			ClosedAt:  time.Unix(d.Time, 0).UTC(),
		})
	}
	return out, nil
}
