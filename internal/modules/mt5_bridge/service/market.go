package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"

	"sentinel_bot/internal/broker"
	"sentinel_bot/internal/models"
)

func (c *Client) Candles(ctx context.Context, symbol string, tf models.Timeframe, count int) (res []models.Candle, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("mt5.Candles %s %s: %w", symbol, tf, err)
		}
	}()
	frame, err := mt5Timeframe(tf)
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, nil
	}

	// start_pos 1 skips the candle that is still forming
	params := map[string]any{
		"symbol":    symbol,
		"timeframe": frame,
		"start_pos": 1,
		"count":     count,
	}
	var rates []rate
	if err := c.call(ctx, methodRates, params, &rates); err != nil {
		return nil, err
	}
	res = make([]models.Candle, 0, len(rates))
	for _, r := range rates {
		res = append(res, r.candle())
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Time.Before(res[j].Time) })
	return res, nil
}

func (c *Client) Tick(ctx context.Context, symbol string) (models.Tick, error) {
	var t *tick
	if err := c.call(ctx, methodTick, map[string]any{"symbol": symbol}, &t); err != nil {
		return models.Tick{}, fmt.Errorf("mt5.Tick %s: %w", symbol, err)
	}
	if t == nil || t.Bid <= 0 || t.Ask <= 0 {
		return models.Tick{}, errors.Wrapf(broker.ErrUnavailable, "tick %s", symbol)
	}
	return models.Tick{Bid: t.Bid, Ask: t.Ask, Time: time.Unix(t.Time, 0).UTC()}, nil
}

func (c *Client) SymbolInfo(ctx context.Context, symbol string) (models.SymbolInfo, error) {
	var info *symbolInfo
	if err := c.call(ctx, methodSymbolInfo, map[string]any{"symbol": symbol}, &info); err != nil {
		return models.SymbolInfo{}, fmt.Errorf("mt5.SymbolInfo %s: %w", symbol, err)
	}
	if info == nil {
		return models.SymbolInfo{}, errors.Wrapf(broker.ErrUnavailable, "symbol info %s", symbol)
	}
	return models.SymbolInfo{
		Name:      info.Name,
		Point:     info.Point,
		Tradeable: info.TradeMode != symbolTradeModeOff,
		Visible:   info.Visible,
	}, nil
}

// Symbols lists every instrument name the terminal knows, sorted.
func (c *Client) Symbols(ctx context.Context) ([]string, error) {
	var infos []symbolInfo
	if err := c.call(ctx, methodSymbols, nil, &infos); err != nil {
		return nil, fmt.Errorf("mt5.Symbols: %w", err)
	}
	names := make([]string, 0, len(infos))
	for _, i := range infos {
		names = append(names, i.Name)
	}
	sort.Strings(names)
	return names, nil
}
