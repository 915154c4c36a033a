package paper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel_bot/internal/broker"
	"sentinel_bot/internal/models"
)

func TestPlaceAndCloseLifecycle(t *testing.T) {
	ctx := context.Background()
	b := New(1000)

	res, err := b.PlaceOrder(ctx, models.OrderRequest{Symbol: "EURUSD", Direction: models.Buy, Lot: 0.03, Price: 1.1})
	require.NoError(t, err)

	open, err := b.OpenPositions(ctx, "EURUSD")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, res.Ticket, open[0].Ticket)

	at := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	require.NoError(t, b.ClosePosition(res.Ticket, 1.105, 15, at))

	open, _ = b.OpenPositions(ctx, "")
	assert.Empty(t, open)

	deals, err := b.ClosedDeals(ctx, at.Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, deals, 1)
	assert.Equal(t, 15.0, deals[0].Profit)

	bal, _ := b.Balance(ctx)
	assert.Equal(t, 1015.0, bal)
}

func TestRejectAndUnavailable(t *testing.T) {
	ctx := context.Background()
	b := New(1000)
	b.RejectOrders("market closed")

	_, err := b.PlaceOrder(ctx, models.OrderRequest{Symbol: "EURUSD", Lot: 0.01})
	assert.True(t, errors.Is(err, broker.ErrOrderRejected))

	_, err = b.Tick(ctx, "GBPUSD")
	assert.True(t, errors.Is(err, broker.ErrUnavailable))
}

func TestResolveSymbolsByPrefix(t *testing.T) {
	b := New(0)
	b.SetSymbolInfo(models.SymbolInfo{Name: "EURUSDm"})
	b.SetSymbolInfo(models.SymbolInfo{Name: "XAUUSD.r"})
	b.SetSymbolInfo(models.SymbolInfo{Name: "BTCUSD"})

	got, err := broker.ResolveSymbols(context.Background(), b, []string{"EURUSD", "XAUUSD", "NAS100"})
	require.NoError(t, err)
	assert.Equal(t, []string{"EURUSDm", "XAUUSD.r"}, got)
}
