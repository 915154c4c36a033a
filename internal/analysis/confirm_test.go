package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"sentinel_bot/internal/broker/paper"
	"sentinel_bot/internal/models"
)

func TestEngulfing(t *testing.T) {
	prev := models.Candle{Open: 1.10, Close: 1.08, High: 1.105, Low: 1.075}
	curr := models.Candle{Open: 1.07, Close: 1.12, High: 1.125, Low: 1.065}
	assert.True(t, Engulfing(prev, curr))

	// mirrored bearish pair
	prev = models.Candle{Open: 1.08, Close: 1.10}
	curr = models.Candle{Open: 1.12, Close: 1.07}
	assert.True(t, Engulfing(prev, curr))

	// same colour never engulfs
	assert.False(t, Engulfing(models.Candle{Open: 1.0, Close: 1.01}, models.Candle{Open: 0.99, Close: 1.05}))
}

func TestPinBar(t *testing.T) {
	assert.True(t, PinBar(models.Candle{Open: 1.000, Close: 1.001, High: 1.010, Low: 0.990}))
	assert.False(t, PinBar(models.Candle{Open: 1.00, Close: 1.04, High: 1.05, Low: 0.995}))
}

func TestConfirmEntry(t *testing.T) {
	ctx := context.Background()
	b := paper.New(0)
	a := newAnalyzer(b)

	assert.False(t, a.ConfirmEntry(ctx, "EURUSD"), "no candles")

	b.SetCandles("EURUSD", models.M15, []models.Candle{
		{Open: 1.10, Close: 1.08, High: 1.105, Low: 1.075},
		{Open: 1.07, Close: 1.12, High: 1.125, Low: 1.065},
	})
	assert.False(t, a.ConfirmEntry(ctx, "EURUSD"), "needs three candles")

	b.SetCandles("EURUSD", models.M15, []models.Candle{
		{Open: 1.11, Close: 1.10, High: 1.115, Low: 1.095},
		{Open: 1.10, Close: 1.08, High: 1.105, Low: 1.075},
		{Open: 1.07, Close: 1.12, High: 1.125, Low: 1.065},
	})
	assert.True(t, a.ConfirmEntry(ctx, "EURUSD"))

	b.SetCandles("EURUSD", models.M15, []models.Candle{
		{Open: 0.99, Close: 1.00, High: 1.005, Low: 0.985},
		{Open: 1.00, Close: 1.01, High: 1.02, Low: 0.99},
		{Open: 1.01, Close: 1.05, High: 1.055, Low: 1.005},
	})
	assert.False(t, a.ConfirmEntry(ctx, "EURUSD"))
}
