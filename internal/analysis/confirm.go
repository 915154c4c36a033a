package analysis

import (
	"context"

	"sentinel_bot/internal/models"
)

const (
	confirmCandles = 3
	pinBarBodyMax  = 0.25
)

// ConfirmEntry looks at the last two of three M15 candles for an engulfing
// pattern or a pin bar.
func (a *Analyzer) ConfirmEntry(ctx context.Context, symbol string) bool {
	cs := a.candles(ctx, symbol, models.M15, confirmCandles)
	if len(cs) < confirmCandles {
		return false
	}
	prev, curr := cs[len(cs)-2], cs[len(cs)-1]
	return Engulfing(prev, curr) || PinBar(curr)
}

// Engulfing reports a bullish or bearish engulfing pair.
func Engulfing(prev, curr models.Candle) bool {
	bullish := prev.Bearish() && curr.Bullish() &&
		curr.Close > prev.Open && curr.Open < prev.Close
	bearish := prev.Bullish() && curr.Bearish() &&
		curr.Close < prev.Open && curr.Open > prev.Close
	return bullish || bearish
}

// PinBar: body under a quarter of the full range.
func PinBar(c models.Candle) bool {
	return c.Body() < pinBarBodyMax*c.Range()
}
