package analysis

import (
	"context"
	"math"

	"sentinel_bot/internal/helper"
	"sentinel_bot/internal/models"
)

const (
	structureCandles  = 30
	structureLookback = 5
	mitigationCandles = 20
)

// StructureBreak classifies the last H1 swing. ok is false with fewer than five candles.
func (a *Analyzer) StructureBreak(ctx context.Context, symbol string) (models.Structure, bool) {
	cs := a.candles(ctx, symbol, models.H1, structureCandles)
	if len(cs) < structureLookback {
		return models.StructureNone, false
	}
	return classifyStructure(tail(cs, structureLookback)), true
}

func classifyStructure(cs []models.Candle) models.Structure {
	last := cs[len(cs)-1]
	prevHigh, prevLow := math.Inf(-1), math.Inf(1)
	for _, c := range cs[:len(cs)-1] {
		prevHigh = math.Max(prevHigh, c.High)
		prevLow = math.Min(prevLow, c.Low)
	}
	switch {
	case last.High > prevHigh:
		return models.StructureBOSUp
	case last.Low < prevLow:
		return models.StructureBOSDown
	case last.Low > prevLow && last.High < prevHigh:
		return models.StructureCHoCH
	}
	return models.StructureNone
}

// MitigationZone is the range of the last opposite-colour H1 candle: bearish
// for an uptrend, bullish for a downtrend.
func (a *Analyzer) MitigationZone(ctx context.Context, symbol string, trend models.Trend) (models.Zone, bool) {
	cs := a.candles(ctx, symbol, models.H1, mitigationCandles)
	for i := len(cs) - 1; i >= 0; i-- {
		c := cs[i]
		if (trend == models.TrendUp && c.Bearish()) || (trend == models.TrendDown && c.Bullish()) {
			return models.Zone{Low: helper.RoundPrice(c.Low), High: helper.RoundPrice(c.High)}, true
		}
	}
	return models.Zone{}, false
}
