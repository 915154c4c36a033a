// Package analysis reads candles from the broker and derives trend, regime,
// volatility and price zones used to build trade candidates.
package analysis

import (
	"context"
	"math"
	"time"

	talib "github.com/markcheno/go-talib"
	"go.uber.org/zap"

	"sentinel_bot/internal/broker"
	"sentinel_bot/internal/helper"
	"sentinel_bot/internal/models"
)

const (
	DefaultPoint       = 0.0001
	DefaultMaxStopPips = 30
	VolatilityPeriod   = 14

	trendCandles   = 20
	trendFast      = 5
	trendSlow      = 15
	rangeCandles   = 50
	rangeFast      = 10
	rangeSlow      = 30
	rangeThreshold = 0.25
	obCandles      = 20
	obLookback     = 5
	srCandles      = 50
	srLookback     = 10
)

var trendFrames = []models.Timeframe{models.W1, models.D1, models.H4}

type Config struct {
	MaxStopPips float64
	CallTimeout time.Duration
}

type Analyzer struct {
	md  broker.MarketData
	cfg Config
	log *zap.Logger
}

func NewAnalyzer(md broker.MarketData, cfg Config, log *zap.Logger) *Analyzer {
	if cfg.MaxStopPips <= 0 {
		cfg.MaxStopPips = DefaultMaxStopPips
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{md: md, cfg: cfg, log: log}
}

// candles never fails: broker errors degrade to an empty slice.
func (a *Analyzer) candles(ctx context.Context, symbol string, tf models.Timeframe, count int) []models.Candle {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.CallTimeout)
	defer cancel()

	cs, err := a.md.Candles(ctx, symbol, tf, count)
	if err != nil {
		a.log.Debug("candles unavailable",
			zap.String("symbol", symbol), zap.String("tf", string(tf)), zap.Error(err))
		return nil
	}
	if len(cs) > count {
		cs = cs[len(cs)-count:]
	}
	return cs
}

// TrendDirection votes on W1, D1 and H4. A frame abstains when it has fewer
// closes than the slow average needs or when both averages are equal.
func (a *Analyzer) TrendDirection(ctx context.Context, symbol string) models.Trend {
	votes := make([]models.Trend, 0, len(trendFrames))
	for _, tf := range trendFrames {
		votes = append(votes, trendVote(a.candles(ctx, symbol, tf, trendCandles)))
	}
	return tally(votes)
}

func trendVote(cs []models.Candle) models.Trend {
	if len(cs) < trendSlow {
		return models.TrendNone
	}
	closes := closes(cs)
	fast, slow := lastSMA(closes, trendFast), lastSMA(closes, trendSlow)
	switch {
	case fast > slow:
		return models.TrendUp
	case fast < slow:
		return models.TrendDown
	}
	return models.TrendNone
}

func tally(votes []models.Trend) models.Trend {
	var up, down int
	for _, v := range votes {
		switch v {
		case models.TrendUp:
			up++
		case models.TrendDown:
			down++
		}
	}
	switch {
	case up >= 2:
		return models.TrendUp
	case down >= 2:
		return models.TrendDown
	}
	return models.TrendNone
}

// IsRanging reports MA compression on H4. No data counts as ranging.
func (a *Analyzer) IsRanging(ctx context.Context, symbol string) bool {
	return ranging(a.candles(ctx, symbol, models.H4, rangeCandles))
}

func ranging(cs []models.Candle) bool {
	if len(cs) == 0 {
		return true
	}
	closes := closes(cs)
	distance := math.Abs(lastSMA(closes, rangeFast) - lastSMA(closes, rangeSlow))
	return distance < rangeThreshold*meanRange(cs)
}

// Volatility is the mean H1 high-low range over the trailing period, 0 when short of data.
func (a *Analyzer) Volatility(ctx context.Context, symbol string, period int) float64 {
	if period <= 0 {
		period = VolatilityPeriod
	}
	cs := a.candles(ctx, symbol, models.H1, period+1)
	if len(cs) < period {
		return 0
	}
	return helper.RoundPrice(meanRange(cs[len(cs)-period:]))
}

// OrderBlock returns the last-5-of-20 H1 low (UP) or high (DOWN) as a stop anchor.
func (a *Analyzer) OrderBlock(ctx context.Context, symbol string, trend models.Trend) (float64, bool) {
	cs := a.candles(ctx, symbol, models.H1, obCandles)
	if len(cs) == 0 {
		return 0, false
	}
	if trend == models.TrendUp {
		return lowest(tail(cs, obLookback)), true
	}
	return highest(tail(cs, obLookback)), true
}

// SupportResistance returns the last-10-of-50 H1 high (UP) or low (DOWN) as a target.
func (a *Analyzer) SupportResistance(ctx context.Context, symbol string, trend models.Trend) (float64, bool) {
	cs := a.candles(ctx, symbol, models.H1, srCandles)
	if len(cs) == 0 {
		return 0, false
	}
	if trend == models.TrendUp {
		return highest(tail(cs, srLookback)), true
	}
	return lowest(tail(cs, srLookback)), true
}

// Point is the instrument increment, DefaultPoint when unknown.
func (a *Analyzer) Point(ctx context.Context, symbol string) float64 {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.CallTimeout)
	defer cancel()

	info, err := a.md.SymbolInfo(ctx, symbol)
	if err != nil || info.Point <= 0 {
		return DefaultPoint
	}
	return info.Point
}

// Stops derives stop-loss and take-profit for an entry, falling back to a
// fixed pip distance for any zone that is unavailable or already on the wrong
// side of entry (a breakout past the zone).
func (a *Analyzer) Stops(ctx context.Context, symbol string, trend models.Trend, entry float64) (sl, tp float64, obFound bool) {
	point := a.Point(ctx, symbol)
	k := a.cfg.MaxStopPips * point

	sign := 1.0
	if trend == models.TrendDown {
		sign = -1.0
	}

	sl, obFound = a.OrderBlock(ctx, symbol, trend)
	if obFound && sign*(entry-sl) <= 0 {
		obFound = false
	}
	if !obFound {
		sl = helper.RoundPrice(entry - sign*k)
	}
	tp, ok := a.SupportResistance(ctx, symbol, trend)
	if !ok || sign*(tp-entry) <= 0 {
		tp = helper.RoundPrice(entry + sign*2*k)
	}
	return sl, tp, obFound
}

func lowest(cs []models.Candle) float64 {
	v := cs[0].Low
	for _, c := range cs[1:] {
		v = math.Min(v, c.Low)
	}
	return helper.RoundPrice(v)
}

func highest(cs []models.Candle) float64 {
	v := cs[0].High
	for _, c := range cs[1:] {
		v = math.Max(v, c.High)
	}
	return helper.RoundPrice(v)
}

func tail(cs []models.Candle, n int) []models.Candle {
	if len(cs) > n {
		return cs[len(cs)-n:]
	}
	return cs
}

func closes(cs []models.Candle) []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Close
	}
	return out
}

func meanRange(cs []models.Candle) float64 {
	ranges := make([]float64, len(cs))
	for i, c := range cs {
		ranges[i] = c.Range()
	}
	return helper.Mean(ranges)
}

// lastSMA is the simple average of the trailing period values, or of all of
// them when fewer are available.
func lastSMA(xs []float64, period int) float64 {
	if len(xs) == 0 {
		return 0
	}
	if period > len(xs) {
		period = len(xs)
	}
	out := talib.Sma(xs, period)
	return out[len(out)-1]
}
