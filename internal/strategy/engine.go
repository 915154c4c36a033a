package strategy

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"sentinel_bot/internal/analysis"
	"sentinel_bot/internal/helper"
	"sentinel_bot/internal/models"
)

const DefaultLot = 0.01

type Config struct {
	DefaultLot       float64
	VolatilityPeriod int
	CallTimeout      time.Duration
}

// Decider runs the gate chain: ranging, trend, sentiment, confirmation, tick.
type Decider struct {
	an    MarketAnalyzer
	ticks TickSource
	cfg   Config
	log   *zap.Logger
}

func NewDecider(an MarketAnalyzer, ticks TickSource, cfg Config, log *zap.Logger) *Decider {
	if cfg.DefaultLot <= 0 {
		cfg.DefaultLot = DefaultLot
	}
	if cfg.VolatilityPeriod <= 0 {
		cfg.VolatilityPeriod = analysis.VolatilityPeriod
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Decider{an: an, ticks: ticks, cfg: cfg, log: log}
}

func (d *Decider) Decide(
	ctx context.Context,
	symbol string,
	sentiment *float64,
	fb models.StrategyFeedback,
) (*models.TradeCandidate, Rejection) {
	sentiment = helper.ClampPtr(sentiment, -1, 1)

	if d.an.IsRanging(ctx, symbol) {
		return d.reject(symbol, RejectRanging)
	}

	trend := d.an.TrendDirection(ctx, symbol)
	dir, ok := trend.Direction()
	if !ok {
		return d.reject(symbol, RejectNoTrend)
	}

	if contradicts(trend, sentiment) {
		return d.reject(symbol, RejectSentiment)
	}

	if !d.an.ConfirmEntry(ctx, symbol) {
		return d.reject(symbol, RejectNoConfirm)
	}

	tick, err := d.tick(ctx, symbol)
	if err != nil {
		d.log.Debug("tick unavailable", zap.String("symbol", symbol), zap.Error(err))
		return d.reject(symbol, RejectNoTick)
	}

	entry := tick.Bid
	if trend == models.TrendUp {
		entry = tick.Ask
	}
	if entry <= 0 {
		return d.reject(symbol, RejectNoTick)
	}

	sl, tp, obFound := d.an.Stops(ctx, symbol, trend, entry)
	if !stopsValid(trend, entry, sl, tp) {
		return d.reject(symbol, RejectInvalidStop)
	}

	vol := d.an.Volatility(ctx, symbol, d.cfg.VolatilityPeriod)
	structure, _ := d.an.StructureBreak(ctx, symbol)

	c := &models.TradeCandidate{
		Symbol:     symbol,
		Trend:      trend,
		Direction:  dir,
		Entry:      entry,
		StopLoss:   sl,
		TakeProfit: tp,
		Lot:        d.cfg.DefaultLot,
		Sentiment:  sentiment,
		Structure:  structure,
	}
	c.Score = Score(ScoreInput{
		StopLoss:      sl,
		TakeProfit:    tp,
		Volatility:    vol,
		Trend:         trend,
		Sentiment:     sentiment,
		OrderBlock:    obFound,
		TrendStrength: fb.TrendStrength,
	})
	c.Reason = fmt.Sprintf("trend=%s structure=%s ob=%t vol=%.5f", trend, structure, obFound, vol)
	if z, ok := d.an.MitigationZone(ctx, symbol, trend); ok {
		c.Reason += fmt.Sprintf(" mz=[%.5f,%.5f]", z.Low, z.High)
	}

	d.log.Info("candidate",
		zap.String("symbol", symbol),
		zap.String("direction", string(dir)),
		zap.Float64("entry", entry),
		zap.Float64("sl", sl),
		zap.Float64("tp", tp),
		zap.Float64("score", c.Score),
	)
	return c, Accepted
}

func (d *Decider) tick(ctx context.Context, symbol string) (models.Tick, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.CallTimeout)
	defer cancel()
	return d.ticks.Tick(ctx, symbol)
}

func (d *Decider) reject(symbol string, r Rejection) (*models.TradeCandidate, Rejection) {
	d.log.Debug("rejected", zap.String("symbol", symbol), zap.String("gate", string(r)))
	return nil, r
}

func contradicts(trend models.Trend, sentiment *float64) bool {
	if sentiment == nil {
		return false
	}
	return (trend == models.TrendUp && *sentiment < 0) ||
		(trend == models.TrendDown && *sentiment > 0)
}

// stopsValid rejects zones that ended up on the wrong side of the entry.
func stopsValid(trend models.Trend, entry, sl, tp float64) bool {
	if trend == models.TrendUp {
		return sl < entry && tp > entry
	}
	return sl > entry && tp < entry
}
