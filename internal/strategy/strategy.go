// Package strategy turns market analysis into scored trade candidates.
package strategy

import (
	"context"

	"sentinel_bot/internal/models"
)

// Rejection names the gate that stopped a symbol. Empty means accepted.
type Rejection string

const (
	Accepted          Rejection = ""
	RejectRanging     Rejection = "ranging"
	RejectNoTrend     Rejection = "no_trend"
	RejectSentiment   Rejection = "sentiment_conflict"
	RejectNoConfirm   Rejection = "no_confirmation"
	RejectNoTick      Rejection = "no_tick"
	RejectInvalidStop Rejection = "invalid_stops"
)

// MarketAnalyzer is the subset of analysis the engine relies on.
type MarketAnalyzer interface {
	IsRanging(ctx context.Context, symbol string) bool
	TrendDirection(ctx context.Context, symbol string) models.Trend
	ConfirmEntry(ctx context.Context, symbol string) bool
	Stops(ctx context.Context, symbol string, trend models.Trend, entry float64) (sl, tp float64, obFound bool)
	Volatility(ctx context.Context, symbol string, period int) float64
	StructureBreak(ctx context.Context, symbol string) (models.Structure, bool)
	MitigationZone(ctx context.Context, symbol string, trend models.Trend) (models.Zone, bool)
}

type TickSource interface {
	Tick(ctx context.Context, symbol string) (models.Tick, error)
}

// Engine evaluates one symbol. Rejections are normal outcomes, not errors.
type Engine interface {
	Decide(ctx context.Context, symbol string, sentiment *float64, fb models.StrategyFeedback) (*models.TradeCandidate, Rejection)
}
