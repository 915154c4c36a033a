package models

import "fmt"

type Trend string

const (
	TrendUp   Trend = "UP"
	TrendDown Trend = "DOWN"
	TrendNone Trend = "NONE"
)

// Direction maps the trend onto the order side.
func (t Trend) Direction() (Direction, bool) {
	switch t {
	case TrendUp:
		return Buy, true
	case TrendDown:
		return Sell, true
	}
	return "", false
}

type Direction string

const (
	Buy  Direction = "buy"
	Sell Direction = "sell"
)

// Structure is the market structure event seen on the last H1 swing.
type Structure string

const (
	StructureNone    Structure = "NONE"
	StructureBOSUp   Structure = "BOS_UP"
	StructureBOSDown Structure = "BOS_DOWN"
	StructureCHoCH   Structure = "CHOCH"
)

// TradeCandidate is a fully specified trade proposal for one symbol.
type TradeCandidate struct {
	Symbol     string
	Trend      Trend
	Direction  Direction
	Entry      float64
	StopLoss   float64
	TakeProfit float64
	Lot        float64
	Score      float64
	Sentiment  *float64
	Structure  Structure
	Reason     string
}

func (c *TradeCandidate) String() string {
	return fmt.Sprintf("%s %s @ %.5f SL=%.5f TP=%.5f lot=%.2f score=%.5f",
		c.Symbol, c.Direction, c.Entry, c.StopLoss, c.TakeProfit, c.Lot, c.Score)
}

// StrategyFeedback is derived from recent trade memory for one symbol.
// Nil pointers mean "not provided".
type StrategyFeedback struct {
	AdjustRisk    bool     `json:"adjust_risk"`
	StreakLoss    bool     `json:"streak_loss"`
	StreakWin     bool     `json:"streak_win"`
	LastSentiment *float64 `json:"last_sentiment,omitempty"`
	TrendStrength *float64 `json:"trend_strength,omitempty"`
}

type RiskTier struct {
	BalanceMax  float64 `yaml:"balance_max" json:"balance_max"`
	RiskPercent float64 `yaml:"risk_percent" json:"risk_percent"`
}
