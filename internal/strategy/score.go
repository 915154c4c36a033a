package strategy

import (
	"math"

	"sentinel_bot/internal/helper"
	"sentinel_bot/internal/models"
)

const (
	volatilityWeight    = 0.5
	sentimentWeight     = 0.3
	orderBlockBonus     = 0.2
	trendStrengthWeight = 0.4
)

type ScoreInput struct {
	StopLoss      float64
	TakeProfit    float64
	Volatility    float64
	Trend         models.Trend
	Sentiment     *float64
	OrderBlock    bool
	TrendStrength *float64
}

// Score ranks candidates within one cycle; higher is better.
func Score(in ScoreInput) float64 {
	score := math.Abs(in.TakeProfit - in.StopLoss)

	if in.Volatility > 0 {
		score += volatilityWeight * in.Volatility
	}

	if s := helper.ClampPtr(in.Sentiment, -1, 1); s != nil {
		aligned := (in.Trend == models.TrendUp && *s > 0) || (in.Trend == models.TrendDown && *s < 0)
		if aligned {
			score += sentimentWeight * math.Abs(*s)
		}
	}

	if in.OrderBlock {
		score += orderBlockBonus
	}

	if ts := helper.ClampPtr(in.TrendStrength, 0, 1); ts != nil {
		score += trendStrengthWeight * *ts
	}

	return helper.RoundPrice(score)
}
