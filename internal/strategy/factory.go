package strategy

import (
	"go.uber.org/zap"

	"sentinel_bot/internal/analysis"
	"sentinel_bot/internal/broker"
)

type Settings struct {
	MaxStopPips float64
	DefaultLot  float64
	Analysis    analysis.Config
	Decider     Config
}

// NewEngine builds a decider bound to one broker session.
func NewEngine(md broker.MarketData, s Settings, log *zap.Logger) Engine {
	acfg := s.Analysis
	if s.MaxStopPips > 0 {
		acfg.MaxStopPips = s.MaxStopPips
	}
	dcfg := s.Decider
	if s.DefaultLot > 0 {
		dcfg.DefaultLot = s.DefaultLot
	}
	return NewDecider(analysis.NewAnalyzer(md, acfg, log), md, dcfg, log)
}
