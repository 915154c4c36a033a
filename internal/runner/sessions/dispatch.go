package sessions

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"sentinel_bot/internal/models"
	"sentinel_bot/internal/risk"
)

// dispatch sizes the winning candidate, sends it and journals the fill.
// A rejected order is reported once and not retried.
func (s *UserSession) dispatch(ctx context.Context, c *models.TradeCandidate, balance float64) {
	fb := s.deps.Journal.AnalyzePattern(c.Symbol)
	riskPct := s.deps.Tiers.RiskPercent(balance, fb)
	c.Lot = risk.CalculateLot(balance, riskPct, s.cfg.MaxLot)

	log := s.log.With(zap.String("symbol", c.Symbol))
	log.Info("dispatching",
		zap.Stringer("candidate", c),
		zap.Float64("balance", balance),
		zap.Float64("risk_percent", riskPct),
		zap.Bool("risk_halved", fb.AdjustRisk),
	)
	s.update(func(st *Status) { st.LastSignal = c.String() })

	req := models.OrderRequest{
		Symbol:     c.Symbol,
		Direction:  c.Direction,
		Lot:        c.Lot,
		Price:      c.Entry,
		StopLoss:   c.StopLoss,
		TakeProfit: c.TakeProfit,
		Magic:      s.cfg.MagicNumber,
		Comment:    fmt.Sprintf("sentinel %s", c.Trend),
	}

	cctx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	res, err := s.broker.PlaceOrder(cctx, req)
	cancel()
	if err != nil {
		log.Error("order failed", zap.Error(err))
		s.notify("❌ Order failed on %s: %v", c.Symbol, err)
		s.update(func(st *Status) { st.LastError = err.Error() })
		return
	}

	entry := res.Price
	if entry == 0 {
		entry = c.Entry
	}
	rec, err := s.deps.Journal.RecordTrade(ctx, models.TradeRecord{
		Symbol:     c.Symbol,
		Ticket:     res.Ticket,
		Direction:  c.Direction,
		EntryPrice: entry,
		Sentiment:  c.Sentiment,
		Bias:       string(c.Trend),
	})
	if err != nil {
		// the position is live; only the journal entry is missing
		log.Error("record trade", zap.Int64("ticket", res.Ticket), zap.Error(err))
	} else {
		log.Info("trade recorded", zap.Stringer("id", rec.ID), zap.Int64("ticket", res.Ticket))
	}
	s.update(func(st *Status) { st.Orders++ })

	s.notify("✅ %s %s @ %.5f | SL %.5f TP %.5f | lot %.2f | score %.3f\n%s",
		c.Direction, c.Symbol, entry, c.StopLoss, c.TakeProfit, c.Lot, c.Score, c.Reason)
}
