package sessions

import (
	"context"
	"time"

	"go.uber.org/zap"

	"sentinel_bot/internal/broker"
)

// reconcileLookback bounds the history query when old records never got an exit.
const reconcileLookback = 7 * 24 * time.Hour

// reconcile fills exit data for journaled trades the broker reports as closed.
// Brokers without deal history are skipped.
func (s *UserSession) reconcile(ctx context.Context) {
	history, ok := s.broker.(broker.DealHistory)
	if !ok {
		return
	}
	open := s.deps.Journal.OpenRecords()
	if len(open) == 0 {
		return
	}

	// a position cannot close before it was opened
	since := open[0].Time
	if floor := time.Now().Add(-reconcileLookback); since.Before(floor) {
		since = floor
	}

	cctx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	deals, err := history.ClosedDeals(cctx, since)
	if err != nil {
		s.log.Warn("deal history unavailable", zap.Error(err))
		return
	}

	for _, d := range deals {
		closed, err := s.deps.Journal.CloseTrade(ctx, d.Symbol, d.Ticket, d.ExitPrice, d.Profit, d.ClosedAt)
		if err != nil {
			s.log.Error("close trade", zap.Int64("ticket", d.Ticket), zap.Error(err))
			continue
		}
		if closed {
			s.log.Info("trade closed",
				zap.String("symbol", d.Symbol),
				zap.Int64("ticket", d.Ticket),
				zap.Float64("profit", d.Profit),
			)
			s.notify("📘 %s #%d closed @ %.5f, profit %.2f", d.Symbol, d.Ticket, d.ExitPrice, d.Profit)
		}
	}
}
