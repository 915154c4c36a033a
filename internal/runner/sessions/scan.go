package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"

	"sentinel_bot/internal/filters"
	"sentinel_bot/internal/models"
	"sentinel_bot/pkg/tracing"
)

// cycle runs one scan and returns how long to wait before the next one.
func (s *UserSession) cycle(ctx context.Context) (wait time.Duration) {
	span, ctx := tracing.StartSpan(ctx, "session.cycle", opentracing.Tags{"account": s.Account.ID})
	var cycleErr error
	defer func() { tracing.Finish(span, cycleErr) }()

	s.update(func(st *Status) {
		st.Cycles++
		st.LastCycle = time.Now().UTC()
	})

	balance, err := s.health(ctx)
	if err != nil {
		cycleErr = err
		s.log.Warn("health check failed", zap.Error(err))
		s.notify("⚠️ Terminal health check failed for %s: %v", s.Account.Name, err)
		s.update(func(st *Status) { st.LastError = err.Error() })
		return s.cfg.HealthRetry
	}

	s.reconcile(ctx)

	positions, err := s.openPositions(ctx)
	if err != nil {
		cycleErr = err
		s.log.Warn("positions unavailable", zap.Error(err))
		return s.cfg.HealthRetry
	}
	if len(positions) >= s.cfg.MaxTradesAtOnce {
		s.log.Debug("max open trades reached", zap.Int("open", len(positions)))
		return s.cfg.BusyWait
	}
	held := make(map[string]bool, len(positions))
	for _, p := range positions {
		held[p.Symbol] = true
	}

	best := s.scan(ctx, held)
	if ctx.Err() != nil {
		return 0
	}
	if best == nil {
		s.log.Debug("no candidates this cycle")
		return s.cfg.ScanInterval
	}
	s.dispatch(ctx, best, balance)
	return s.cfg.ScanInterval
}

// health pings the terminal and requires a positive balance.
func (s *UserSession) health(ctx context.Context) (float64, error) {
	cctx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	if err := s.broker.Ping(cctx); err != nil {
		return 0, fmt.Errorf("ping: %w", err)
	}
	balance, err := s.broker.Balance(cctx)
	if err != nil {
		return 0, fmt.Errorf("balance: %w", err)
	}
	if balance <= 0 {
		return 0, fmt.Errorf("balance is %.2f", balance)
	}
	return balance, nil
}

func (s *UserSession) openPositions(ctx context.Context) ([]models.Position, error) {
	cctx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	return s.broker.OpenPositions(cctx, "")
}

// scan evaluates symbols one by one and keeps the highest score.
// Ties keep the earlier symbol.
func (s *UserSession) scan(ctx context.Context, held map[string]bool) *models.TradeCandidate {
	var best *models.TradeCandidate
	for i, sym := range s.symbols {
		if i > 0 && !sleep(ctx, s.cfg.SymbolPause) {
			return best
		}
		c := s.evaluate(ctx, sym, held)
		if c == nil {
			continue
		}
		if best == nil || c.Score > best.Score {
			best = c
		}
	}
	return best
}

func (s *UserSession) evaluate(ctx context.Context, symbol string, held map[string]bool) *models.TradeCandidate {
	span, ctx := tracing.StartSpan(ctx, "session.symbol", opentracing.Tags{"symbol": symbol})
	defer span.Finish()

	log := s.log.With(zap.String("symbol", symbol))
	skip := func(reason string) *models.TradeCandidate {
		span.SetTag("skip", reason)
		log.Debug("skip", zap.String("reason", reason))
		return nil
	}

	if !s.deps.Schedule.Tradable(symbol) {
		return skip("outside trading hours")
	}
	if held[symbol] {
		return skip("position already open")
	}
	if s.deps.Sentiment.IsStrongNewsEvent(ctx, symbol) {
		return skip("strong news event")
	}
	if !s.cfg.IgnoreSpreadCheck && !s.spreadOK(ctx, symbol) {
		return skip("spread too wide")
	}

	var sentiment *float64
	if v, ok := s.deps.Sentiment.Sentiment(ctx, symbol); ok {
		sentiment = &v
	}
	fb := s.deps.Journal.AnalyzePattern(symbol)

	c, rej := s.engine.Decide(ctx, symbol, sentiment, fb)
	if c == nil {
		return skip(string(rej))
	}
	log.Info("candidate", zap.Stringer("candidate", c), zap.String("reason", c.Reason))
	span.SetTag("score", c.Score)
	return c
}

func (s *UserSession) spreadOK(ctx context.Context, symbol string) bool {
	cctx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	tick, err := s.broker.Tick(cctx, symbol)
	if err != nil {
		return false
	}
	info, err := s.broker.SymbolInfo(cctx, symbol)
	if err != nil {
		return false
	}
	return filters.SpreadOK(tick, info, s.cfg.MaxSpreadPoints)
}
