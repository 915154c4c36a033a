// Package sessions runs the scan loop for a single trading account.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"sentinel_bot/internal/broker"
	"sentinel_bot/internal/filters"
	"sentinel_bot/internal/models"
	"sentinel_bot/internal/notify"
	"sentinel_bot/internal/risk"
	"sentinel_bot/internal/strategy"
)

// ErrNoSymbols stops a session whose symbol list resolves to nothing on the broker.
var ErrNoSymbols = errors.New("no valid symbols found")

// Journal is the part of trade memory a session reads and writes.
type Journal interface {
	AnalyzePattern(symbol string) models.StrategyFeedback
	RecordTrade(ctx context.Context, rec models.TradeRecord) (models.TradeRecord, error)
	OpenRecords() []models.TradeRecord
	CloseTrade(ctx context.Context, symbol string, ticket int64, exit, profit float64, closedAt time.Time) (bool, error)
}

type SentimentProvider interface {
	Sentiment(ctx context.Context, symbol string) (float64, bool)
	IsStrongNewsEvent(ctx context.Context, symbol string) bool
}

// EngineFactory binds a decision engine to the session's broker.
type EngineFactory func(md broker.MarketData) strategy.Engine

type Config struct {
	MaxTradesAtOnce   int
	MaxSpreadPoints   float64
	MaxLot            float64
	IgnoreSpreadCheck bool
	MagicNumber       int64
	BaseSymbols       []string

	ScanInterval time.Duration
	SymbolPause  time.Duration
	HealthRetry  time.Duration
	BusyWait     time.Duration
	CallTimeout  time.Duration
}

type Deps struct {
	Factory   broker.Factory
	Engine    EngineFactory
	Journal   Journal
	Sentiment SentimentProvider
	Notifier  notify.Notifier
	Schedule  *filters.Schedule
	Tiers     risk.Tiers
	Log       *zap.Logger
}

// Status is a point-in-time view of a running session.
type Status struct {
	AccountID  int64     `json:"account_id"`
	Symbols    []string  `json:"symbols"`
	Cycles     int64     `json:"cycles"`
	Orders     int64     `json:"orders"`
	LastCycle  time.Time `json:"last_cycle,omitempty"`
	LastSignal string    `json:"last_signal,omitempty"`
	LastError  string    `json:"last_error,omitempty"`
}

type UserSession struct {
	Account models.Account

	cfg  Config
	deps Deps
	log  *zap.Logger

	broker  broker.Broker
	engine  strategy.Engine
	symbols []string

	mu     sync.RWMutex
	status Status
}

func New(acc models.Account, cfg Config, deps Deps) *UserSession {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.NewAsync(notify.NewStdout(deps.Log), 0, deps.Log)
	}
	if deps.Schedule == nil {
		deps.Schedule = &filters.Schedule{Sessions: filters.DefaultSessions()}
	}
	if len(deps.Tiers) == 0 {
		deps.Tiers = risk.DefaultTiers()
	}
	if cfg.MaxTradesAtOnce <= 0 {
		cfg.MaxTradesAtOnce = 1
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 10 * time.Second
	}
	return &UserSession{
		Account: acc,
		cfg:     cfg,
		deps:    deps,
		log:     deps.Log.With(zap.Int64("account", acc.ID)),
		status:  Status{AccountID: acc.ID},
	}
}

func (s *UserSession) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.status
	st.Symbols = append([]string(nil), s.status.Symbols...)
	return st
}

func (s *UserSession) update(fn func(st *Status)) {
	s.mu.Lock()
	fn(&s.status)
	s.mu.Unlock()
}

// Run blocks until ctx is cancelled. The broker session is opened on entry
// and closed on every exit path, including a recovered panic.
func (s *UserSession) Run(ctx context.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			s.log.Error("session panic", zap.Any("panic", p), zap.ByteString("stack", debug.Stack()))
			err = fmt.Errorf("session %d panic: %v", s.Account.ID, p)
		}
		if s.broker != nil {
			if cerr := s.broker.Close(); cerr != nil {
				s.log.Warn("broker close", zap.Error(cerr))
			}
			s.broker = nil
		}
		s.notify("🛑 Bot stopped for %s", s.Account.Name)
	}()

	if err = s.connect(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	s.notify("🚀 Bot started for %s: %d symbols", s.Account.Name, len(s.symbols))

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		wait := s.cycle(ctx)
		if !sleep(ctx, wait) {
			return nil
		}
	}
}

// connect opens the broker, retrying while the terminal is unreachable.
func (s *UserSession) connect(ctx context.Context) error {
	for {
		openCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
		b, err := s.deps.Factory.Open(openCtx, s.Account)
		cancel()
		if err == nil {
			s.broker = b
			s.engine = s.deps.Engine(b)
			s.symbols = s.resolveSymbols(ctx)
			if len(s.symbols) == 0 {
				s.log.Error("no valid symbols", zap.Strings("configured", s.Account.Symbols))
				s.notify("❌ No valid symbols found for %s", s.Account.Name)
				s.update(func(st *Status) { st.LastError = ErrNoSymbols.Error() })
				return ErrNoSymbols
			}
			s.update(func(st *Status) { st.Symbols = append([]string(nil), s.symbols...) })
			return nil
		}

		s.log.Warn("broker connect failed", zap.Error(err))
		s.notify("⚠️ Terminal unavailable for %s: %v", s.Account.Name, err)
		s.update(func(st *Status) { st.LastError = err.Error() })
		if !sleep(ctx, s.cfg.HealthRetry) {
			return ctx.Err()
		}
	}
}

func (s *UserSession) resolveSymbols(ctx context.Context) []string {
	base := s.Account.Symbols
	if len(base) == 0 {
		base = s.cfg.BaseSymbols
	}
	cctx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	syms, err := broker.ResolveSymbols(cctx, s.broker, base)
	if err != nil {
		s.log.Warn("symbol list unavailable, using configured names", zap.Error(err))
		return base
	}
	s.log.Info("symbols resolved", zap.Strings("symbols", syms))
	return syms
}

func (s *UserSession) notify(format string, args ...any) {
	s.deps.Notifier.Notifyf(s.Account.ChatID, format, args...)
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
