// Package memory keeps a per-symbol journal of trades and derives risk feedback from it.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sentinel_bot/internal/helper"
	"sentinel_bot/internal/models"
)

const (
	DefaultRecentLimit = 10
	streakThreshold    = 3
)

type StrategyUpdate struct {
	RiskReduction bool `json:"risk_reduction,omitempty"`
}

// Tracker holds every record in memory and writes through to the store.
// A single mutex serializes all writes.
type Tracker struct {
	store Store
	now   func() time.Time
	log   *zap.Logger

	mu       sync.RWMutex
	bySymbol map[string][]*models.TradeRecord
}

func NewTracker(store Store, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{
		store:    store,
		now:      func() time.Time { return time.Now().UTC() },
		log:      log,
		bySymbol: make(map[string][]*models.TradeRecord),
	}
}

// WithClock overrides the default timestamp source.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// Load replaces the in-memory journal with the store contents.
func (t *Tracker) Load(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Tracker.Load: %w", err)
		}
	}()

	recs, err := t.store.Load(ctx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.bySymbol = make(map[string][]*models.TradeRecord)
	for i := range recs {
		rec := recs[i]
		t.bySymbol[rec.Symbol] = append(t.bySymbol[rec.Symbol], &rec)
	}
	t.log.Info("trade memory loaded", zap.Int("records", len(recs)), zap.Int("symbols", len(t.bySymbol)))
	return nil
}

// RecordTrade appends a record, filling ID and timestamp when missing.
func (t *Tracker) RecordTrade(ctx context.Context, rec models.TradeRecord) (out models.TradeRecord, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Tracker.RecordTrade: %w", err)
		}
	}()

	if rec.Symbol == "" {
		return out, fmt.Errorf("empty symbol")
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.Time.IsZero() {
		rec.Time = t.now()
	}
	rec.Time = rec.Time.UTC()

	t.mu.Lock()
	defer t.mu.Unlock()

	if err = t.store.Append(ctx, rec); err != nil {
		return out, err
	}
	stored := rec
	t.bySymbol[rec.Symbol] = append(t.bySymbol[rec.Symbol], &stored)
	return rec, nil
}

// CloseTrade fills exit data on the open record with the given ticket.
// It reports false when no open record matches.
func (t *Tracker) CloseTrade(
	ctx context.Context,
	symbol string,
	ticket int64,
	exit, profit float64,
	closedAt time.Time,
) (ok bool, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Tracker.CloseTrade: %w", err)
		}
	}()

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, rec := range t.bySymbol[symbol] {
		if rec.Ticket != ticket || !rec.Open() {
			continue
		}
		updated := *rec
		updated.ExitPrice = helper.Float(exit)
		updated.Profit = helper.Float(profit)
		at := closedAt.UTC()
		updated.ClosedAt = &at

		if err = t.store.Update(ctx, updated); err != nil {
			return false, err
		}
		*rec = updated
		return true, nil
	}
	return false, nil
}

// OpenRecords lists records still waiting for an exit, across all symbols.
func (t *Tracker) OpenRecords() []models.TradeRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []models.TradeRecord
	for _, recs := range t.bySymbol {
		for _, rec := range recs {
			if rec.Open() && rec.Ticket != 0 {
				out = append(out, *rec)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// RecentTrades returns the last limit records, oldest first.
func (t *Tracker) RecentTrades(symbol string, limit int) []models.TradeRecord {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	recs := t.bySymbol[symbol]
	if len(recs) > limit {
		recs = recs[len(recs)-limit:]
	}
	out := make([]models.TradeRecord, len(recs))
	for i, r := range recs {
		out[i] = *r
	}
	return out
}

// AnalyzePattern flags streaks over the last ten records. Only strictly
// negative or positive profits count.
func (t *Tracker) AnalyzePattern(symbol string) models.StrategyFeedback {
	recent := t.RecentTrades(symbol, DefaultRecentLimit)

	var wins, losses int
	for _, r := range recent {
		if r.Profit == nil {
			continue
		}
		switch {
		case *r.Profit < 0:
			losses++
		case *r.Profit > 0:
			wins++
		}
	}

	fb := models.StrategyFeedback{
		StreakLoss: losses >= streakThreshold,
		StreakWin:  wins >= streakThreshold,
	}
	fb.AdjustRisk = fb.StreakLoss
	if n := len(recent); n > 0 && recent[n-1].Sentiment != nil {
		fb.LastSentiment = helper.Float(*recent[n-1].Sentiment)
	}
	if fb.StreakLoss {
		t.log.Info("loss streak, reducing risk", zap.String("symbol", symbol), zap.Int("losses", losses))
	}
	return fb
}

func (t *Tracker) UpdateStrategy(symbol string) StrategyUpdate {
	return StrategyUpdate{RiskReduction: t.AnalyzePattern(symbol).AdjustRisk}
}

func (t *Tracker) SummarizeStats(symbol string) models.TradeStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	st := models.TradeStats{Symbol: symbol, TotalTrades: len(t.bySymbol[symbol])}
	for _, r := range t.bySymbol[symbol] {
		if r.Profit == nil {
			continue
		}
		switch {
		case *r.Profit > 0:
			st.Wins++
		case *r.Profit < 0:
			st.Losses++
		}
	}
	if st.TotalTrades > 0 {
		st.WinRate = helper.Round(float64(st.Wins)/float64(st.TotalTrades)*100, 2)
	}
	return st
}

// Symbols lists every symbol with at least one record.
func (t *Tracker) Symbols() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.bySymbol))
	for s := range t.bySymbol {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
