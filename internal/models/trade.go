package models

import (
	"time"

	"github.com/google/uuid"
)

// TradeRecord is one journaled trade. Exit fields stay nil until reconciliation.
type TradeRecord struct {
	ID         uuid.UUID  `json:"id"`
	Symbol     string     `json:"symbol"`
	Ticket     int64      `json:"ticket"`
	Direction  Direction  `json:"direction"`
	EntryPrice float64    `json:"entry_price"`
	ExitPrice  *float64   `json:"exit_price,omitempty"`
	Profit     *float64   `json:"profit,omitempty"`
	Sentiment  *float64   `json:"sentiment,omitempty"`
	Bias       string     `json:"bias,omitempty"`
	Time       time.Time  `json:"timestamp"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
}

func (r *TradeRecord) Open() bool { return r.ExitPrice == nil }

type TradeStats struct {
	Symbol      string  `json:"symbol"`
	TotalTrades int     `json:"total_trades"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	WinRate     float64 `json:"win_rate"`
}
