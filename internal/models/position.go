package models

import "time"

type Position struct {
	Ticket    int64     `json:"ticket"`
	Symbol    string    `json:"symbol"`
	Direction Direction `json:"direction"`
	Volume    float64   `json:"volume"`
	OpenPrice float64   `json:"open_price"`
	SL        float64   `json:"sl"`
	TP        float64   `json:"tp"`
	Profit    float64   `json:"profit"`
	OpenedAt  time.Time `json:"opened_at"`
}

// Deal is a closed position as reported by the broker history.
type Deal struct {
	Ticket    int64     `json:"ticket"`
	Symbol    string    `json:"symbol"`
	ExitPrice float64   `json:"exit_price"`
	Profit    float64   `json:"profit"`
	ClosedAt  time.Time `json:"closed_at"`
}

type OrderRequest struct {
	Symbol     string    `json:"symbol"`
	Direction  Direction `json:"direction"`
	Lot        float64   `json:"lot"`
	Price      float64   `json:"price"`
	StopLoss   float64   `json:"sl"`
	TakeProfit float64   `json:"tp"`
	Magic      int64     `json:"magic"`
	Comment    string    `json:"comment"`
}

type OrderResult struct {
	Ticket int64   `json:"ticket"`
	Price  float64 `json:"price"`
}
