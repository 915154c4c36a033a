package models

import "time"

// Timeframe is a broker-neutral candle period.
type Timeframe string

const (
	M15 Timeframe = "M15"
	H1  Timeframe = "H1"
	H4  Timeframe = "H4"
	D1  Timeframe = "D1"
	W1  Timeframe = "W1"
)

// Candle is one OHLCV bar. Slices of candles are always ordered oldest first.
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

func (c Candle) Range() float64 { return c.High - c.Low }

func (c Candle) Body() float64 {
	if c.Close > c.Open {
		return c.Close - c.Open
	}
	return c.Open - c.Close
}

func (c Candle) Bullish() bool { return c.Close > c.Open }
func (c Candle) Bearish() bool { return c.Close < c.Open }

type Tick struct {
	Bid  float64   `json:"bid"`
	Ask  float64   `json:"ask"`
	Time time.Time `json:"time"`
}

// SymbolInfo carries the instrument metadata the engine needs.
type SymbolInfo struct {
	Name      string  `json:"name"`
	Point     float64 `json:"point"`
	Tradeable bool    `json:"tradeable"`
	Visible   bool    `json:"visible"`
}

// Zone is a price band, Low <= High.
type Zone struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}
