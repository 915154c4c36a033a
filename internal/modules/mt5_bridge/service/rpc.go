package service

import (
	"encoding/json"
	"fmt"
	"time"

	"sentinel_bot/internal/models"
)

const (
	methodLogin        = "login"
	methodPing         = "terminal_info"
	methodRates        = "copy_rates_from_pos"
	methodTick         = "symbol_info_tick"
	methodSymbolInfo   = "symbol_info"
	methodSymbols      = "symbols_get"
	methodAccount      = "account_info"
	methodPositions    = "positions_get"
	methodOrderSend    = "order_send"
	methodHistoryDeals = "history_deals_get"
)

// MetaTrader 5 constants the bridge forwards verbatim.
const (
	tradeActionDeal    = 1
	orderTypeBuy       = 0
	orderTypeSell      = 1
	orderFillingIOC    = 1
	orderTimeGTC       = 0
	retcodePlaced      = 10008
	retcodeDone        = 10009
	dealEntryOut       = 1
	symbolTradeModeOff = 0
	defaultDeviation   = 20
)

var timeframes = map[models.Timeframe]int{
	models.M15: 15,
	models.H1:  16385,
	models.H4:  16388,
	models.D1:  16408,
	models.W1:  32769,
}

func mt5Timeframe(tf models.Timeframe) (int, error) {
	v, ok := timeframes[tf]
	if !ok {
		return 0, fmt.Errorf("unsupported timeframe %q", tf)
	}
	return v, nil
}

type request struct {
	ID     uint64 `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

type response struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string { return fmt.Sprintf("bridge error %d: %s", e.Code, e.Message) }

type rate struct {
	Time       int64   `json:"time"`
	Open       float64 `json:"open"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Close      float64 `json:"close"`
	TickVolume float64 `json:"tick_volume"`
}

func (r rate) candle() models.Candle {
	return models.Candle{
		Time:   time.Unix(r.Time, 0).UTC(),
		Open:   r.Open,
		High:   r.High,
		Low:    r.Low,
		Close:  r.Close,
		Volume: r.TickVolume,
	}
}

type tick struct {
	Time int64   `json:"time"`
	Bid  float64 `json:"bid"`
	Ask  float64 `json:"ask"`
}

type symbolInfo struct {
	Name      string  `json:"name"`
	Point     float64 `json:"point"`
	TradeMode int     `json:"trade_mode"`
	Visible   bool    `json:"visible"`
}

type accountInfo struct {
	Login    int64   `json:"login"`
	Balance  float64 `json:"balance"`
	Equity   float64 `json:"equity"`
	Currency string  `json:"currency"`
}

type position struct {
	Ticket    int64   `json:"ticket"`
	Symbol    string  `json:"symbol"`
	Type      int     `json:"type"`
	Volume    float64 `json:"volume"`
	PriceOpen float64 `json:"price_open"`
	SL        float64 `json:"sl"`
	TP        float64 `json:"tp"`
	Profit    float64 `json:"profit"`
	Time      int64   `json:"time"`
	Magic     int64   `json:"magic"`
}

func (p position) model() models.Position {
	dir := models.Buy
	if p.Type == orderTypeSell {
		dir = models.Sell
	}
	return models.Position{
		Ticket:    p.Ticket,
		Symbol:    p.Symbol,
		Direction: dir,
		Volume:    p.Volume,
		OpenPrice: p.PriceOpen,
		SL:        p.SL,
		TP:        p.TP,
		Profit:    p.Profit,
		OpenedAt:  time.Unix(p.Time, 0).UTC(),
	}
}

type orderSend struct {
	Action      int     `json:"action"`
	Symbol      string  `json:"symbol"`
	Volume      float64 `json:"volume"`
	Type        int     `json:"type"`
	Price       float64 `json:"price"`
	SL          float64 `json:"sl"`
	TP          float64 `json:"tp"`
	Deviation   int     `json:"deviation"`
	Magic       int64   `json:"magic"`
	Comment     string  `json:"comment"`
	TypeTime    int     `json:"type_time"`
	TypeFilling int     `json:"type_filling"`
}

type orderResult struct {
	Retcode int     `json:"retcode"`
	Order   int64   `json:"order"`
	Deal    int64   `json:"deal"`
	Price   float64 `json:"price"`
	Comment string  `json:"comment"`
}

type deal struct {
	Ticket     int64   `json:"ticket"`
	PositionID int64   `json:"position_id"`
	Symbol     string  `json:"symbol"`
	Entry      int     `json:"entry"`
	Price      float64 `json:"price"`
	Profit     float64 `json:"profit"`
	Time       int64   `json:"time"`
}
