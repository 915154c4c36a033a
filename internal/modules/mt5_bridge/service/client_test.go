package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel_bot/internal/broker"
	"sentinel_bot/internal/models"
)

type fakeBridge struct {
	t *testing.T

	mu      sync.Mutex
	results map[string]any
	errs    map[string]*rpcError
	calls   []request
	raw     map[string]json.RawMessage
}

func newFakeBridge(t *testing.T) (*fakeBridge, *httptest.Server) {
	fb := &fakeBridge{
		t:       t,
		results: map[string]any{methodLogin: true, methodPing: map[string]any{"connected": true}},
		errs:    map[string]*rpcError{},
		raw:     map[string]json.RawMessage{},
	}
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var req struct {
				ID     uint64          `json:"id"`
				Method string          `json:"method"`
				Params json.RawMessage `json:"params"`
			}
			if err := sonic.Unmarshal(msg, &req); err != nil {
				return
			}
			fb.mu.Lock()
			fb.calls = append(fb.calls, request{ID: req.ID, Method: req.Method})
			fb.raw[req.Method] = req.Params
			out := map[string]any{"id": req.ID}
			if e, ok := fb.errs[req.Method]; ok {
				out["error"] = e
			} else {
				out["result"] = fb.results[req.Method]
			}
			fb.mu.Unlock()
			if err := conn.WriteJSON(out); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return fb, srv
}

func (fb *fakeBridge) set(method string, v any) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.results[method] = v
}

func (fb *fakeBridge) params(method string) map[string]any {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	var m map[string]any
	require.NoError(fb.t, json.Unmarshal(fb.raw[method], &m))
	return m
}

func (fb *fakeBridge) methods() []string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	var out []string
	for _, c := range fb.calls {
		out = append(out, c.Method)
	}
	return out
}

func dialFake(t *testing.T, srv *httptest.Server) *Client {
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c, err := Dial(context.Background(), Config{URL: url, Login: 5001, Password: "secret", Server: "Demo", CallTimeout: 2 * time.Second}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestDialLogsIn(t *testing.T) {
	fb, srv := newFakeBridge(t)
	c := dialFake(t, srv)

	require.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, []string{methodLogin, methodPing}, fb.methods())
	p := fb.params(methodLogin)
	assert.EqualValues(t, 5001, p["login"])
	assert.Equal(t, "Demo", p["server"])
}

func TestDialLoginRejected(t *testing.T) {
	fb, srv := newFakeBridge(t)
	fb.set(methodLogin, false)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, err := Dial(context.Background(), Config{URL: url, Login: 1}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, broker.ErrNotConnected)
}

func TestCandlesSortedOldestFirst(t *testing.T) {
	fb, srv := newFakeBridge(t)
	fb.set(methodRates, []map[string]any{
		{"time": 7200, "open": 1.2, "high": 1.3, "low": 1.1, "close": 1.25, "tick_volume": 10},
		{"time": 3600, "open": 1.1, "high": 1.2, "low": 1.0, "close": 1.15, "tick_volume": 12},
	})
	c := dialFake(t, srv)

	cs, err := c.Candles(context.Background(), "EURUSD", models.H1, 2)
	require.NoError(t, err)
	require.Len(t, cs, 2)
	assert.Equal(t, int64(3600), cs[0].Time.Unix())
	assert.Equal(t, 1.25, cs[1].Close)

	p := fb.params(methodRates)
	assert.EqualValues(t, 16385, p["timeframe"])
	assert.EqualValues(t, 1, p["start_pos"])
}

func TestCandlesUnknownTimeframe(t *testing.T) {
	_, srv := newFakeBridge(t)
	c := dialFake(t, srv)

	_, err := c.Candles(context.Background(), "EURUSD", models.Timeframe("M7"), 2)
	assert.Error(t, err)
}

func TestTickMissingIsUnavailable(t *testing.T) {
	fb, srv := newFakeBridge(t)
	c := dialFake(t, srv)

	_, err := c.Tick(context.Background(), "EURUSD")
	assert.ErrorIs(t, err, broker.ErrUnavailable)

	fb.set(methodTick, map[string]any{"bid": 1.1, "ask": 1.1002, "time": 100})
	tk, err := c.Tick(context.Background(), "EURUSD")
	require.NoError(t, err)
	assert.Equal(t, 1.1002, tk.Ask)
}

func TestSymbolInfoTradeMode(t *testing.T) {
	fb, srv := newFakeBridge(t)
	fb.set(methodSymbolInfo, map[string]any{"name": "XAUUSD", "point": 0.01, "trade_mode": 0, "visible": true})
	c := dialFake(t, srv)

	info, err := c.SymbolInfo(context.Background(), "XAUUSD")
	require.NoError(t, err)
	assert.False(t, info.Tradeable)
	assert.Equal(t, 0.01, info.Point)
}

func TestPlaceOrder(t *testing.T) {
	fb, srv := newFakeBridge(t)
	fb.set(methodOrderSend, map[string]any{"retcode": 10009, "order": 77, "price": 1.1003})
	c := dialFake(t, srv)

	res, err := c.PlaceOrder(context.Background(), models.OrderRequest{
		Symbol: "EURUSD", Direction: models.Sell, Lot: 0.1, Price: 1.1, StopLoss: 1.103, TakeProfit: 1.097, Magic: 123456,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(77), res.Ticket)
	assert.Equal(t, 1.1003, res.Price)

	p := fb.params(methodOrderSend)
	assert.EqualValues(t, orderTypeSell, p["type"])
	assert.EqualValues(t, 123456, p["magic"])
	assert.EqualValues(t, tradeActionDeal, p["action"])
}

func TestPlaceOrderRejected(t *testing.T) {
	fb, srv := newFakeBridge(t)
	fb.set(methodOrderSend, map[string]any{"retcode": 10019, "comment": "No money"})
	c := dialFake(t, srv)

	_, err := c.PlaceOrder(context.Background(), models.OrderRequest{Symbol: "EURUSD", Direction: models.Buy, Lot: 0.1})
	require.Error(t, err)
	assert.ErrorIs(t, err, broker.ErrOrderRejected)
	assert.Contains(t, err.Error(), "No money")
}

func TestBridgeErrorSurfaces(t *testing.T) {
	fb, srv := newFakeBridge(t)
	fb.mu.Lock()
	fb.errs[methodAccount] = &rpcError{Code: -2, Message: "terminal offline"}
	fb.mu.Unlock()
	c := dialFake(t, srv)

	_, err := c.Balance(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "terminal offline")
}

func TestClosedDealsKeepsExits(t *testing.T) {
	fb, srv := newFakeBridge(t)
	fb.set(methodHistoryDeals, []map[string]any{
		{"ticket": 1, "position_id": 77, "symbol": "EURUSD", "entry": 0, "price": 1.1, "time": 100},
		{"ticket": 2, "position_id": 77, "symbol": "EURUSD", "entry": 1, "price": 1.097, "profit": 30, "time": 200},
	})
	c := dialFake(t, srv)

	deals, err := c.ClosedDeals(context.Background(), time.Unix(0, 0))
	require.NoError(t, err)
	require.Len(t, deals, 1)
	assert.Equal(t, int64(77), deals[0].Ticket)
	assert.Equal(t, 30.0, deals[0].Profit)
}

func TestCallsAfterCloseFail(t *testing.T) {
	_, srv := newFakeBridge(t)
	c := dialFake(t, srv)
	require.NoError(t, c.Close())

	err := c.Ping(context.Background())
	assert.ErrorIs(t, err, broker.ErrNotConnected)
}
