package filters

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sentinel_bot/internal/models"
)

func schedule(at time.Time) *Schedule {
	return &Schedule{
		Clock:              FixedClock(at),
		Sessions:           DefaultSessions(),
		CryptoSymbols:      []string{"BTCUSD", "ETHUSD"},
		AllowWeekendCrypto: true,
	}
}

func TestTradable(t *testing.T) {
	// 2026-01-05 is a Monday, 2026-01-10 a Saturday
	tests := []struct {
		name   string
		at     time.Time
		symbol string
		want   bool
	}{
		{"london open", time.Date(2026, 1, 5, 7, 0, 0, 0, time.UTC), "EURUSD", true},
		{"gap between new york and asia", time.Date(2026, 1, 5, 22, 30, 0, 0, time.UTC), "EURUSD", false},
		{"asia wraps midnight", time.Date(2026, 1, 6, 2, 0, 0, 0, time.UTC), "USDJPY", true},
		{"asia end exclusive", time.Date(2026, 1, 6, 6, 0, 0, 0, time.UTC), "USDJPY", false},
		{"weekend fx", time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC), "EURUSD", false},
		{"weekend crypto", time.Date(2026, 1, 10, 3, 0, 0, 0, time.UTC), "BTCUSDm", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, schedule(tt.at).Tradable(tt.symbol))
		})
	}

	s := schedule(time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC))
	s.AllowWeekendCrypto = false
	assert.False(t, s.Tradable("BTCUSD"))
}

func TestSpreadOK(t *testing.T) {
	info := models.SymbolInfo{Name: "EURUSD", Point: 0.00001}
	assert.True(t, SpreadOK(models.Tick{Bid: 1.10000, Ask: 1.10003}, info, 3))
	assert.False(t, SpreadOK(models.Tick{Bid: 1.10000, Ask: 1.10004}, info, 3))
	assert.False(t, SpreadOK(models.Tick{Bid: 1.1, Ask: 1.1}, models.SymbolInfo{}, 3))
}
