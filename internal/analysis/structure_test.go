package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel_bot/internal/broker/paper"
	"sentinel_bot/internal/models"
)

// series builds candles whose high/low sit halfSpan around each close.
func series(closes []float64, halfSpan float64) []models.Candle {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		out[i] = models.Candle{
			Time:  start.Add(time.Duration(i) * time.Hour),
			Open:  c,
			High:  c + halfSpan,
			Low:   c - halfSpan,
			Close: c,
		}
	}
	return out
}

func ramp(from, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + step*float64(i)
	}
	return out
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func newAnalyzer(b *paper.Broker) *Analyzer {
	return NewAnalyzer(b, Config{MaxStopPips: 30}, nil)
}

func TestTrendDirection(t *testing.T) {
	tests := []struct {
		name string
		w1   []float64
		d1   []float64
		h4   []float64
		want models.Trend
	}{
		{
			name: "two of three up",
			w1:   ramp(1, 0.01, 20),
			d1:   ramp(1, 0.01, 20),
			h4:   ramp(2, -0.01, 20),
			want: models.TrendUp,
		},
		{
			name: "all down",
			w1:   ramp(2, -0.01, 20),
			d1:   ramp(2, -0.01, 20),
			h4:   ramp(2, -0.01, 20),
			want: models.TrendDown,
		},
		{
			name: "one up one down one abstain",
			w1:   ramp(1, 0.01, 20),
			d1:   ramp(2, -0.01, 20),
			h4:   ramp(1, 0.01, 10),
			want: models.TrendNone,
		},
		{
			name: "flat frames abstain",
			w1:   ramp(1, 0.01, 20),
			d1:   repeat(1.5, 20),
			h4:   nil,
			want: models.TrendNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := paper.New(0)
			b.SetCandles("EURUSD", models.W1, series(tt.w1, 0.001))
			b.SetCandles("EURUSD", models.D1, series(tt.d1, 0.001))
			b.SetCandles("EURUSD", models.H4, series(tt.h4, 0.001))

			assert.Equal(t, tt.want, newAnalyzer(b).TrendDirection(context.Background(), "EURUSD"))
		})
	}
}

func TestIsRanging(t *testing.T) {
	ctx := context.Background()

	t.Run("no data fails safe", func(t *testing.T) {
		assert.True(t, newAnalyzer(paper.New(0)).IsRanging(ctx, "EURUSD"))
	})

	// fast(10)=11.5, slow(30)=10.5, distance 1.0; every range is 4.0 so the
	// threshold is exactly 1.0 and the strict comparison must not fire.
	t.Run("exact threshold is not ranging", func(t *testing.T) {
		closes := append(repeat(10, 40), repeat(11.5, 10)...)
		b := paper.New(0)
		b.SetCandles("EURUSD", models.H4, series(closes, 2))
		assert.False(t, newAnalyzer(b).IsRanging(ctx, "EURUSD"))
	})

	t.Run("compressed averages are ranging", func(t *testing.T) {
		closes := append(repeat(10, 40), repeat(11.5, 10)...)
		b := paper.New(0)
		b.SetCandles("EURUSD", models.H4, series(closes, 2.5))
		assert.True(t, newAnalyzer(b).IsRanging(ctx, "EURUSD"))
	})

	t.Run("trending market", func(t *testing.T) {
		b := paper.New(0)
		b.SetCandles("EURUSD", models.H4, series(ramp(1, 0.01, 50), 0.001))
		assert.False(t, newAnalyzer(b).IsRanging(ctx, "EURUSD"))
	})
}

func TestVolatility(t *testing.T) {
	ctx := context.Background()
	b := paper.New(0)
	b.SetCandles("EURUSD", models.H1, series(repeat(1.1, 15), 0.001))
	assert.InDelta(t, 0.002, newAnalyzer(b).Volatility(ctx, "EURUSD", 14), 1e-9)

	b.SetCandles("GBPUSD", models.H1, series(repeat(1.3, 10), 0.001))
	assert.Equal(t, 0.0, newAnalyzer(b).Volatility(ctx, "GBPUSD", 14))
}

func TestZones(t *testing.T) {
	ctx := context.Background()
	b := paper.New(0)
	// 50 rising H1 closes: 1.000 .. 1.049
	b.SetCandles("EURUSD", models.H1, series(ramp(1, 0.001, 50), 0.0005))
	a := newAnalyzer(b)

	ob, ok := a.OrderBlock(ctx, "EURUSD", models.TrendUp)
	require.True(t, ok)
	assert.InDelta(t, 1.0445, ob, 1e-9)

	ob, ok = a.OrderBlock(ctx, "EURUSD", models.TrendDown)
	require.True(t, ok)
	assert.InDelta(t, 1.0495, ob, 1e-9)

	sr, ok := a.SupportResistance(ctx, "EURUSD", models.TrendUp)
	require.True(t, ok)
	assert.InDelta(t, 1.0495, sr, 1e-9)

	sr, ok = a.SupportResistance(ctx, "EURUSD", models.TrendDown)
	require.True(t, ok)
	assert.InDelta(t, 1.0395, sr, 1e-9)

	_, ok = a.OrderBlock(ctx, "USDJPY", models.TrendUp)
	assert.False(t, ok)
}

func TestStopsFallback(t *testing.T) {
	ctx := context.Background()
	b := paper.New(0)
	b.SetSymbolInfo(models.SymbolInfo{Name: "USDJPY", Point: 0.01})
	a := newAnalyzer(b)

	sl, tp, ob := a.Stops(ctx, "USDJPY", models.TrendUp, 150.123)
	assert.False(t, ob)
	assert.InDelta(t, 149.823, sl, 1e-9)
	assert.InDelta(t, 150.723, tp, 1e-9)

	// unknown instrument uses the default point
	sl, tp, _ = a.Stops(ctx, "EURUSD", models.TrendDown, 1.1)
	assert.InDelta(t, 1.103, sl, 1e-9)
	assert.InDelta(t, 1.094, tp, 1e-9)
}

func TestStopsBreakoutFallsBackPerZone(t *testing.T) {
	ctx := context.Background()
	b := paper.New(0)
	b.SetCandles("EURUSD", models.H1, series(repeat(1.2, 50), 0.001))
	a := newAnalyzer(b)

	// entry below the order block: stop falls back, target zone kept
	sl, tp, ob := a.Stops(ctx, "EURUSD", models.TrendUp, 1.1)
	assert.False(t, ob)
	assert.InDelta(t, 1.097, sl, 1e-9)
	assert.InDelta(t, 1.201, tp, 1e-9)

	// entry above the resistance: target falls back, order block kept
	sl, tp, ob = a.Stops(ctx, "EURUSD", models.TrendUp, 1.3)
	assert.True(t, ob)
	assert.InDelta(t, 1.199, sl, 1e-9)
	assert.InDelta(t, 1.306, tp, 1e-9)

	// downtrend entry above the order block high
	sl, tp, ob = a.Stops(ctx, "EURUSD", models.TrendDown, 1.3)
	assert.False(t, ob)
	assert.InDelta(t, 1.303, sl, 1e-9)
	assert.InDelta(t, 1.199, tp, 1e-9)
}

func TestStructureBreak(t *testing.T) {
	ctx := context.Background()
	b := paper.New(0)
	a := newAnalyzer(b)

	_, ok := a.StructureBreak(ctx, "EURUSD")
	assert.False(t, ok)

	b.SetCandles("EURUSD", models.H1, series(ramp(1, 0.001, 30), 0.0005))
	got, ok := a.StructureBreak(ctx, "EURUSD")
	require.True(t, ok)
	assert.Equal(t, models.StructureBOSUp, got)

	b.SetCandles("EURUSD", models.H1, series(ramp(2, -0.001, 30), 0.0005))
	got, _ = a.StructureBreak(ctx, "EURUSD")
	assert.Equal(t, models.StructureBOSDown, got)

	inside := series([]float64{1.0, 1.01, 0.99, 1.0, 1.0}, 0.02)
	inside[4].High, inside[4].Low = 1.005, 0.995
	b.SetCandles("EURUSD", models.H1, inside)
	got, _ = a.StructureBreak(ctx, "EURUSD")
	assert.Equal(t, models.StructureCHoCH, got)
}

func TestMitigationZone(t *testing.T) {
	ctx := context.Background()
	b := paper.New(0)
	cs := []models.Candle{
		{Open: 1.00, Close: 0.99, High: 1.01, Low: 0.98},
		{Open: 0.99, Close: 1.02, High: 1.03, Low: 0.985},
		{Open: 1.02, Close: 1.04, High: 1.05, Low: 1.01},
	}
	b.SetCandles("EURUSD", models.H1, cs)
	a := newAnalyzer(b)

	z, ok := a.MitigationZone(ctx, "EURUSD", models.TrendUp)
	require.True(t, ok)
	assert.Equal(t, models.Zone{Low: 0.98, High: 1.01}, z)

	z, ok = a.MitigationZone(ctx, "EURUSD", models.TrendDown)
	require.True(t, ok)
	assert.Equal(t, models.Zone{Low: 1.01, High: 1.05}, z)

	b.SetCandles("EURUSD", models.H1, []models.Candle{
		{Open: 1.1, Close: 1.09, High: 1.1012345678, Low: 1.0876543219},
	})
	z, ok = a.MitigationZone(ctx, "EURUSD", models.TrendUp)
	require.True(t, ok)
	assert.Equal(t, models.Zone{Low: 1.08765, High: 1.10123}, z)
}
