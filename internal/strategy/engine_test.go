package strategy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sentinel_bot/internal/helper"
	"sentinel_bot/internal/models"
)

type mockAnalyzer struct {
	mock.Mock
}

func (m *mockAnalyzer) IsRanging(ctx context.Context, symbol string) bool {
	return m.Called(symbol).Bool(0)
}

func (m *mockAnalyzer) TrendDirection(ctx context.Context, symbol string) models.Trend {
	return m.Called(symbol).Get(0).(models.Trend)
}

func (m *mockAnalyzer) ConfirmEntry(ctx context.Context, symbol string) bool {
	return m.Called(symbol).Bool(0)
}

func (m *mockAnalyzer) Stops(ctx context.Context, symbol string, trend models.Trend, entry float64) (float64, float64, bool) {
	args := m.Called(symbol, trend, entry)
	return args.Get(0).(float64), args.Get(1).(float64), args.Bool(2)
}

func (m *mockAnalyzer) Volatility(ctx context.Context, symbol string, period int) float64 {
	return m.Called(symbol, period).Get(0).(float64)
}

func (m *mockAnalyzer) StructureBreak(ctx context.Context, symbol string) (models.Structure, bool) {
	args := m.Called(symbol)
	return args.Get(0).(models.Structure), args.Bool(1)
}

func (m *mockAnalyzer) MitigationZone(ctx context.Context, symbol string, trend models.Trend) (models.Zone, bool) {
	args := m.Called(symbol, trend)
	return args.Get(0).(models.Zone), args.Bool(1)
}

type stubTicks map[string]models.Tick

func (s stubTicks) Tick(_ context.Context, symbol string) (models.Tick, error) {
	t, ok := s[symbol]
	if !ok {
		return models.Tick{}, errors.New("no tick")
	}
	return t, nil
}

func TestDecideGateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("ranging short-circuits", func(t *testing.T) {
		an := new(mockAnalyzer)
		an.On("IsRanging", "EURUSD").Return(true)

		c, r := NewDecider(an, stubTicks{}, Config{}, nil).Decide(ctx, "EURUSD", nil, models.StrategyFeedback{})
		assert.Nil(t, c)
		assert.Equal(t, RejectRanging, r)
		an.AssertNotCalled(t, "TrendDirection", "EURUSD")
	})

	t.Run("no trend", func(t *testing.T) {
		an := new(mockAnalyzer)
		an.On("IsRanging", "EURUSD").Return(false)
		an.On("TrendDirection", "EURUSD").Return(models.TrendNone)

		_, r := NewDecider(an, stubTicks{}, Config{}, nil).Decide(ctx, "EURUSD", nil, models.StrategyFeedback{})
		assert.Equal(t, RejectNoTrend, r)
	})

	t.Run("sentiment contradicts uptrend", func(t *testing.T) {
		an := new(mockAnalyzer)
		an.On("IsRanging", "EURUSD").Return(false)
		an.On("TrendDirection", "EURUSD").Return(models.TrendUp)

		_, r := NewDecider(an, stubTicks{}, Config{}, nil).Decide(ctx, "EURUSD", helper.Float(-0.2), models.StrategyFeedback{})
		assert.Equal(t, RejectSentiment, r)
		an.AssertNotCalled(t, "ConfirmEntry", "EURUSD")
	})

	t.Run("no confirmation", func(t *testing.T) {
		an := new(mockAnalyzer)
		an.On("IsRanging", "EURUSD").Return(false)
		an.On("TrendDirection", "EURUSD").Return(models.TrendDown)
		an.On("ConfirmEntry", "EURUSD").Return(false)

		_, r := NewDecider(an, stubTicks{}, Config{}, nil).Decide(ctx, "EURUSD", helper.Float(-0.4), models.StrategyFeedback{})
		assert.Equal(t, RejectNoConfirm, r)
	})

	t.Run("tick missing", func(t *testing.T) {
		an := new(mockAnalyzer)
		an.On("IsRanging", "EURUSD").Return(false)
		an.On("TrendDirection", "EURUSD").Return(models.TrendUp)
		an.On("ConfirmEntry", "EURUSD").Return(true)

		_, r := NewDecider(an, stubTicks{}, Config{}, nil).Decide(ctx, "EURUSD", nil, models.StrategyFeedback{})
		assert.Equal(t, RejectNoTick, r)
		an.AssertNotCalled(t, "Stops", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDecideBuildsCandidate(t *testing.T) {
	ctx := context.Background()
	an := new(mockAnalyzer)
	an.On("IsRanging", "EURUSD").Return(false)
	an.On("TrendDirection", "EURUSD").Return(models.TrendUp)
	an.On("ConfirmEntry", "EURUSD").Return(true)
	an.On("Stops", "EURUSD", models.TrendUp, 1.1002).Return(1.097, 1.106, true)
	an.On("Volatility", "EURUSD", 14).Return(0.002)
	an.On("StructureBreak", "EURUSD").Return(models.StructureBOSUp, true)
	an.On("MitigationZone", "EURUSD", models.TrendUp).Return(models.Zone{Low: 1.095, High: 1.0982}, true)

	ticks := stubTicks{"EURUSD": {Bid: 1.1, Ask: 1.1002}}
	fb := models.StrategyFeedback{TrendStrength: helper.Float(0.5)}

	c, r := NewDecider(an, ticks, Config{}, nil).Decide(ctx, "EURUSD", helper.Float(0.5), fb)
	require.Equal(t, Accepted, r)
	require.NotNil(t, c)

	assert.Equal(t, models.Buy, c.Direction)
	assert.Equal(t, 1.1002, c.Entry)
	assert.Equal(t, 1.097, c.StopLoss)
	assert.Equal(t, 1.106, c.TakeProfit)
	assert.Equal(t, DefaultLot, c.Lot)
	assert.Equal(t, models.StructureBOSUp, c.Structure)
	assert.Contains(t, c.Reason, "structure=BOS_UP")
	assert.Contains(t, c.Reason, "mz=[1.09500,1.09820]")
	// 0.009 + 0.5*0.002 + 0.3*0.5 + 0.2 + 0.4*0.5
	assert.InDelta(t, 0.56, c.Score, 1e-9)
	an.AssertExpectations(t)
}

func TestDecideSellUsesBid(t *testing.T) {
	ctx := context.Background()
	an := new(mockAnalyzer)
	an.On("IsRanging", "GBPUSD").Return(false)
	an.On("TrendDirection", "GBPUSD").Return(models.TrendDown)
	an.On("ConfirmEntry", "GBPUSD").Return(true)
	an.On("Stops", "GBPUSD", models.TrendDown, 1.25).Return(1.253, 1.244, false)
	an.On("Volatility", "GBPUSD", 14).Return(0.0)
	an.On("StructureBreak", "GBPUSD").Return(models.StructureNone, false)
	an.On("MitigationZone", "GBPUSD", models.TrendDown).Return(models.Zone{}, false)

	ticks := stubTicks{"GBPUSD": {Bid: 1.25, Ask: 1.2502}}
	c, r := NewDecider(an, ticks, Config{DefaultLot: 0.02}, nil).Decide(ctx, "GBPUSD", nil, models.StrategyFeedback{})
	require.Equal(t, Accepted, r)
	assert.Equal(t, models.Sell, c.Direction)
	assert.Equal(t, 1.25, c.Entry)
	assert.Equal(t, 0.02, c.Lot)
	assert.InDelta(t, 0.009, c.Score, 1e-9)
	assert.NotContains(t, c.Reason, "mz=")
}

func TestDecideRejectsInvertedStops(t *testing.T) {
	ctx := context.Background()
	an := new(mockAnalyzer)
	an.On("IsRanging", "EURUSD").Return(false)
	an.On("TrendDirection", "EURUSD").Return(models.TrendUp)
	an.On("ConfirmEntry", "EURUSD").Return(true)
	an.On("Stops", "EURUSD", models.TrendUp, 1.1).Return(1.105, 1.11, true)

	_, r := NewDecider(an, stubTicks{"EURUSD": {Bid: 1.0998, Ask: 1.1}}, Config{}, nil).
		Decide(ctx, "EURUSD", nil, models.StrategyFeedback{})
	assert.Equal(t, RejectInvalidStop, r)
}

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		in   ScoreInput
		want float64
	}{
		{
			name: "distance only",
			in:   ScoreInput{StopLoss: 1.0, TakeProfit: 1.01, Trend: models.TrendUp},
			want: 0.01,
		},
		{
			name: "misaligned sentiment ignored",
			in:   ScoreInput{StopLoss: 1.0, TakeProfit: 1.01, Trend: models.TrendUp, Sentiment: helper.Float(-0.9)},
			want: 0.01,
		},
		{
			name: "sentiment clamped",
			in:   ScoreInput{StopLoss: 1.01, TakeProfit: 1.0, Trend: models.TrendDown, Sentiment: helper.Float(-4)},
			want: 0.31,
		},
		{
			name: "trend strength clamped",
			in:   ScoreInput{StopLoss: 1.0, TakeProfit: 1.01, Trend: models.TrendUp, TrendStrength: helper.Float(7), OrderBlock: true},
			want: 0.61,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.in), 1e-9)
		})
	}
}
