package helper

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	assert.Equal(t, 1.12346, Round(1.123456, 5))
	assert.Equal(t, 0.67, Round(0.666666, 2))
	assert.Equal(t, 2.5, Round(2.5, 2))
	assert.True(t, math.IsInf(Round(math.Inf(1), 2), 1))
}

func TestTickRounding(t *testing.T) {
	assert.Equal(t, 1.1234, RoundDownToTick(1.12349, 0.0001))
	assert.Equal(t, 1.1235, RoundUpToTick(1.12341, 0.0001))
	assert.Equal(t, 1.5, RoundDownToTick(1.5, 0))
}

func TestClampPtr(t *testing.T) {
	assert.Nil(t, ClampPtr(nil, -1, 1))
	assert.Nil(t, ClampPtr(Float(math.NaN()), -1, 1))
	assert.Equal(t, 1.0, *ClampPtr(Float(3), -1, 1))
	assert.Equal(t, -1.0, *ClampPtr(Float(-7), -1, 1))
	assert.Equal(t, 0.4, *ClampPtr(Float(0.4), -1, 1))
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 2.0, Mean([]float64{1, 2, 3}))
}
