package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feed(m *Momentum, prices ...float64) {
	for _, p := range prices {
		m.AddSample(p)
	}
}

func TestMomentum_InsufficientDataIsPlaceholder(t *testing.T) {
	m := NewMomentum(14)
	for i := 0; i < 14; i++ {
		m.AddSample(float64(100 - i*7))
		r := m.Compute()
		assert.False(t, r.Ready)
		assert.Equal(t, NeutralRSI, r.Value)
		assert.Equal(t, i+1, r.Samples)
	}
}

func TestMomentum_RejectsInvalidSamples(t *testing.T) {
	m := NewMomentum(3)
	feed(m, 0, -1, math.NaN(), math.Inf(1), math.Inf(-1))
	assert.Empty(t, m.Samples())

	m.AddSample(1.5)
	assert.Equal(t, []float64{1.5}, m.Samples())
}

func TestMomentum_NoLossesIsMaximal(t *testing.T) {
	m := NewMomentum(3)
	feed(m, 1, 2, 3, 4)
	r := m.Compute()
	require.True(t, r.Ready)
	assert.Equal(t, 100.0, r.Value)
}

func TestMomentum_ValueRoundedToTwoDecimals(t *testing.T) {
	m := NewMomentum(3)
	// deltas: +2, -1, +1 -> avgGain 1, avgLoss 1/3 -> rs 3 -> 75
	feed(m, 10, 12, 11, 12)
	assert.Equal(t, 75.0, m.Compute().Value)

	// deltas over last 3: -1, +1, -2 -> gains 1, losses 3 -> rs 1/3 -> 25
	m.AddSample(10)
	assert.Equal(t, 25.0, m.Compute().Value)

	m2 := NewMomentum(3)
	// deltas: +1, -2, -0.5 -> rs 0.4 -> 28.571428...
	feed(m2, 10, 11, 9, 8.5)
	assert.Equal(t, 28.57, m2.Compute().Value)
}

func TestMomentum_UsesOnlyMostRecentWindow(t *testing.T) {
	m := NewMomentum(2)
	// old losses must not count once they fall out of the window
	feed(m, 100, 50, 60, 70)
	assert.Equal(t, 100.0, m.Compute().Value)
}

func TestMomentum_RetentionBound(t *testing.T) {
	m := NewMomentum(3)
	for i := 1; i <= 6; i++ {
		m.AddSample(float64(i))
	}
	assert.Len(t, m.Samples(), 6)

	m.AddSample(7)
	assert.Equal(t, []float64{4, 5, 6, 7}, m.Samples())
	assert.True(t, m.Compute().Ready)
}

func TestNewMomentum_DefaultPeriod(t *testing.T) {
	assert.Equal(t, DefaultPeriod, NewMomentum(0).Period())
}

func TestCalculateRSI_InvalidPeriod(t *testing.T) {
	_, _, err := CalculateRSI([]float64{1, 2}, 0)
	assert.Error(t, err)
}
