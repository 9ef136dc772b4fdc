package calculator

import (
	"errors"
	"math"
	"sync"

	"FeeAllocator/internal/model"
)

// DefaultPeriod is the momentum lookback when none is configured.
const DefaultPeriod = 14

// NeutralRSI is returned while there is not enough history.
const NeutralRSI = 50.0

// CalculateRSI computes a simple-average RSI over the last `period` deltas of closes.
// Requires at least period+1 closes. Returns NeutralRSI and false if data is insufficient.
func CalculateRSI(closes []float64, period int) (float64, bool, error) {
	if period <= 0 {
		return 0, false, errors.New("period must be positive")
	}
	if len(closes) < period+1 {
		return NeutralRSI, false, nil
	}

	window := closes[len(closes)-period-1:]
	var gains, losses float64
	for i := 1; i < len(window); i++ {
		change := window[i] - window[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return 100.0, true, nil
	}
	rs := avgGain / avgLoss
	rsi := 100.0 - 100.0/(1.0+rs)
	return math.Round(rsi*100) / 100, true, nil
}

// Momentum keeps a bounded price history and derives the oscillator from it.
// At most 2*period samples are kept; on overflow the history is trimmed to the
// most recent period+1.
type Momentum struct {
	mu      sync.RWMutex
	period  int
	samples []float64
}

// NewMomentum creates an indicator. A non-positive period falls back to DefaultPeriod.
func NewMomentum(period int) *Momentum {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Momentum{period: period, samples: make([]float64, 0, 2*period)}
}

// Period returns the lookback length.
func (m *Momentum) Period() int { return m.period }

// AddSample appends a price. Non-positive, NaN and infinite prices are ignored.
func (m *Momentum) AddSample(price float64) {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.samples = append(m.samples, price)
	if len(m.samples) > 2*m.period {
		keep := m.samples[len(m.samples)-(m.period+1):]
		m.samples = append(make([]float64, 0, 2*m.period), keep...)
	}
}

// Samples returns a copy of the retained history, oldest first.
func (m *Momentum) Samples() []float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]float64, len(m.samples))
	copy(out, m.samples)
	return out
}

// Compute returns the current reading.
func (m *Momentum) Compute() model.MomentumReading {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// period is always positive here, so the error branch cannot trigger.
	value, ready, _ := CalculateRSI(m.samples, m.period)
	return model.MomentumReading{
		Value:   value,
		Ready:   ready,
		Samples: len(m.samples),
		Period:  m.period,
	}
}
