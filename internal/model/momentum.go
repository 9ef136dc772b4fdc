package model

// MomentumReading is the oscillator output. When Ready is false, Value is the
// neutral placeholder and carries no information.
type MomentumReading struct {
	Value   float64 `json:"value"`
	Ready   bool    `json:"ready"`
	Samples int     `json:"samples"`
	Period  int     `json:"period"`
}

// MomentumSignal is the discrete classification of a reading.
type MomentumSignal string

const (
	SignalStrongBuy  MomentumSignal = "STRONG_BUY"
	SignalOversold   MomentumSignal = "OVERSOLD"
	SignalBuyZone    MomentumSignal = "BUY_ZONE"
	SignalWeakBuy    MomentumSignal = "WEAK_BUY"
	SignalAccumulate MomentumSignal = "ACCUMULATE"
)

// MomentumAction maps a reading to a buy multiplier. Multiplier 0 means "do not buy".
type MomentumAction struct {
	Signal     MomentumSignal `json:"signal"`
	Multiplier float64        `json:"multiplier"`
	Reason     string         `json:"reason"`
}

// ShouldBuy reports whether the action allows a buyback this cycle.
func (a MomentumAction) ShouldBuy() bool { return a.Multiplier > 0 }
