package strategy

import (
	"fmt"

	"FeeAllocator/internal/model"
)

// Tiers maps momentum values to buy multipliers. Ordered; first match wins.
var Tiers = []struct {
	Below  float64
	Action model.MomentumAction
}{
	{20, model.MomentumAction{Signal: model.SignalStrongBuy, Multiplier: 2.0, Reason: "strongly oversold"}},
	{30, model.MomentumAction{Signal: model.SignalOversold, Multiplier: 1.5, Reason: "oversold"}},
	{40, model.MomentumAction{Signal: model.SignalBuyZone, Multiplier: 1.0, Reason: "buy zone"}},
	{50, model.MomentumAction{Signal: model.SignalWeakBuy, Multiplier: 0.5, Reason: "weak buy"}},
}

// DefaultAction applies to values of 50 and above.
var DefaultAction = model.MomentumAction{Signal: model.SignalAccumulate, Multiplier: 0, Reason: "momentum above buy zone"}

// InsufficientData is returned for readings that are not ready.
var InsufficientData = model.MomentumAction{Signal: model.SignalAccumulate, Multiplier: 0, Reason: "insufficient data"}

// Classify maps a reading to an action.
func Classify(r model.MomentumReading) model.MomentumAction {
	if !r.Ready {
		return InsufficientData
	}
	for _, t := range Tiers {
		if r.Value < t.Below {
			return t.Action
		}
	}
	a := DefaultAction
	a.Reason = fmt.Sprintf("momentum %.2f above buy zone", r.Value)
	return a
}
