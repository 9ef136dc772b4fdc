package recorder

import (
	"time"

	"FeeAllocator/internal/model"
)

// ClaimEvent is one claim attempt of a cycle.
type ClaimEvent struct {
	CycleID       string
	Status        model.CycleStatus
	Claimed       int64
	Distributable int64
	Reference     string
	Error         string
	At            time.Time
}

// ActionEvent is one action outcome inside a distribution.
// Source is "cycle", "flush" or "manual".
type ActionEvent struct {
	CycleID string
	Source  string
	Result  model.ActionResult
	At      time.Time
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordClaim(evt *ClaimEvent) error
	RecordActions(evts []ActionEvent) error
	Close() error
}

// ActionEvents flattens a distribution into rows.
func ActionEvents(cycleID, source string, d *model.DistributionResult) []ActionEvent {
	if d == nil {
		return nil
	}
	out := make([]ActionEvent, 0, len(d.Actions))
	for _, a := range d.Actions {
		out = append(out, ActionEvent{CycleID: cycleID, Source: source, Result: a, At: d.At})
	}
	return out
}
